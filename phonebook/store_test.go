package phonebook

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService is an in-memory [Service] that records the calls it gets.
type fakeService struct {
	mu       sync.Mutex
	contacts []Contact
	calls    []string
	nextID   int

	listErr, createErr, updateErr, deleteErr error
	updateResult                             *Contact
}

func (f *fakeService) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeService) ListAll(context.Context) ([]Contact, error) {
	f.record("list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]Contact(nil), f.contacts...), nil
}

func (f *fakeService) Create(_ context.Context, entry Entry) (Contact, error) {
	f.record("create " + entry.Name)
	if f.createErr != nil {
		return Contact{}, f.createErr
	}
	f.nextID++
	c := Contact{ID: strconv.Itoa(f.nextID + 4), Name: entry.Name, Number: entry.Number}
	f.contacts = append(f.contacts, c)
	return c, nil
}

func (f *fakeService) Update(_ context.Context, id string, c Contact) (Contact, error) {
	f.record("update " + id + " " + c.Name + " " + c.Number)
	if f.updateErr != nil {
		return Contact{}, f.updateErr
	}
	if f.updateResult != nil {
		return *f.updateResult, nil
	}
	return c, nil
}

func (f *fakeService) DeleteByID(_ context.Context, id string) error {
	f.record("delete " + id)
	return f.deleteErr
}

// confirmer answers every question with answer and keeps the questions.
type confirmer struct {
	answer    bool
	err       error
	questions []string
}

func (c *confirmer) confirm(_ context.Context, question string) (bool, error) {
	c.questions = append(c.questions, question)
	return c.answer, c.err
}

func newTestStore(t *testing.T, svc *fakeService, answer bool) (*Store, *confirmer) {
	t.Helper()
	c := &confirmer{answer: answer}
	s := NewStore(svc, c.confirm)
	t.Cleanup(s.Close)
	require.NoError(t, s.Load(context.Background()))
	return s, c
}

func notice(t *testing.T, s *Store, p Polarity) string {
	t.Helper()
	msg, ok := s.Notices().Get(p)
	require.True(t, ok, "no %s notice", p)
	return msg
}

func TestSubmitUpdatesConfirmedDuplicate(t *testing.T) {
	svc := &fakeService{contacts: []Contact{{ID: "1", Name: "Ada", Number: "111"}}}
	s, c := newTestStore(t, svc, true)

	s.SetName("Ada")
	s.SetNumber("222")
	outcome, err := s.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Equal(t, []string{"list", "update 1 Ada 222"}, svc.Calls())
	assert.Equal(t, []string{"Ada is already added to phonebook, replace the old number with a new one?"}, c.questions)
	assert.Equal(t, []Contact{{ID: "1", Name: "Ada", Number: "222"}}, s.Contacts())
	assert.Equal(t, "Updated Ada's number", notice(t, s, NoticeSuccess))
	assert.Equal(t, Entry{}, s.Pending())
}

func TestSubmitKeepsServerRepresentation(t *testing.T) {
	svc := &fakeService{
		contacts:     []Contact{{ID: "1", Name: "Ada", Number: "111"}, {ID: "2", Name: "Bo", Number: "9"}},
		updateResult: &Contact{ID: "1", Name: "Ada", Number: "+222"},
	}
	s, _ := newTestStore(t, svc, true)

	s.SetName("Ada")
	s.SetNumber("222")
	_, err := s.Submit(context.Background())
	require.NoError(t, err)

	want := []Contact{{ID: "1", Name: "Ada", Number: "+222"}, {ID: "2", Name: "Bo", Number: "9"}}
	if diff := cmp.Diff(want, s.Contacts()); diff != "" {
		t.Errorf("contacts mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitDeclinedDuplicate(t *testing.T) {
	svc := &fakeService{contacts: []Contact{{ID: "1", Name: "Ada", Number: "111"}}}
	s, c := newTestStore(t, svc, false)

	s.SetName("Ada")
	s.SetNumber("222")
	outcome, err := s.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeCancelled, outcome)
	assert.Len(t, c.questions, 1)
	assert.Equal(t, []string{"list"}, svc.Calls())
	assert.Equal(t, []Contact{{ID: "1", Name: "Ada", Number: "111"}}, s.Contacts())
	assert.Equal(t, Entry{Name: "Ada", Number: "222"}, s.Pending())
	assert.Empty(t, s.Notices().Active())
}

func TestSubmitConfirmError(t *testing.T) {
	svc := &fakeService{contacts: []Contact{{ID: "1", Name: "Ada", Number: "111"}}}
	s, c := newTestStore(t, svc, true)
	c.err = context.Canceled

	s.SetName("Ada")
	outcome, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeCancelled, outcome)
	assert.Equal(t, []string{"list"}, svc.Calls())
}

func TestSubmitCreatesNewName(t *testing.T) {
	svc := &fakeService{}
	s, c := newTestStore(t, svc, true)

	s.SetName("Bo")
	s.SetNumber("333")
	outcome, err := s.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeCreated, outcome)
	assert.Empty(t, c.questions)
	assert.Equal(t, []Contact{{ID: "5", Name: "Bo", Number: "333"}}, s.Contacts())
	assert.Equal(t, "Added Bo", notice(t, s, NoticeSuccess))
	assert.Equal(t, Entry{}, s.Pending())
}

func TestSubmitNameMatchIsCaseSensitive(t *testing.T) {
	svc := &fakeService{contacts: []Contact{{ID: "1", Name: "Ada", Number: "111"}}}
	s, c := newTestStore(t, svc, true)

	s.SetName("ada")
	s.SetNumber("222")
	outcome, err := s.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeCreated, outcome)
	assert.Empty(t, c.questions)
	assert.Equal(t, []string{"list", "create ada"}, svc.Calls())
}

func TestSubmitCreateFailure(t *testing.T) {
	svc := &fakeService{createErr: &ServiceError{Status: http.StatusBadRequest, Message: "name must be unique"}}
	s, _ := newTestStore(t, svc, true)

	s.SetName("Bo")
	s.SetNumber("333")
	outcome, err := s.Submit(context.Background())
	require.Error(t, err)

	assert.Equal(t, OutcomeFailed, outcome)
	assert.Empty(t, s.Contacts())
	assert.Equal(t, "name must be unique", notice(t, s, NoticeError))
	assert.Equal(t, Entry{Name: "Bo", Number: "333"}, s.Pending())
}

func TestSubmitUpdateValidationFailure(t *testing.T) {
	svc := &fakeService{
		contacts:  []Contact{{ID: "1", Name: "Ada", Number: "111"}},
		updateErr: &ServiceError{Status: http.StatusUnprocessableEntity, Message: "validation failed: body.number: expected length >= 1"},
	}
	s, _ := newTestStore(t, svc, true)

	s.SetName("Ada")
	outcome, err := s.Submit(context.Background())
	require.Error(t, err)

	assert.Equal(t, OutcomeFailed, outcome)
	assert.Equal(t, []Contact{{ID: "1", Name: "Ada", Number: "111"}}, s.Contacts())
	assert.Equal(t, "validation failed: body.number: expected length >= 1", notice(t, s, NoticeError))
	assert.Equal(t, Entry{Name: "Ada"}, s.Pending())
}

func TestSubmitUpdateNotFoundDropsStaleContact(t *testing.T) {
	svc := &fakeService{
		contacts: []Contact{
			{ID: "1", Name: "Ada", Number: "111"},
			{ID: "2", Name: "Bo", Number: "333"},
		},
		updateErr: &ServiceError{Status: http.StatusNotFound, Message: "contact not found"},
	}
	s, c := newTestStore(t, svc, true)

	s.SetName("Ada")
	s.SetNumber("222")
	outcome, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, OutcomeRemoved, outcome)
	assert.Equal(t, []Contact{{ID: "2", Name: "Bo", Number: "333"}}, s.Contacts())
	assert.Equal(t, "Information of Ada has already been removed from the server", notice(t, s, NoticeError))
	assert.Equal(t, Entry{}, s.Pending())

	// the stale contact is gone, submitting the name again creates it
	s.SetName("Ada")
	s.SetNumber("222")
	outcome, err = s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
	assert.Len(t, c.questions, 1)
	assert.Equal(t, []string{"list", "update 1 Ada 222", "create Ada"}, svc.Calls())
	assert.Len(t, s.Contacts(), 2)
}

func TestOverlappingNotFoundDropsOnce(t *testing.T) {
	svc := &fakeService{
		contacts:  []Contact{{ID: "1", Name: "Ada", Number: "111"}, {ID: "2", Name: "Bo", Number: "333"}},
		updateErr: ErrNotFound,
	}
	s, _ := newTestStore(t, svc, true)
	ada := s.Contacts()[0]

	for range 2 {
		outcome, err := s.update(context.Background(), ada, "222")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, OutcomeRemoved, outcome)
	}
	assert.Equal(t, []Contact{{ID: "2", Name: "Bo", Number: "333"}}, s.Contacts())
}

func TestRemove(t *testing.T) {
	contacts := []Contact{{ID: "1", Name: "Ada", Number: "111"}, {ID: "2", Name: "Bo", Number: "333"}}

	t.Run("confirmed", func(t *testing.T) {
		svc := &fakeService{contacts: contacts}
		s, c := newTestStore(t, svc, true)

		removed, err := s.Remove(context.Background(), contacts[0])
		require.NoError(t, err)
		assert.True(t, removed)
		assert.Equal(t, []string{"Delete Ada ?"}, c.questions)
		assert.Equal(t, []string{"list", "delete 1"}, svc.Calls())
		assert.Equal(t, contacts[1:], s.Contacts())
	})

	t.Run("declined", func(t *testing.T) {
		svc := &fakeService{contacts: contacts}
		s, _ := newTestStore(t, svc, false)

		removed, err := s.Remove(context.Background(), contacts[0])
		require.NoError(t, err)
		assert.False(t, removed)
		assert.Equal(t, []string{"list"}, svc.Calls())
		assert.Equal(t, contacts, s.Contacts())
	})

	t.Run("failure", func(t *testing.T) {
		svc := &fakeService{contacts: contacts, deleteErr: errors.New("connection refused")}
		s, _ := newTestStore(t, svc, true)

		removed, err := s.Remove(context.Background(), contacts[0])
		require.Error(t, err)
		assert.False(t, removed)
		assert.Equal(t, contacts, s.Contacts())
		assert.Equal(t, "connection refused", notice(t, s, NoticeError))
	})

	t.Run("already gone", func(t *testing.T) {
		svc := &fakeService{contacts: contacts, deleteErr: &ServiceError{Status: http.StatusNotFound}}
		s, _ := newTestStore(t, svc, true)

		removed, err := s.Remove(context.Background(), contacts[0])
		require.NoError(t, err)
		assert.True(t, removed)
		assert.Equal(t, contacts[1:], s.Contacts())
		assert.Equal(t, "Information of Ada has already been removed from the server", notice(t, s, NoticeError))
	})
}

func TestLoadFailure(t *testing.T) {
	svc := &fakeService{listErr: errors.New("dial tcp: connection refused")}
	s := NewStore(svc, (&confirmer{}).confirm)
	defer s.Close()

	require.Error(t, s.Load(context.Background()))
	assert.Empty(t, s.Contacts())
	assert.Equal(t, "dial tcp: connection refused", notice(t, s, NoticeError))
}

func TestFiltered(t *testing.T) {
	contacts := []Contact{
		{ID: "1", Name: "Arto Hellas"},
		{ID: "2", Name: "Ada Lovelace"},
		{ID: "3", Name: "Dan Abramov"},
		{ID: "4", Name: "Mary Poppendieck"},
	}
	s, _ := newTestStore(t, &fakeService{contacts: contacts}, true)

	tests := []struct {
		filter string
		want   []string
	}{
		{"", []string{"1", "2", "3", "4"}},
		{"a", []string{"1", "2", "3", "4"}},
		{"AR", []string{"1", "4"}},
		{"love", []string{"2"}},
		{"ck", []string{"4"}},
		{"zz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			got := []string{}
			for _, c := range s.Filtered(tt.filter) {
				got = append(got, c.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("does not alias the list", func(t *testing.T) {
		shown := s.Filtered("")
		shown[0].Name = "changed"
		assert.Equal(t, "Arto Hellas", s.Contacts()[0].Name)
	})
}

func TestOnChange(t *testing.T) {
	var mu sync.Mutex
	changes := 0
	svc := &fakeService{}
	s := NewStore(svc, (&confirmer{}).confirm,
		WithNoticeDuration(20*time.Millisecond),
		WithOnChange(func() { mu.Lock(); changes++; mu.Unlock() }),
	)
	defer s.Close()

	s.SetName("Bo")
	_, err := s.Submit(context.Background())
	require.NoError(t, err)

	// notice shown, list changed, then the notice clears
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return changes == 3
	}, time.Second, 5*time.Millisecond)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "removed", OutcomeRemoved.String())
	assert.Equal(t, "Outcome(42)", Outcome(42).String())
}
