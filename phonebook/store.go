package phonebook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(ctx context.Context, question string) (bool, error)

// Outcome tells how a submission ended.
type Outcome int

const (
	OutcomeCancelled Outcome = iota
	OutcomeCreated
	OutcomeUpdated
	OutcomeRemoved // the contact was gone on the server and got dropped locally
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeRemoved:
		return "removed"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Store is the local cache of the remote contact list plus the pending entry.
// It is safe for concurrent use; responses are applied to the current list
// by id, so overlapping operations resolve to the last response.
type Store struct {
	service  Service
	confirm  ConfirmFunc
	logger   *slog.Logger
	notices  *Notices
	duration time.Duration
	onChange func()

	mu       sync.Mutex
	contacts []Contact
	pending  Entry
}

type StoreOption func(*Store)

func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

func WithNoticeDuration(d time.Duration) StoreOption {
	return func(s *Store) { s.duration = d }
}

// WithOnChange registers a function called after every state change,
// including notices clearing on their own.
func WithOnChange(f func()) StoreOption {
	return func(s *Store) { s.onChange = f }
}

func NewStore(service Service, confirm ConfirmFunc, opts ...StoreOption) *Store {
	s := &Store{
		service:  service,
		confirm:  confirm,
		logger:   slog.New(slog.DiscardHandler),
		duration: DefaultNoticeDuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.notices = NewNotices(s.duration, s.onChange)
	return s
}

// Close cancels pending notice clears.
func (s *Store) Close() { s.notices.Stop() }

func (s *Store) Notices() *Notices { return s.notices }

// Load replaces the local list with the server's.
func (s *Store) Load(ctx context.Context) error {
	contacts, err := s.service.ListAll(ctx)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "list contacts failed", slog.Any("err", err))
		s.notices.Show(NoticeError, errorMessage(err))
		return err
	}

	s.mu.Lock()
	s.contacts = slices.Clone(contacts)
	s.mu.Unlock()
	s.logger.LogAttrs(ctx, slog.LevelDebug, "contacts loaded", slog.Int("count", len(contacts)))
	s.changed()
	return nil
}

func (s *Store) Contacts() []Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.contacts)
}

// Filtered returns the contacts whose name contains filter, ignoring case.
// An empty filter returns every contact.
func (s *Store) Filtered(filter string) []Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterContacts(s.contacts, filter)
}

func filterContacts(contacts []Contact, filter string) []Contact {
	if filter == "" {
		return slices.Clone(contacts)
	}
	filter = strings.ToLower(filter)
	shown := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		if strings.Contains(strings.ToLower(c.Name), filter) {
			shown = append(shown, c)
		}
	}
	return shown
}

func (s *Store) Pending() Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Store) SetName(name string) {
	s.mu.Lock()
	s.pending.Name = name
	s.mu.Unlock()
}

func (s *Store) SetNumber(number string) {
	s.mu.Lock()
	s.pending.Number = number
	s.mu.Unlock()
}

// Submit commits the pending entry. A name already in the list is updated
// with the new number once confirmed, any other name is created.
func (s *Store) Submit(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	entry := s.pending
	i := slices.IndexFunc(s.contacts, func(c Contact) bool { return c.Name == entry.Name })
	var existing Contact
	if i >= 0 {
		existing = s.contacts[i]
	}
	s.mu.Unlock()

	if i < 0 {
		return s.create(ctx, entry)
	}

	ok, err := s.confirm(ctx, entry.Name+" is already added to phonebook, replace the old number with a new one?")
	if err != nil {
		return OutcomeCancelled, fmt.Errorf("phonebook: confirm: %w", err)
	}
	if !ok {
		return OutcomeCancelled, nil
	}
	return s.update(ctx, existing, entry.Number)
}

func (s *Store) create(ctx context.Context, entry Entry) (Outcome, error) {
	created, err := s.service.Create(ctx, entry)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "create contact failed",
			slog.String("name", entry.Name), slog.Any("err", err))
		s.notices.Show(NoticeError, errorMessage(err))
		return OutcomeFailed, err
	}

	s.mu.Lock()
	s.contacts = append(s.contacts, created)
	s.pending = Entry{}
	s.mu.Unlock()

	s.logger.LogAttrs(ctx, slog.LevelDebug, "contact created", slog.String("id", created.ID))
	s.notices.Show(NoticeSuccess, "Added "+created.Name)
	s.changed()
	return OutcomeCreated, nil
}

func (s *Store) update(ctx context.Context, existing Contact, number string) (Outcome, error) {
	changed := existing
	changed.Number = number

	updated, err := s.service.Update(ctx, existing.ID, changed)
	switch {
	case err == nil:
		s.mu.Lock()
		if i := s.index(existing.ID); i >= 0 {
			s.contacts[i] = updated
		}
		s.pending = Entry{}
		s.mu.Unlock()

		s.logger.LogAttrs(ctx, slog.LevelDebug, "contact updated", slog.String("id", existing.ID))
		s.notices.Show(NoticeSuccess, "Updated "+updated.Name+"'s number")
		s.changed()
		return OutcomeUpdated, nil

	case errors.Is(err, ErrNotFound):
		s.mu.Lock()
		s.drop(existing.ID)
		s.pending = Entry{}
		s.mu.Unlock()

		s.logger.LogAttrs(ctx, slog.LevelInfo, "stale contact dropped", slog.String("id", existing.ID))
		s.notices.Show(NoticeError, "Information of "+existing.Name+" has already been removed from the server")
		s.changed()
		return OutcomeRemoved, err

	default:
		s.logger.LogAttrs(ctx, slog.LevelWarn, "update contact failed",
			slog.String("id", existing.ID), slog.Any("err", err))
		s.notices.Show(NoticeError, errorMessage(err))
		return OutcomeFailed, err
	}
}

// Remove deletes c once confirmed. It reports whether c left the list.
// A contact already gone on the server is dropped locally like a deleted one.
func (s *Store) Remove(ctx context.Context, c Contact) (bool, error) {
	ok, err := s.confirm(ctx, "Delete "+c.Name+" ?")
	if err != nil {
		return false, fmt.Errorf("phonebook: confirm: %w", err)
	}
	if !ok {
		return false, nil
	}

	err = s.service.DeleteByID(ctx, c.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "delete contact failed",
			slog.String("id", c.ID), slog.Any("err", err))
		s.notices.Show(NoticeError, errorMessage(err))
		return false, err
	}

	s.mu.Lock()
	s.drop(c.ID)
	s.mu.Unlock()

	if err != nil {
		s.notices.Show(NoticeError, "Information of "+c.Name+" has already been removed from the server")
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "contact deleted", slog.String("id", c.ID))
	s.changed()
	return true, nil
}

// index returns the position of id in the list or -1. Callers hold s.mu.
func (s *Store) index(id string) int {
	return slices.IndexFunc(s.contacts, func(c Contact) bool { return c.ID == id })
}

// drop removes id from the list if present. Callers hold s.mu.
func (s *Store) drop(id string) {
	s.contacts = slices.DeleteFunc(s.contacts, func(c Contact) bool { return c.ID == id })
}

func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// errorMessage is the text shown to the user for err.
func errorMessage(err error) string {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Message
	}
	return err.Error()
}
