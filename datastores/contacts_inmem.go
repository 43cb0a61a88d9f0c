package datastores

import (
	"context"
	"slices"
	"sync"
)

// ContactsInmem implements [ContactsStore].
// Names are unique, contacts are listed in insertion order.
type ContactsInmem struct {
	mu       sync.Mutex
	index    map[ContactID]int
	contacts []*Contact
}

var _ ContactsStore = (*ContactsInmem)(nil)

// NewContactsInmem returns a store seeded with cs. Seeds without an ID get one.
func NewContactsInmem(cs ...*Contact) *ContactsInmem {
	index := make(map[ContactID]int, len(cs))
	for i, c := range cs {
		if c.ID == (ContactID{}) {
			c.ID = newUUID()
		}
		index[c.ID] = i
	}
	return &ContactsInmem{index: index, contacts: cs}
}

func (s *ContactsInmem) Create(_ context.Context, c *Contact) (ContactID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(c.Name, ContactID{}) {
		return ContactID{}, ErrNameTaken
	}
	if s.index == nil {
		s.index = make(map[ContactID]int)
	}
retry:
	c.ID = newUUID()
	_, loaded := s.index[c.ID]
	if loaded {
		goto retry
	}
	s.index[c.ID] = len(s.contacts)
	s.contacts = append(s.contacts, c)
	return c.ID, nil
}

func (s *ContactsInmem) List(_ context.Context) ([]*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.contacts), nil
}

func (s *ContactsInmem) Get(_ context.Context, id ContactID) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.index[id]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return s.contacts[index], nil
}

func (s *ContactsInmem) Update(_ context.Context, c *Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.index[c.ID]
	if !ok {
		return ErrObjectNotFound
	}
	if s.nameTaken(c.Name, c.ID) {
		return ErrNameTaken
	}
	s.contacts[index] = c
	return nil
}

func (s *ContactsInmem) Delete(_ context.Context, id ContactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.index[id]
	if !ok {
		return ErrObjectNotFound
	}
	delete(s.index, id)
	s.contacts = slices.Delete(s.contacts, index, index+1)
	for i := index; i < len(s.contacts); i++ {
		s.index[s.contacts[i].ID] = i
	}
	return nil
}

// nameTaken reports whether name belongs to a contact other than except.
func (s *ContactsInmem) nameTaken(name string, except ContactID) bool {
	return slices.ContainsFunc(s.contacts, func(c *Contact) bool {
		return c.Name == name && c.ID != except
	})
}
