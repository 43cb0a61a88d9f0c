package datastores

import (
	"context"
	"errors"
)

type (
	ContactID = UUID
	Contact   struct {
		ID     ContactID
		Name   string
		Number string
	}
)

type ContactsStore interface {
	Create(context.Context, *Contact) (ContactID, error)
	List(context.Context) ([]*Contact, error)
	Get(context.Context, ContactID) (*Contact, error)
	Update(context.Context, *Contact) error
	Delete(context.Context, ContactID) error
}

var (
	ErrObjectNotFound = errors.New("store: object not found")
	ErrNameTaken      = errors.New("store: name already taken")
)
