package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	ds "github.com/oaiiae/phonebook/datastores"
)

type Contacts struct {
	Store        ds.ContactsStore
	ErrorHandler func(context.Context, error)
}

type ContactModel struct {
	ID string `json:"id,omitempty" readOnly:"true" example:"AZJ3mX0TcW2qZ0v4bQ8Wkg"`

	Name   string `json:"name"   minLength:"1" example:"Ada Lovelace"`
	Number string `json:"number" minLength:"1" example:"39-44-5323523"`
}

func contactModel(c *ds.Contact) ContactModel {
	return ContactModel{ID: c.ID.String(), Name: c.Name, Number: c.Number}
}

// parseID maps malformed ids to 404 since no such contact can exist.
func parseID(raw string) (ds.ContactID, error) {
	var id ds.ContactID
	if err := id.UnmarshalText([]byte(raw)); err != nil {
		return id, huma.Error404NotFound("malformatted id", err)
	}
	return id, nil
}

// storeError maps datastore errors to their HTTP counterpart.
func storeError(err error) error {
	switch {
	case errors.Is(err, ds.ErrObjectNotFound):
		return huma.Error404NotFound("contact not found", err)
	case errors.Is(err, ds.ErrNameTaken):
		return huma.Error400BadRequest("name must be unique", err)
	default:
		return err
	}
}

func (h *Contacts) RegisterList(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/",
		handlerWithErrorHandler(h.list, h.ErrorHandler),
		opID("list-contacts"),
		opErrors(http.StatusInternalServerError),
	)
}

type ContactsListOutput struct {
	Body []ContactModel
}

func (h *Contacts) list(ctx context.Context, _ *struct{}) (*ContactsListOutput, error) {
	contacts, err := h.Store.List(ctx)
	if err != nil {
		return nil, err
	}

	body := make([]ContactModel, 0, len(contacts))
	for _, contact := range contacts {
		body = append(body, contactModel(contact))
	}

	return &ContactsListOutput{Body: body}, nil
}

type ContactOutput struct {
	Body ContactModel
}

func (h *Contacts) RegisterGet(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/{id}",
		handlerWithErrorHandler(h.get, h.ErrorHandler),
		opID("get-contact"),
		opErrors(http.StatusNotFound, http.StatusInternalServerError),
	)
}

func (h *Contacts) get(ctx context.Context, input *struct {
	ID string `path:"id" doc:"ID of the contact to get"`
}) (*ContactOutput, error) {
	id, err := parseID(input.ID)
	if err != nil {
		return nil, err
	}

	contact, err := h.Store.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return &ContactOutput{Body: contactModel(contact)}, nil
}

func (h *Contacts) RegisterPost(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "/",
		handlerWithErrorHandler(h.post, h.ErrorHandler),
		opID("create-contact"),
		opErrors(http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusInternalServerError),
		func(o *huma.Operation) { o.DefaultStatus = http.StatusCreated },
	)
}

func (h *Contacts) post(ctx context.Context, input *struct {
	Body ContactModel
}) (*ContactOutput, error) {
	contact := &ds.Contact{Name: input.Body.Name, Number: input.Body.Number}
	if _, err := h.Store.Create(ctx, contact); err != nil {
		return nil, storeError(err)
	}
	return &ContactOutput{Body: contactModel(contact)}, nil
}

func (h *Contacts) RegisterPut(api huma.API) { // called by [huma.AutoRegister]
	huma.Put(api, "/{id}",
		handlerWithErrorHandler(h.put, h.ErrorHandler),
		opID("put-contact"),
		opErrors(http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusInternalServerError),
	)
}

func (h *Contacts) put(ctx context.Context, input *struct {
	ID   string `path:"id" doc:"ID of the contact to put"`
	Body ContactModel
}) (*ContactOutput, error) {
	id, err := parseID(input.ID)
	if err != nil {
		return nil, err
	}

	contact := &ds.Contact{ID: id, Name: input.Body.Name, Number: input.Body.Number}
	if err := h.Store.Update(ctx, contact); err != nil {
		return nil, storeError(err)
	}
	return &ContactOutput{Body: contactModel(contact)}, nil
}

func (h *Contacts) RegisterDel(api huma.API) { // called by [huma.AutoRegister]
	huma.Delete(api, "/{id}",
		handlerWithErrorHandler(h.del, h.ErrorHandler),
		opID("delete-contact"),
		opErrors(http.StatusNotFound, http.StatusInternalServerError),
	)
}

func (h *Contacts) del(ctx context.Context, input *struct {
	ID string `path:"id" doc:"ID of the contact to delete"`
}) (*struct{}, error) {
	id, err := parseID(input.ID)
	if err != nil {
		return nil, err
	}
	return nil, storeError(h.Store.Delete(ctx, id))
}
