package api

import "github.com/oaiiae/phonebook/datastores"

// SeedContacts returns the contacts a fresh server starts with.
func SeedContacts() []*datastores.Contact {
	return []*datastores.Contact{
		{Name: "Arto Hellas", Number: "040-123456"},
		{Name: "Ada Lovelace", Number: "39-44-5323523"},
		{Name: "Dan Abramov", Number: "12-43-234345"},
		{Name: "Mary Poppendieck", Number: "39-23-6423122"},
	}
}
