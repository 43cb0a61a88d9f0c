// Package phonebook keeps a local list of contacts in sync with a remote
// contact resource.
//
// A [Store] owns the local list and the pending form entry. Every mutation
// goes through it: it asks for confirmation before overwriting a contact
// that has the same name, dispatches create or update to the [Service],
// reconciles the list with the server response and reports the outcome
// through timed [Notices].
package phonebook
