// Package ticket defines the value types held by the ticket store: drafts
// submitted by callers and the tickets the store materializes from them.
//
// Values in this package are plain data. They are copied across the mailbox
// boundary and never shared by reference between the worker and its callers.
package ticket
