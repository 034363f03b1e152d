// Package store holds tickets in memory and assigns their identifiers.
//
// MemStore performs no locking. It is meant to be owned by exactly one
// goroutine (the mailbox worker); everything else reaches it through
// messages.
package store

import "github.com/codewandler/ticketbox/core/ticket"

type MemStore struct {
	last ticket.ID
	data map[ticket.ID]ticket.Ticket
}

func NewMemStore() *MemStore {
	return &MemStore{data: map[ticket.ID]ticket.Ticket{}}
}

// Insert stores a ticket built from draft and returns its id. Ids are
// assigned sequentially starting at 1.
func (m *MemStore) Insert(draft ticket.Draft) ticket.ID {
	m.last++
	m.data[m.last] = ticket.FromDraft(m.last, draft)
	return m.last
}

// Get returns a copy of the ticket stored under id.
func (m *MemStore) Get(id ticket.ID) (t ticket.Ticket, ok bool) {
	t, ok = m.data[id]
	return
}

func (m *MemStore) Len() int { return len(m.data) }
