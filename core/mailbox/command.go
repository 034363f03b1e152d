package mailbox

import "github.com/codewandler/ticketbox/core/ticket"

const (
	kindInsert = "insert"
	kindGet    = "get"
)

// command is a request for the worker. Each variant carries its input and
// the send side of a reply channel owned by the one call that created it.
type command interface {
	kind() string
}

type (
	insertCommand struct {
		draft ticket.Draft
		reply chan<- insertReply
	}

	insertReply struct {
		id  ticket.ID
		err error
	}

	getCommand struct {
		id    ticket.ID
		reply chan<- getReply
	}

	getReply struct {
		ticket ticket.Ticket
		found  bool
		err    error
	}
)

func (insertCommand) kind() string { return kindInsert }
func (getCommand) kind() string    { return kindGet }
