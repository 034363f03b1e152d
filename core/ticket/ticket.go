package ticket

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	MaxTitleLen       = 50
	MaxDescriptionLen = 500
)

var (
	ErrTitleEmpty         = errors.New("title cannot be empty")
	ErrTitleTooLong       = fmt.Errorf("title cannot be longer than %d bytes", MaxTitleLen)
	ErrDescriptionEmpty   = errors.New("description cannot be empty")
	ErrDescriptionTooLong = fmt.Errorf("description cannot be longer than %d bytes", MaxDescriptionLen)
	ErrUnknownStatus      = errors.New("unknown status")
)

type (
	// ID identifies a ticket. The zero ID is never issued by a store.
	ID uint64

	Title       string
	Description string

	// Draft is a ticket that has not been assigned an ID yet.
	Draft struct {
		Title       Title       `json:"title"`
		Description Description `json:"description"`
	}

	// Ticket is a stored ticket.
	Ticket struct {
		ID          ID          `json:"id"`
		Title       Title       `json:"title"`
		Description Description `json:"description"`
		Status      Status      `json:"status"`
	}
)

func (id ID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseID parses the decimal form produced by ID.String.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ticket id %q: %w", s, err)
	}
	return ID(n), nil
}

func NewTitle(s string) (Title, error) {
	t := Title(s)
	return t, t.Validate()
}

func (t Title) Validate() error {
	if strings.TrimSpace(string(t)) == "" {
		return ErrTitleEmpty
	}
	if len(t) > MaxTitleLen {
		return ErrTitleTooLong
	}
	return nil
}

func NewDescription(s string) (Description, error) {
	d := Description(s)
	return d, d.Validate()
}

func (d Description) Validate() error {
	if strings.TrimSpace(string(d)) == "" {
		return ErrDescriptionEmpty
	}
	if len(d) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

// NewDraft validates title and description and returns the resulting draft.
func NewDraft(title, description string) (Draft, error) {
	d := Draft{Title: Title(title), Description: Description(description)}
	return d, d.Validate()
}

func (d Draft) Validate() error {
	if err := d.Title.Validate(); err != nil {
		return err
	}
	return d.Description.Validate()
}

// FromDraft builds the ticket a store materializes for d under id.
func FromDraft(id ID, d Draft) Ticket {
	return Ticket{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Status:      ToDo,
	}
}
