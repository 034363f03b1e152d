package ticket

import "fmt"

type Status int

const (
	ToDo Status = iota
	InProgress
	Done
)

func (s Status) String() string {
	switch s {
	case ToDo:
		return "todo"
	case InProgress:
		return "in_progress"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func ParseStatus(s string) (Status, error) {
	switch s {
	case "todo":
		return ToDo, nil
	case "in_progress":
		return InProgress, nil
	case "done":
		return Done, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

func (s Status) MarshalText() ([]byte, error) {
	switch s {
	case ToDo, InProgress, Done:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, int(s))
	}
}

func (s *Status) UnmarshalText(data []byte) error {
	v, err := ParseStatus(string(data))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
