package orderstatus

import (
	"errors"
	"strings"
)

// ErrInvalidTransition is returned when an order is asked to move to a
// status the lifecycle does not allow from its current one.
var ErrInvalidTransition = errors.New("invalid order status transition")

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	parts := strings.Split(s.Name, "-")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

type Enum struct {
	Pending    Status
	Preparing  Status
	Ready      Status
	Delivered  Status
	Cancelled  Status
	Delivering Status
}

// Statuses holds every order lifecycle status. Delivering is a
// display-only phase derived from Ready for delivery orders; it never
// appears in server-held state and takes no part in transitions.
var Statuses = Enum{
	Pending:    Status{Name: "pending"},
	Preparing:  Status{Name: "preparing"},
	Ready:      Status{Name: "ready"},
	Delivered:  Status{Name: "delivered"},
	Cancelled:  Status{Name: "cancelled"},
	Delivering: Status{Name: "delivering"},
}

var All = []Status{
	Statuses.Pending,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.Delivered,
	Statuses.Cancelled,
}

// ByName returns the status for a given name, or nil if not found.
// Delivering is not resolvable here: it is never a stored status.
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}

// IsTerminal reports whether the status accepts no further actions.
func (s Status) IsTerminal() bool {
	return s == Statuses.Delivered || s == Statuses.Cancelled
}

// Next returns the status that follows s in the forward sequence
// pending -> preparing -> ready -> delivered.
func (s Status) Next() (Status, error) {
	switch s {
	case Statuses.Pending:
		return Statuses.Preparing, nil
	case Statuses.Preparing:
		return Statuses.Ready, nil
	case Statuses.Ready:
		return Statuses.Delivered, nil
	default:
		return Status{}, ErrInvalidTransition
	}
}

// AdvanceAction returns the API action that moves an order out of s.
// The action is derived from the current status so a caller can never
// send an action inconsistent with the state it believes the order is in.
func (s Status) AdvanceAction() (string, bool) {
	switch s {
	case Statuses.Pending:
		return "prepare", true
	case Statuses.Preparing:
		return "ready", true
	case Statuses.Ready:
		return "deliver", true
	default:
		return "", false
	}
}

// CanCancel reports whether an order in s may still be cancelled.
func (s Status) CanCancel() bool {
	return !s.IsTerminal()
}

// Apply validates action against the current status and returns the
// resulting one. Unknown or out-of-place actions yield
// ErrInvalidTransition, never a corrupted status.
func Apply(current Status, action string) (Status, error) {
	switch action {
	case "prepare":
		if current != Statuses.Pending {
			return Status{}, ErrInvalidTransition
		}
		return Statuses.Preparing, nil
	case "ready":
		if current != Statuses.Preparing {
			return Status{}, ErrInvalidTransition
		}
		return Statuses.Ready, nil
	case "deliver":
		if current != Statuses.Ready {
			return Status{}, ErrInvalidTransition
		}
		return Statuses.Delivered, nil
	case "cancel":
		if !current.CanCancel() {
			return Status{}, ErrInvalidTransition
		}
		return Statuses.Cancelled, nil
	default:
		return Status{}, ErrInvalidTransition
	}
}
