package orders

import "fmt"

type Status string

const (
	StatusNew       Status = "NEW"
	StatusPreparing Status = "PREPARING"
	StatusReady     Status = "READY"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// ServerStatus is the vocabulary of the upstream status endpoint.
type ServerStatus string

const (
	ServerPreparing ServerStatus = "PREPARING"
	ServerReady     ServerStatus = "READY"
	ServerDelivered ServerStatus = "DELIVERED"
	ServerCancelled ServerStatus = "CANCELLED"
)

type Action string

const (
	ActionAccept   Action = "accept"
	ActionReady    Action = "ready"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

var validNext = map[Status]map[Status]bool{
	StatusNew:       {StatusPreparing: true, StatusCancelled: true},
	StatusPreparing: {StatusReady: true, StatusCancelled: true},
	StatusReady:     {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted: {},
	StatusCancelled: {},
}

type transition struct {
	to   Status
	wire ServerStatus
}

var actions = map[Action]transition{
	ActionAccept:   {to: StatusPreparing, wire: ServerPreparing},
	ActionReady:    {to: StatusReady, wire: ServerReady},
	ActionComplete: {to: StatusCompleted, wire: ServerDelivered},
	ActionCancel:   {to: StatusCancelled, wire: ServerCancelled},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Next resolves an action against the current status. ok is false when the
// action is not allowed from that status.
func Next(a Action, from Status) (to Status, wire ServerStatus, ok bool) {
	t, known := actions[a]
	if !known || !CanTransition(from, t.to) {
		return from, "", false
	}
	return t.to, t.wire, true
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ParseServerStatus maps an upstream status onto the lifecycle states.
func ParseServerStatus(s string) (Status, error) {
	switch s {
	case "NEW", "PENDING", "new", "pending":
		return StatusNew, nil
	case "PREPARING", "preparing":
		return StatusPreparing, nil
	case "READY", "ready":
		return StatusReady, nil
	case "COMPLETED", "DELIVERED", "completed", "delivered":
		return StatusCompleted, nil
	case "CANCELLED", "CANCELED", "cancelled", "canceled":
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

func ParseAction(s string) (Action, bool) {
	a := Action(s)
	_, ok := actions[a]
	return a, ok
}
