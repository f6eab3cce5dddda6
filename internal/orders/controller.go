package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNotFound = errors.New("order not found")
	ErrInFlight = errors.New("order has a transition in flight")
)

// Outcome is how a transition attempt resolved.
type Outcome string

const (
	OutcomeCommitted  Outcome = "committed"   // server confirmed, collection holds the new state
	OutcomeRejected   Outcome = "rejected"    // not allowed from the current state, nothing sent
	OutcomeRolledBack Outcome = "rolled_back" // server failed, prior state restored
	OutcomeUnchanged  Outcome = "unchanged"   // cancel not confirmed or failed, nothing changed
	OutcomeDropped    Outcome = "dropped"     // order left the collection while the call was pending
)

type TransitionError struct {
	Action  Action
	OrderID string
	Err     error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s order %s: %v", e.Action, e.OrderID, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// API is the upstream order service.
type API interface {
	ListOrders(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, serverID string, status ServerStatus) (Order, error)
}

// Confirm asks the merchant to confirm a destructive action.
type Confirm func(Order) bool

// Controller drives order transitions against the upstream API, mirroring
// them in the Store. Each order has at most one transition in flight; orders
// never block each other.
type Controller struct {
	api   API
	store *Store
	log   *zap.Logger

	// OnCommit, when set, is called after the server confirms a transition.
	OnCommit func(ctx context.Context, c Change)

	refresh singleflight.Group

	mu       sync.Mutex
	pending  map[string]bool
	selected string
}

func NewController(api API, store *Store, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		api:     api,
		store:   store,
		log:     log,
		pending: map[string]bool{},
	}
}

func (c *Controller) Store() *Store { return c.store }

// Refresh reloads the collection from the server. Concurrent calls share one
// request.
func (c *Controller) Refresh(ctx context.Context) error {
	_, err, _ := c.refresh.Do("orders", func() (any, error) {
		list, err := c.api.ListOrders(ctx)
		if err != nil {
			return nil, err
		}
		c.store.Load(list)
		return len(list), nil
	})
	if err != nil {
		c.log.Warn("refresh orders failed", zap.Error(err))
		return fmt.Errorf("refresh orders: %w", err)
	}
	return nil
}

func (c *Controller) Accept(ctx context.Context, id string) (Outcome, error) {
	return c.transition(ctx, id, ActionAccept)
}

func (c *Controller) Ready(ctx context.Context, id string) (Outcome, error) {
	return c.transition(ctx, id, ActionReady)
}

func (c *Controller) Complete(ctx context.Context, id string) (Outcome, error) {
	return c.transition(ctx, id, ActionComplete)
}

// Do runs an action by name. Cancel needs a Confirm and goes through Cancel.
func (c *Controller) Do(ctx context.Context, id string, a Action) (Outcome, error) {
	switch a {
	case ActionAccept, ActionReady, ActionComplete:
		return c.transition(ctx, id, a)
	}
	return OutcomeRejected, nil
}

// transition applies the change optimistically, then confirms it with the
// server. A failed call restores the exact prior order.
func (c *Controller) transition(ctx context.Context, id string, a Action) (Outcome, error) {
	if !c.begin(id) {
		return OutcomeRejected, ErrInFlight
	}
	defer c.end(id)

	current, ok := c.store.Get(id)
	if !ok {
		return OutcomeRejected, ErrNotFound
	}
	to, wire, ok := Next(a, current.Status)
	if !ok {
		c.log.Debug("transition rejected",
			zap.String("order", current.DisplayID), zap.String("action", string(a)), zap.String("status", string(current.Status)))
		return OutcomeRejected, nil
	}

	change := Change{ID: id, Before: current, After: current.withStatus(to)}
	rev, ok := c.store.Apply(change)
	if !ok {
		return OutcomeRejected, ErrNotFound
	}

	// The call outlives the caller: a merchant navigating away must not turn
	// into a rollback.
	if _, err := c.api.UpdateStatus(context.WithoutCancel(ctx), id, wire); err != nil {
		if !c.store.Revert(change, rev) {
			c.log.Warn("transition failed, order already replaced",
				zap.String("order", current.DisplayID), zap.String("action", string(a)), zap.Error(err))
			return OutcomeDropped, &TransitionError{Action: a, OrderID: current.DisplayID, Err: err}
		}
		c.log.Warn("transition failed, rolled back",
			zap.String("order", current.DisplayID), zap.String("action", string(a)), zap.Error(err))
		return OutcomeRolledBack, &TransitionError{Action: a, OrderID: current.DisplayID, Err: err}
	}

	// A refresh may have replaced the optimistic entry with an older server
	// snapshot while the call was pending; the confirmed state wins.
	if cur, ok := c.store.revision(id); !ok {
		return OutcomeDropped, nil
	} else if cur != rev {
		c.store.Apply(change)
	}
	c.log.Info("order transitioned",
		zap.String("order", current.DisplayID), zap.String("from", string(current.Status)), zap.String("to", string(to)))
	c.committed(ctx, change)
	return OutcomeCommitted, nil
}

// Cancel asks for confirmation, then cancels on the server. The order is
// moved out of the collection into the archive only after the server agrees.
func (c *Controller) Cancel(ctx context.Context, id string, confirm Confirm) (Outcome, error) {
	if !c.begin(id) {
		return OutcomeRejected, ErrInFlight
	}
	defer c.end(id)

	current, ok := c.store.Get(id)
	if !ok {
		return OutcomeRejected, ErrNotFound
	}
	to, wire, ok := Next(ActionCancel, current.Status)
	if !ok {
		return OutcomeRejected, nil
	}
	if confirm == nil || !confirm(current) {
		return OutcomeUnchanged, nil
	}

	if _, err := c.api.UpdateStatus(context.WithoutCancel(ctx), id, wire); err != nil {
		c.log.Warn("cancel failed",
			zap.String("order", current.DisplayID), zap.Error(err))
		return OutcomeUnchanged, &TransitionError{Action: ActionCancel, OrderID: current.DisplayID, Err: err}
	}

	cancelled := current.withStatus(to)
	c.store.Archive(cancelled)
	c.mu.Lock()
	if c.selected == id {
		c.selected = ""
	}
	c.mu.Unlock()

	c.log.Info("order cancelled", zap.String("order", current.DisplayID))
	c.committed(ctx, Change{ID: id, Before: current, After: cancelled})
	return OutcomeCommitted, nil
}

// Select opens the detail view for an order.
func (c *Controller) Select(id string) (Order, bool) {
	o, ok := c.store.Get(id)
	if !ok {
		return Order{}, false
	}
	c.mu.Lock()
	c.selected = id
	c.mu.Unlock()
	return o, true
}

// Selected returns the order shown in the detail view, if any.
func (c *Controller) Selected() (Order, bool) {
	c.mu.Lock()
	id := c.selected
	c.mu.Unlock()
	if id == "" {
		return Order{}, false
	}
	return c.store.Get(id)
}

func (c *Controller) CloseDetail() {
	c.mu.Lock()
	c.selected = ""
	c.mu.Unlock()
}

// Pending reports whether a transition for id is waiting on the server.
func (c *Controller) Pending(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[id]
}

func (c *Controller) begin(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[id] {
		return false
	}
	c.pending[id] = true
	return true
}

func (c *Controller) end(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Controller) committed(ctx context.Context, ch Change) {
	if c.OnCommit != nil {
		c.OnCommit(context.WithoutCancel(ctx), ch)
	}
}
