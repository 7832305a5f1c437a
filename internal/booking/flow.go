package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/qdclab/booking-api/internal/common"
	"github.com/qdclab/booking-api/internal/pricing"
)

// ErrEmptyCart blocks submission when no tests are selected.
var ErrEmptyCart = errors.New("no tests selected")

// ErrSubmitInFlight is returned when a submission is already running for the
// session. The browser disables the submit button, but the server cannot rely
// on that alone.
var ErrSubmitInFlight = errors.New("submission already in progress")

// OrderRequest is the payload handed to the order-creation collaborator. It is
// a snapshot of the cart, billing inputs and session identifiers taken at
// submission time.
type OrderRequest struct {
	PatientID int64         `json:"patientId"`
	DoctorID  *int64        `json:"doctorId"`
	TestIDs   []int64       `json:"testIds"`
	Discount  pricing.Money `json:"discount"`
	CashPaid  pricing.Money `json:"cashPaid"`
}

// OrderCreator abstracts the upstream collaborator that persists an order and
// returns its identifier. The call is fallible and not idempotent; the flow
// never retries on its own.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req OrderRequest) (int64, error)
}

// SubmitState tracks where the flow is in its submission lifecycle.
type SubmitState int

const (
	// SubmitIdle accepts cart edits, billing input changes and a submit trigger.
	SubmitIdle SubmitState = iota
	// Submitting has exactly one order-creation call outstanding.
	Submitting
	// Succeeded is terminal; the session carries the created order id.
	Succeeded
)

func (s SubmitState) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	default:
		return "idle"
	}
}

// RenderState is the full view snapshot emitted after every command. It is
// recomputed from scratch each time; nothing here survives a mutation.
type RenderState struct {
	PatientID      int64          `json:"patientId"`
	Items          []LineItem     `json:"items"`
	Empty          bool           `json:"empty"`
	Subtotal       pricing.Money  `json:"subtotal"`
	Discount       pricing.Money  `json:"discount"`
	Net            pricing.Money  `json:"net"`
	Cash           pricing.Money  `json:"cash"`
	Balance        pricing.Money  `json:"balance"`
	BalanceStatus  string         `json:"balanceStatus"`
	BalanceDisplay string         `json:"balanceDisplay"`
	SubmitState    string         `json:"submitState"`
	OrderID        int64          `json:"orderId,omitempty"`
}

// Flow owns the cart and billing state for one booking session. It is safe for
// concurrent use; a single HTTP client drives it, but nothing stops two tabs
// from hitting the same session.
type Flow struct {
	mu        sync.Mutex
	patientID int64

	cart        Cart
	discountRaw string
	cashRaw     string
	doctorRaw   string

	state   SubmitState
	orderID int64
}

// NewFlow starts an empty booking flow for the given patient. The patient id
// is fixed for the life of the session.
func NewFlow(patientID int64) *Flow {
	return &Flow{patientID: patientID}
}

// PatientID returns the session's fixed patient identifier.
func (f *Flow) PatientID() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.patientID
}

// AddItem adds a test to the cart and returns the fresh render state.
func (f *Flow) AddItem(item LineItem) (RenderState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.cart.Add(item); err != nil {
		return f.renderLocked(), err
	}
	return f.renderLocked(), nil
}

// RemoveItem removes the test at the given cart position. Positions shift down
// after a removal, so callers must repaint from the returned state rather than
// reuse indices from an earlier render.
func (f *Flow) RemoveItem(index int) (RenderState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.cart.Remove(index); err != nil {
		return f.renderLocked(), err
	}
	return f.renderLocked(), nil
}

// SetDiscount records the raw discount input. Parsing is deferred to render
// and submission so a half-typed value never faults the flow.
func (f *Flow) SetDiscount(raw string) RenderState {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discountRaw = raw
	return f.renderLocked()
}

// SetCash records the raw cash-received input.
func (f *Flow) SetCash(raw string) RenderState {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cashRaw = raw
	return f.renderLocked()
}

// SetDoctor records the raw referring-doctor selection. Empty means walk-in.
func (f *Flow) SetDoctor(raw string) RenderState {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doctorRaw = raw
	return f.renderLocked()
}

// Render recomputes the current view snapshot.
func (f *Flow) Render() RenderState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renderLocked()
}

// Submit validates the cart, assembles the order payload from current state
// and delegates to the collaborator. On failure the flow returns to idle with
// cart and inputs untouched, so the user can correct and retry. Only one
// submission may be outstanding at a time.
func (f *Flow) Submit(ctx context.Context, creator OrderCreator) (RenderState, error) {
	f.mu.Lock()
	switch f.state {
	case Submitting:
		state := f.renderLocked()
		f.mu.Unlock()
		return state, ErrSubmitInFlight
	case Succeeded:
		state := f.renderLocked()
		f.mu.Unlock()
		return state, fmt.Errorf("order %d already created", f.orderID)
	}
	if f.cart.IsEmpty() {
		state := f.renderLocked()
		f.mu.Unlock()
		return state, ErrEmptyCart
	}
	req := OrderRequest{
		PatientID: f.patientID,
		DoctorID:  common.ParseOptionalID(f.doctorRaw),
		TestIDs:   f.cart.TestIDs(),
		Discount:  common.ParseAmount(f.discountRaw),
		CashPaid:  common.ParseAmount(f.cashRaw),
	}
	f.state = Submitting
	f.mu.Unlock()

	orderID, err := creator.CreateOrder(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = SubmitIdle
		return f.renderLocked(), fmt.Errorf("create order: %w", err)
	}
	f.state = Succeeded
	f.orderID = orderID
	return f.renderLocked(), nil
}

// OrderID returns the created order id, valid once the flow succeeded.
func (f *Flow) OrderID() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orderID
}

func (f *Flow) renderLocked() RenderState {
	items := f.cart.Items()
	subtotal := pricing.Subtotal(f.cart.PricingItems())
	result := pricing.Reconcile(subtotal, common.ParseAmount(f.discountRaw), common.ParseAmount(f.cashRaw))
	return RenderState{
		PatientID:      f.patientID,
		Items:          items,
		Empty:          len(items) == 0,
		Subtotal:       result.Subtotal,
		Discount:       result.Discount,
		Net:            result.Net,
		Cash:           result.Cash,
		Balance:        result.Balance,
		BalanceStatus:  result.Status.String(),
		BalanceDisplay: result.Display(),
		SubmitState:    f.state.String(),
		OrderID:        f.orderID,
	}
}
