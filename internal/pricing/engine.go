package pricing

import "strconv"

// Money represents a monetary value stored in minor units. All billing
// arithmetic is integer; fractional user input is rounded during parsing,
// never here.
type Money = int64

// Status classifies the balance after reconciliation.
type Status int

const (
	// StatusSettled means the cash received covers the net total exactly.
	StatusSettled Status = iota
	// StatusDue means an amount is still owed by the patient.
	StatusDue
	// StatusChange means change must be returned to the patient.
	StatusChange
)

func (s Status) String() string {
	switch s {
	case StatusDue:
		return "due"
	case StatusChange:
		return "change"
	case StatusSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Item describes a billable line used for subtotal calculation.
type Item struct {
	Price Money
}

// Result aggregates the reconciled billing figures. It is fully determined by
// its inputs; recomputing from the same cart and inputs yields the same value.
type Result struct {
	Subtotal Money
	Discount Money
	Net      Money
	Cash     Money
	Balance  Money
	Status   Status
}

// Subtotal sums line prices. An empty slice yields 0.
func Subtotal(items []Item) Money {
	var total Money
	for _, it := range items {
		total += it.Price
	}
	return total
}

// Reconcile derives net total and balance from the subtotal and the
// user-supplied discount and cash figures. The balance sign picks the status:
// positive means the patient still owes, negative means change is returned,
// zero means settled.
func Reconcile(subtotal, discount, cash Money) Result {
	net := subtotal - discount
	balance := net - cash
	status := StatusSettled
	switch {
	case balance > 0:
		status = StatusDue
	case balance < 0:
		status = StatusChange
	}
	return Result{
		Subtotal: subtotal,
		Discount: discount,
		Net:      net,
		Cash:     cash,
		Balance:  balance,
		Status:   status,
	}
}

// Owed returns the displayable balance magnitude: the amount due or the change
// to hand back, always non-negative.
func (r Result) Owed() Money {
	if r.Balance < 0 {
		return -r.Balance
	}
	return r.Balance
}

// Display renders the balance the way the booking screen shows it.
func (r Result) Display() string {
	switch r.Status {
	case StatusDue:
		return strconv.FormatInt(r.Owed(), 10) + " (Due)"
	case StatusChange:
		return strconv.FormatInt(r.Owed(), 10) + " (Change)"
	default:
		return "0 (Paid)"
	}
}
