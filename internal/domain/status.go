package domain

type Status string

const (
	StatusPending   Status = "Pending"
	StatusPaid      Status = "Paid"
	StatusShipped   Status = "Shipped"
	StatusCancelled Status = "Cancelled"
	StatusReturned  Status = "Returned"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusPaid: true, StatusCancelled: true},
	StatusPaid:      {StatusShipped: true, StatusCancelled: true},
	StatusShipped:   {},
	StatusCancelled: {},
	StatusReturned:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

func (s Status) Terminal() bool {
	return s.Valid() && len(validNext[s]) == 0
}

// CartMutable is true only for the active (pending) order.
func (s Status) CartMutable() bool {
	return s == StatusPending
}

// HoldsStock is true once checkout has decremented inventory for the order
// and nothing has released it yet.
func (s Status) HoldsStock() bool {
	return s == StatusPaid || s == StatusShipped
}
