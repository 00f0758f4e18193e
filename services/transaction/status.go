package transaction

// Status is the lifecycle state of a transaction. The graph only moves
// forward; FAILED, CANCELLED and REFUNDED are terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusFulfilled Status = "FULFILLED"
	StatusRefunded  Status = "REFUNDED"
)

// OrderType distinguishes instant from deferred settlement. VIRTUAL
// items settle inside the creation request; REAL items wait for an
// explicit checkout.
type OrderType string

const (
	OrderTypeReal    OrderType = "REAL"
	OrderTypeVirtual OrderType = "VIRTUAL"
)

var legalTransitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusFailed, StatusCancelled},
	StatusPaid:      {StatusFulfilled, StatusRefunded},
	StatusFulfilled: {StatusRefunded},
}

// CanTransition reports whether moving from one status to another is
// legal under the lifecycle graph.
func CanTransition(from, to Status) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusPaid, StatusFailed, StatusCancelled, StatusFulfilled, StatusRefunded:
		return true
	}
	return false
}

func ValidOrderType(s string) bool {
	switch OrderType(s) {
	case OrderTypeReal, OrderTypeVirtual:
		return true
	}
	return false
}
