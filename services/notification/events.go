package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TransactionCompletedEvent is published after a settlement commits.
// Publishing is best-effort: a failed publish never rolls the
// settlement back.
type TransactionCompletedEvent struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	BuyerID       uuid.UUID `json:"buyer_id"`
	SellerID      uuid.UUID `json:"seller_id"`
	ItemID        uuid.UUID `json:"item_id"`
	OrderType     string    `json:"order_type"`
	PriceSnapshot string    `json:"price_snapshot"`
	Status        string    `json:"status"`
	CompletedAt   time.Time `json:"completed_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event TransactionCompletedEvent) error
}
