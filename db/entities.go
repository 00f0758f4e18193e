package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is the stored form of a user's spendable balance.
// user_id carries a uniqueness constraint: one wallet per user.
type Wallet struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Transaction is a one-shot purchase between two users. Title and price
// are snapshotted at creation time and never re-read from the catalog.
type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	BuyerID       uuid.UUID       `json:"buyer_id"`
	SellerID      uuid.UUID       `json:"seller_id"`
	ItemID        uuid.UUID       `json:"item_id"`
	OrderType     string          `json:"order_type"`
	TitleSnapshot string          `json:"title_snapshot"`
	PriceSnapshot decimal.Decimal `json:"price_snapshot"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Operation records one asynchronous settlement attempt. Rows are
// append-only; a retry creates a new operation.
type Operation struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
