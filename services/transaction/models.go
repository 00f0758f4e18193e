package transaction

import (
	"time"

	"github.com/flipzy/transactions-backend/db"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionModel struct {
	ID            uuid.UUID `json:"id"`
	BuyerID       uuid.UUID `json:"buyer_id"`
	SellerID      uuid.UUID `json:"seller_id"`
	ItemID        uuid.UUID `json:"item_id"`
	OrderType     OrderType `json:"order_type"`
	TitleSnapshot string    `json:"title_snapshot"`
	PriceSnapshot string    `json:"price_snapshot"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func ToTransactionModel(t db.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:            t.ID,
		BuyerID:       t.BuyerID,
		SellerID:      t.SellerID,
		ItemID:        t.ItemID,
		OrderType:     OrderType(t.OrderType),
		TitleSnapshot: t.TitleSnapshot,
		PriceSnapshot: t.PriceSnapshot.StringFixed(2),
		Status:        Status(t.Status),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func ToTransactionCollectionResponse(transactions []db.Transaction) []*TransactionModel {
	out := make([]*TransactionModel, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, ToTransactionModel(t))
	}
	return out
}

// CreateTransactionInput carries everything needed to open a
// transaction. Title and price may be supplied directly; when either is
// missing they are resolved through the catalog lookup and snapshotted.
type CreateTransactionInput struct {
	BuyerID       uuid.UUID
	SellerID      uuid.UUID
	ItemID        uuid.UUID
	OrderType     OrderType
	TitleSnapshot string
	PriceSnapshot decimal.Decimal
}

type ListTransactionsInput struct {
	BuyerID  uuid.NullUUID
	SellerID uuid.NullUUID
	Status   string
	Limit    int32
	Offset   int32
}
