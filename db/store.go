package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ListWalletsParams struct {
	UserID uuid.NullUUID
}

type AdjustWalletBalanceParams struct {
	ID    uuid.UUID
	Delta decimal.Decimal
}

type CreateTransactionParams struct {
	BuyerID       uuid.UUID
	SellerID      uuid.UUID
	ItemID        uuid.UUID
	OrderType     string
	TitleSnapshot string
	PriceSnapshot decimal.Decimal
	Status        string
}

type ListTransactionsParams struct {
	BuyerID  uuid.NullUUID
	SellerID uuid.NullUUID
	Status   string
	Limit    int32
	Offset   int32
}

type UpdateTransactionStatusParams struct {
	ID         uuid.UUID
	FromStatus string
	Status     string
}

type CreateOperationParams struct {
	TransactionID uuid.UUID
	Status        string
}

type UpdateOperationStatusParams struct {
	ID     uuid.UUID
	Status string
	Error  string
}

// Querier is the query surface shared by both stores and by the
// transactional view handed to ExecTx callbacks.
type Querier interface {
	CreateWallet(ctx context.Context, userID uuid.UUID) (Wallet, error)
	GetWallet(ctx context.Context, id uuid.UUID) (Wallet, error)
	GetWalletByUserID(ctx context.Context, userID uuid.UUID) (Wallet, error)
	ListWallets(ctx context.Context, arg ListWalletsParams) ([]Wallet, error)
	// AdjustWalletBalance applies a positive or negative delta. The
	// balance check and the write are a single atomic step; a delta that
	// would leave the balance negative fails with ErrInsufficientBalance.
	AdjustWalletBalance(ctx context.Context, arg AdjustWalletBalanceParams) (Wallet, error)
	DeleteWallet(ctx context.Context, id uuid.UUID) error

	CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (Transaction, error)
	ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error)
	// UpdateTransactionStatus is a compare-and-swap: the write only
	// happens while the row still holds FromStatus, otherwise
	// ErrStatusConflict.
	UpdateTransactionStatus(ctx context.Context, arg UpdateTransactionStatusParams) (Transaction, error)

	CreateOperation(ctx context.Context, arg CreateOperationParams) (Operation, error)
	GetOperation(ctx context.Context, id uuid.UUID) (Operation, error)
	UpdateOperationStatus(ctx context.Context, arg UpdateOperationStatusParams) (Operation, error)
}

// Store adds the atomic section primitive on top of Querier. Everything
// the settlement engine does between a balance check and the matching
// writes runs inside ExecTx.
type Store interface {
	Querier
	ExecTx(ctx context.Context, fn func(q Querier) error) error
}
