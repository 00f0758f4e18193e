package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// runner is satisfied by both *sql.DB and *sql.Tx so every query method
// works inside and outside ExecTx.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore is the postgres-backed Store. Schema lives in db/migrations
// and is applied on startup by golang-migrate.
type SQLStore struct {
	DB *sql.DB
	r  runner
}

func NewSQLStore(database *sql.DB) *SQLStore {
	return &SQLStore{DB: database, r: database}
}

// ExecTx runs fn inside a serializable transaction; serializable keeps
// two settlements from both reading the same sufficient-funds snapshot.
func (s *SQLStore) ExecTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}

	if err := fn(&SQLStore{DB: s.DB, r: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("encountered rollback error: %v", rbErr)
		}
		return err
	}

	return tx.Commit()
}

const walletColumns = "id, user_id, balance, created_at, updated_at"

func scanWallet(row *sql.Row) (Wallet, error) {
	var w Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return Wallet{}, ErrNotFound
	} else if err != nil {
		return Wallet{}, err
	}
	return w, nil
}

func (s *SQLStore) CreateWallet(ctx context.Context, userID uuid.UUID) (Wallet, error) {
	row := s.r.QueryRowContext(ctx,
		"INSERT INTO wallets (id, user_id, balance) VALUES ($1, $2, 0) RETURNING "+walletColumns,
		uuid.New(), userID,
	)
	w, err := scanWallet(row)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == DuplicateEntry {
		return Wallet{}, ErrDuplicate
	}
	return w, err
}

func (s *SQLStore) GetWallet(ctx context.Context, id uuid.UUID) (Wallet, error) {
	return scanWallet(s.r.QueryRowContext(ctx,
		"SELECT "+walletColumns+" FROM wallets WHERE id = $1", id))
}

func (s *SQLStore) GetWalletByUserID(ctx context.Context, userID uuid.UUID) (Wallet, error) {
	return scanWallet(s.r.QueryRowContext(ctx,
		"SELECT "+walletColumns+" FROM wallets WHERE user_id = $1", userID))
}

func (s *SQLStore) ListWallets(ctx context.Context, arg ListWalletsParams) ([]Wallet, error) {
	rows, err := s.r.QueryContext(ctx,
		"SELECT "+walletColumns+" FROM wallets WHERE ($1::uuid IS NULL OR user_id = $1) ORDER BY created_at, id",
		arg.UserID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Wallet{}
	for rows.Next() {
		var w Wallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *SQLStore) AdjustWalletBalance(ctx context.Context, arg AdjustWalletBalanceParams) (Wallet, error) {
	row := s.r.QueryRowContext(ctx,
		"UPDATE wallets SET balance = balance + $2, updated_at = now() WHERE id = $1 AND balance + $2 >= 0 RETURNING "+walletColumns,
		arg.ID, arg.Delta,
	)
	w, err := scanWallet(row)
	if errors.Is(err, ErrNotFound) {
		// No row matched: missing wallet and failed balance guard look
		// the same, so tell them apart here.
		var exists bool
		probe := s.r.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM wallets WHERE id = $1)", arg.ID)
		if scanErr := probe.Scan(&exists); scanErr != nil {
			return Wallet{}, scanErr
		}
		if exists {
			return Wallet{}, ErrInsufficientBalance
		}
		return Wallet{}, ErrNotFound
	}
	return w, err
}

func (s *SQLStore) DeleteWallet(ctx context.Context, id uuid.UUID) error {
	res, err := s.r.ExecContext(ctx, "DELETE FROM wallets WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const transactionColumns = "id, buyer_id, seller_id, item_id, order_type, title_snapshot, price_snapshot, status, created_at, updated_at"

func scanTransaction(row *sql.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.BuyerID, &t.SellerID, &t.ItemID, &t.OrderType,
		&t.TitleSnapshot, &t.PriceSnapshot, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return Transaction{}, ErrNotFound
	} else if err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (s *SQLStore) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	return scanTransaction(s.r.QueryRowContext(ctx,
		`INSERT INTO transactions (id, buyer_id, seller_id, item_id, order_type, title_snapshot, price_snapshot, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING `+transactionColumns,
		uuid.New(), arg.BuyerID, arg.SellerID, arg.ItemID, arg.OrderType,
		arg.TitleSnapshot, arg.PriceSnapshot, arg.Status,
	))
}

func (s *SQLStore) GetTransaction(ctx context.Context, id uuid.UUID) (Transaction, error) {
	return scanTransaction(s.r.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = $1", id))
}

func (s *SQLStore) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	rows, err := s.r.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE ($1::uuid IS NULL OR buyer_id = $1)
		   AND ($2::uuid IS NULL OR seller_id = $2)
		   AND ($3::text = '' OR status = $3)
		 ORDER BY created_at, id
		 LIMIT NULLIF($4::int, 0) OFFSET $5`,
		arg.BuyerID, arg.SellerID, arg.Status, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Transaction{}
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.BuyerID, &t.SellerID, &t.ItemID, &t.OrderType,
			&t.TitleSnapshot, &t.PriceSnapshot, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateTransactionStatus(ctx context.Context, arg UpdateTransactionStatusParams) (Transaction, error) {
	row := s.r.QueryRowContext(ctx,
		"UPDATE transactions SET status = $2, updated_at = now() WHERE id = $1 AND status = $3 RETURNING "+transactionColumns,
		arg.ID, arg.Status, arg.FromStatus,
	)
	t, err := scanTransaction(row)
	if errors.Is(err, ErrNotFound) {
		var exists bool
		probe := s.r.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM transactions WHERE id = $1)", arg.ID)
		if scanErr := probe.Scan(&exists); scanErr != nil {
			return Transaction{}, scanErr
		}
		if exists {
			return Transaction{}, ErrStatusConflict
		}
		return Transaction{}, ErrNotFound
	}
	return t, err
}

const operationColumns = "id, transaction_id, status, error, created_at, updated_at"

func scanOperation(row *sql.Row) (Operation, error) {
	var op Operation
	err := row.Scan(&op.ID, &op.TransactionID, &op.Status, &op.Error, &op.CreatedAt, &op.UpdatedAt)
	if err == sql.ErrNoRows {
		return Operation{}, ErrNotFound
	} else if err != nil {
		return Operation{}, err
	}
	return op, nil
}

func (s *SQLStore) CreateOperation(ctx context.Context, arg CreateOperationParams) (Operation, error) {
	return scanOperation(s.r.QueryRowContext(ctx,
		"INSERT INTO operations (id, transaction_id, status) VALUES ($1, $2, $3) RETURNING "+operationColumns,
		uuid.New(), arg.TransactionID, arg.Status,
	))
}

func (s *SQLStore) GetOperation(ctx context.Context, id uuid.UUID) (Operation, error) {
	return scanOperation(s.r.QueryRowContext(ctx,
		"SELECT "+operationColumns+" FROM operations WHERE id = $1", id))
}

func (s *SQLStore) UpdateOperationStatus(ctx context.Context, arg UpdateOperationStatusParams) (Operation, error) {
	return scanOperation(s.r.QueryRowContext(ctx,
		"UPDATE operations SET status = $2, error = $3, updated_at = now() WHERE id = $1 RETURNING "+operationColumns,
		arg.ID, arg.Status, arg.Error,
	))
}
