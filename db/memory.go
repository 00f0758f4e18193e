package db

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore keeps every entity in process memory behind a single
// mutex. Each Querier call is atomic on its own; ExecTx holds the mutex
// for the whole callback so cross-record sequences (settlement, refund)
// can never interleave with other mutations.
type MemoryStore struct {
	mu sync.Mutex
	q  memQuerier
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		q: memQuerier{
			wallets:      make(map[uuid.UUID]Wallet),
			walletByUser: make(map[uuid.UUID]uuid.UUID),
			transactions: make(map[uuid.UUID]Transaction),
			operations:   make(map[uuid.UUID]Operation),
		},
	}
}

// ExecTx runs fn while holding the store mutex. If fn returns an error
// every map is restored from the snapshot taken on entry, so a callback
// that fails halfway leaves no partial writes behind.
func (s *MemoryStore) ExecTx(ctx context.Context, fn func(q Querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := memQuerier{
		wallets:      maps.Clone(s.q.wallets),
		walletByUser: maps.Clone(s.q.walletByUser),
		transactions: maps.Clone(s.q.transactions),
		operations:   maps.Clone(s.q.operations),
	}

	if err := fn(&s.q); err != nil {
		s.q = snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) CreateWallet(ctx context.Context, userID uuid.UUID) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.CreateWallet(ctx, userID)
}

func (s *MemoryStore) GetWallet(ctx context.Context, id uuid.UUID) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.GetWallet(ctx, id)
}

func (s *MemoryStore) GetWalletByUserID(ctx context.Context, userID uuid.UUID) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.GetWalletByUserID(ctx, userID)
}

func (s *MemoryStore) ListWallets(ctx context.Context, arg ListWalletsParams) ([]Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.ListWallets(ctx, arg)
}

func (s *MemoryStore) AdjustWalletBalance(ctx context.Context, arg AdjustWalletBalanceParams) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.AdjustWalletBalance(ctx, arg)
}

func (s *MemoryStore) DeleteWallet(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.DeleteWallet(ctx, id)
}

func (s *MemoryStore) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.CreateTransaction(ctx, arg)
}

func (s *MemoryStore) GetTransaction(ctx context.Context, id uuid.UUID) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.GetTransaction(ctx, id)
}

func (s *MemoryStore) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.ListTransactions(ctx, arg)
}

func (s *MemoryStore) UpdateTransactionStatus(ctx context.Context, arg UpdateTransactionStatusParams) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.UpdateTransactionStatus(ctx, arg)
}

func (s *MemoryStore) CreateOperation(ctx context.Context, arg CreateOperationParams) (Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.CreateOperation(ctx, arg)
}

func (s *MemoryStore) GetOperation(ctx context.Context, id uuid.UUID) (Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.GetOperation(ctx, id)
}

func (s *MemoryStore) UpdateOperationStatus(ctx context.Context, arg UpdateOperationStatusParams) (Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.UpdateOperationStatus(ctx, arg)
}

// memQuerier holds the maps and assumes the caller already serialized
// access. It is handed directly to ExecTx callbacks.
type memQuerier struct {
	wallets      map[uuid.UUID]Wallet
	walletByUser map[uuid.UUID]uuid.UUID
	transactions map[uuid.UUID]Transaction
	operations   map[uuid.UUID]Operation
}

func (q *memQuerier) CreateWallet(ctx context.Context, userID uuid.UUID) (Wallet, error) {
	if _, exists := q.walletByUser[userID]; exists {
		return Wallet{}, ErrDuplicate
	}
	now := time.Now().UTC()
	w := Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	q.wallets[w.ID] = w
	q.walletByUser[userID] = w.ID
	return w, nil
}

func (q *memQuerier) GetWallet(ctx context.Context, id uuid.UUID) (Wallet, error) {
	w, ok := q.wallets[id]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return w, nil
}

func (q *memQuerier) GetWalletByUserID(ctx context.Context, userID uuid.UUID) (Wallet, error) {
	id, ok := q.walletByUser[userID]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return q.wallets[id], nil
}

func (q *memQuerier) ListWallets(ctx context.Context, arg ListWalletsParams) ([]Wallet, error) {
	out := make([]Wallet, 0, len(q.wallets))
	for _, w := range q.wallets {
		if arg.UserID.Valid && w.UserID != arg.UserID.UUID {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (q *memQuerier) AdjustWalletBalance(ctx context.Context, arg AdjustWalletBalanceParams) (Wallet, error) {
	w, ok := q.wallets[arg.ID]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	next := w.Balance.Add(arg.Delta)
	if next.IsNegative() {
		return Wallet{}, ErrInsufficientBalance
	}
	w.Balance = next
	w.UpdatedAt = time.Now().UTC()
	q.wallets[arg.ID] = w
	return w, nil
}

func (q *memQuerier) DeleteWallet(ctx context.Context, id uuid.UUID) error {
	w, ok := q.wallets[id]
	if !ok {
		return ErrNotFound
	}
	delete(q.wallets, id)
	delete(q.walletByUser, w.UserID)
	return nil
}

func (q *memQuerier) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	now := time.Now().UTC()
	t := Transaction{
		ID:            uuid.New(),
		BuyerID:       arg.BuyerID,
		SellerID:      arg.SellerID,
		ItemID:        arg.ItemID,
		OrderType:     arg.OrderType,
		TitleSnapshot: arg.TitleSnapshot,
		PriceSnapshot: arg.PriceSnapshot,
		Status:        arg.Status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	q.transactions[t.ID] = t
	return t, nil
}

func (q *memQuerier) GetTransaction(ctx context.Context, id uuid.UUID) (Transaction, error) {
	t, ok := q.transactions[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return t, nil
}

func (q *memQuerier) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	out := make([]Transaction, 0, len(q.transactions))
	for _, t := range q.transactions {
		if arg.BuyerID.Valid && t.BuyerID != arg.BuyerID.UUID {
			continue
		}
		if arg.SellerID.Valid && t.SellerID != arg.SellerID.UUID {
			continue
		}
		if arg.Status != "" && t.Status != arg.Status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if arg.Offset > 0 {
		if int(arg.Offset) >= len(out) {
			return []Transaction{}, nil
		}
		out = out[arg.Offset:]
	}
	if arg.Limit > 0 && int(arg.Limit) < len(out) {
		out = out[:arg.Limit]
	}
	return out, nil
}

func (q *memQuerier) UpdateTransactionStatus(ctx context.Context, arg UpdateTransactionStatusParams) (Transaction, error) {
	t, ok := q.transactions[arg.ID]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	if t.Status != arg.FromStatus {
		return Transaction{}, ErrStatusConflict
	}
	t.Status = arg.Status
	t.UpdatedAt = time.Now().UTC()
	q.transactions[arg.ID] = t
	return t, nil
}

func (q *memQuerier) CreateOperation(ctx context.Context, arg CreateOperationParams) (Operation, error) {
	now := time.Now().UTC()
	op := Operation{
		ID:            uuid.New(),
		TransactionID: arg.TransactionID,
		Status:        arg.Status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	q.operations[op.ID] = op
	return op, nil
}

func (q *memQuerier) GetOperation(ctx context.Context, id uuid.UUID) (Operation, error) {
	op, ok := q.operations[id]
	if !ok {
		return Operation{}, ErrNotFound
	}
	return op, nil
}

func (q *memQuerier) UpdateOperationStatus(ctx context.Context, arg UpdateOperationStatusParams) (Operation, error) {
	op, ok := q.operations[arg.ID]
	if !ok {
		return Operation{}, ErrNotFound
	}
	op.Status = arg.Status
	op.Error = arg.Error
	op.UpdatedAt = time.Now().UTC()
	q.operations[arg.ID] = op
	return op, nil
}
