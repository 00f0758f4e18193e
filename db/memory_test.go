package db

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateWalletDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	userID := uuid.New()

	first, err := store.CreateWallet(ctx, userID)
	require.NoError(t, err)
	require.True(t, first.Balance.IsZero())

	_, err = store.CreateWallet(ctx, userID)
	require.ErrorIs(t, err, ErrDuplicate)

	all, err := store.ListWallets(ctx, ListWalletsParams{})
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestMemoryStore_AdjustWalletBalance(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	w, err := store.CreateWallet(ctx, uuid.New())
	require.NoError(t, err)

	w, err = store.AdjustWalletBalance(ctx, AdjustWalletBalanceParams{ID: w.ID, Delta: decimal.RequireFromString("50.25")})
	require.NoError(t, err)
	require.Equal(t, "50.25", w.Balance.StringFixed(2))

	_, err = store.AdjustWalletBalance(ctx, AdjustWalletBalanceParams{ID: w.ID, Delta: decimal.RequireFromString("-50.26")})
	require.ErrorIs(t, err, ErrInsufficientBalance)

	w, err = store.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, "50.25", w.Balance.StringFixed(2))

	_, err = store.AdjustWalletBalance(ctx, AdjustWalletBalanceParams{ID: uuid.New(), Delta: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpdateTransactionStatusCAS(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	tx, err := store.CreateTransaction(ctx, CreateTransactionParams{
		BuyerID:       uuid.New(),
		SellerID:      uuid.New(),
		ItemID:        uuid.New(),
		OrderType:     "REAL",
		TitleSnapshot: "Used iPhone 12 128GB",
		PriceSnapshot: decimal.RequireFromString("350.00"),
		Status:        "PENDING",
	})
	require.NoError(t, err)

	updated, err := store.UpdateTransactionStatus(ctx, UpdateTransactionStatusParams{ID: tx.ID, FromStatus: "PENDING", Status: "PAID"})
	require.NoError(t, err)
	require.Equal(t, "PAID", updated.Status)

	_, err = store.UpdateTransactionStatus(ctx, UpdateTransactionStatusParams{ID: tx.ID, FromStatus: "PENDING", Status: "CANCELLED"})
	require.ErrorIs(t, err, ErrStatusConflict)

	_, err = store.UpdateTransactionStatus(ctx, UpdateTransactionStatusParams{ID: uuid.New(), FromStatus: "PENDING", Status: "PAID"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ExecTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	w, err := store.CreateWallet(ctx, uuid.New())
	require.NoError(t, err)
	_, err = store.AdjustWalletBalance(ctx, AdjustWalletBalanceParams{ID: w.ID, Delta: decimal.NewFromInt(100)})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.ExecTx(ctx, func(q Querier) error {
		if _, err := q.AdjustWalletBalance(ctx, AdjustWalletBalanceParams{ID: w.ID, Delta: decimal.NewFromInt(-40)}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	w, err = store.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, "100.00", w.Balance.StringFixed(2))
}

func TestMemoryStore_ConcurrentAdjustNeverNegative(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	w, err := store.CreateWallet(ctx, uuid.New())
	require.NoError(t, err)
	_, err = store.AdjustWalletBalance(ctx, AdjustWalletBalanceParams{ID: w.ID, Delta: decimal.NewFromInt(10)})
	require.NoError(t, err)

	// 50 goroutines each try to take 1; only 10 debits can land.
	var wg sync.WaitGroup
	var succeeded int64
	var mu sync.Mutex
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.AdjustWalletBalance(ctx, AdjustWalletBalanceParams{ID: w.ID, Delta: decimal.NewFromInt(-1)})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 10, succeeded)
	w, err = store.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	require.True(t, w.Balance.IsZero(), "balance ended at %s", w.Balance)
}

func TestMemoryStore_DeleteWalletReleasesUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	userID := uuid.New()

	w, err := store.CreateWallet(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, store.DeleteWallet(ctx, w.ID))

	_, err = store.GetWalletByUserID(ctx, userID)
	require.ErrorIs(t, err, ErrNotFound)

	// user can claim a fresh wallet after deletion
	_, err = store.CreateWallet(ctx, userID)
	require.NoError(t, err)
}
