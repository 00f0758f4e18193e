package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/flipzy/transactions-backend/db"
	"github.com/flipzy/transactions-backend/services/monitoring/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WalletService struct {
	store  db.Store
	logger *logging.Logger
}

func NewWalletService(store db.Store, logger *logging.Logger) *WalletService {
	return &WalletService{
		store:  store,
		logger: logger,
	}
}

// CreateWallet opens a zero-balance wallet for the user. The store
// enforces the one-wallet-per-user constraint atomically.
func (w *WalletService) CreateWallet(ctx context.Context, userID uuid.UUID) (*WalletModel, error) {
	dbWallet, err := w.store.CreateWallet(ctx, userID)
	if errors.Is(err, db.ErrDuplicate) {
		return nil, ErrDuplicateWallet
	} else if err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}

	w.logger.Info(fmt.Sprintf("Created wallet %v for user %v", dbWallet.ID, userID))
	return ToWalletModel(dbWallet), nil
}

func (w *WalletService) GetWallet(ctx context.Context, walletID uuid.UUID) (*WalletModel, error) {
	dbWallet, err := w.store.GetWallet(ctx, walletID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrWalletNotFound
	} else if err != nil {
		return nil, err
	}
	return ToWalletModel(dbWallet), nil
}

func (w *WalletService) GetWalletByUser(ctx context.Context, userID uuid.UUID) (*WalletModel, error) {
	dbWallet, err := w.store.GetWalletByUserID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrWalletNotFound
	} else if err != nil {
		return nil, err
	}
	return ToWalletModel(dbWallet), nil
}

func (w *WalletService) ListWallets(ctx context.Context, userID uuid.NullUUID) ([]*WalletModel, error) {
	dbWallets, err := w.store.ListWallets(ctx, db.ListWalletsParams{UserID: userID})
	if err != nil {
		return nil, err
	}
	return ToWalletCollectionResponse(dbWallets), nil
}

// Deposit adds funds to a wallet. Deposits are add-only; the amount
// must be strictly positive.
func (w *WalletService) Deposit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (*WalletModel, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	dbWallet, err := w.store.AdjustWalletBalance(ctx, db.AdjustWalletBalanceParams{
		ID:    walletID,
		Delta: amount,
	})
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrWalletNotFound
	} else if err != nil {
		return nil, fmt.Errorf("deposit: %w", err)
	}

	w.logger.Info(fmt.Sprintf("Deposited %v into wallet %v", amount.StringFixed(2), walletID))
	return ToWalletModel(dbWallet), nil
}

func (w *WalletService) DeleteWallet(ctx context.Context, walletID uuid.UUID) error {
	err := w.store.DeleteWallet(ctx, walletID)
	if errors.Is(err, db.ErrNotFound) {
		return ErrWalletNotFound
	} else if err != nil {
		return err
	}

	w.logger.Info(fmt.Sprintf("Deleted wallet %v", walletID))
	return nil
}
