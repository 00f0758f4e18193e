package wallet

import (
	"time"

	"github.com/flipzy/transactions-backend/db"
	"github.com/google/uuid"
)

type WalletModel struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToWalletModel(wallet db.Wallet) *WalletModel {
	return &WalletModel{
		ID:        wallet.ID,
		UserID:    wallet.UserID,
		Balance:   wallet.Balance.StringFixed(2),
		CreatedAt: wallet.CreatedAt,
		UpdatedAt: wallet.UpdatedAt,
	}
}

func ToWalletCollectionResponse(wallets []db.Wallet) []*WalletModel {
	out := make([]*WalletModel, 0, len(wallets))
	for _, w := range wallets {
		out = append(out, ToWalletModel(w))
	}
	return out
}
