package models

import (
	"fmt"

	"github.com/flipzy/transactions-backend/services/wallet"
)

type CreateWalletRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

type DepositRequest struct {
	Amount string `json:"amount" binding:"required,money"`
}

type WalletResponse struct {
	*wallet.WalletModel
	Links map[string]string `json:"_links"`
}

func ToWalletResponse(w *wallet.WalletModel) *WalletResponse {
	return &WalletResponse{
		WalletModel: w,
		Links: map[string]string{
			"self": fmt.Sprintf("/api/v1/wallets/%s", w.ID),
		},
	}
}

func ToWalletCollectionResponse(wallets []*wallet.WalletModel) []*WalletResponse {
	out := make([]*WalletResponse, 0, len(wallets))
	for _, w := range wallets {
		out = append(out, ToWalletResponse(w))
	}
	return out
}
