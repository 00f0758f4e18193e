package models

import (
	"fmt"

	"github.com/flipzy/transactions-backend/services/operation"
	"github.com/flipzy/transactions-backend/services/transaction"
)

type CreateTransactionRequest struct {
	BuyerID       string `json:"buyer_id" binding:"required,uuid"`
	SellerID      string `json:"seller_id" binding:"required,uuid"`
	ItemID        string `json:"item_id" binding:"required,uuid"`
	OrderType     string `json:"order_type" binding:"required,oneof=REAL VIRTUAL"`
	TitleSnapshot string `json:"title_snapshot"`
	PriceSnapshot string `json:"price_snapshot" binding:"omitempty,money"`
}

type TransactionResponse struct {
	*transaction.TransactionModel
	Links map[string]string `json:"_links"`
}

func ToTransactionResponse(t *transaction.TransactionModel) *TransactionResponse {
	return &TransactionResponse{
		TransactionModel: t,
		Links: map[string]string{
			"self":   fmt.Sprintf("/api/v1/transactions/%s", t.ID),
			"buyer":  fmt.Sprintf("/api/v1/wallets?user_id=%s", t.BuyerID),
			"seller": fmt.Sprintf("/api/v1/wallets?user_id=%s", t.SellerID),
		},
	}
}

func ToTransactionCollectionResponse(transactions []*transaction.TransactionModel) []*TransactionResponse {
	out := make([]*TransactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, ToTransactionResponse(t))
	}
	return out
}

type OperationResponse struct {
	*operation.OperationModel
	Links map[string]string `json:"_links"`
}

func ToOperationResponse(op *operation.OperationModel) *OperationResponse {
	return &OperationResponse{
		OperationModel: op,
		Links: map[string]string{
			"self":        fmt.Sprintf("/api/v1/operations/%s", op.ID),
			"transaction": fmt.Sprintf("/api/v1/transactions/%s", op.TransactionID),
		},
	}
}
