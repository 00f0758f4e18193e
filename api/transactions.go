package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/flipzy/transactions-backend/api/apistrings"
	models "github.com/flipzy/transactions-backend/api/models"
	basemodels "github.com/flipzy/transactions-backend/models"
	"github.com/flipzy/transactions-backend/services/catalog"
	"github.com/flipzy/transactions-backend/services/operation"
	"github.com/flipzy/transactions-backend/services/transaction"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Transaction struct {
	server             *Server
	transactionService *transaction.TransactionService
}

func (t Transaction) router(server *Server) {
	t.server = server
	t.transactionService = transaction.NewTransactionService(
		server.store,
		server.catalog,
		server.publisher,
		operation.NewOperationService(server.store, server.logger),
		server.scheduler,
		server.settlementDelay(),
		server.logger,
	)

	serverGroupV1 := server.router.Group("/api/v1/transactions")
	serverGroupV1.POST("", t.createTransaction)
	serverGroupV1.GET("", t.listTransactions)
	serverGroupV1.GET(":id", t.getTransaction)
	serverGroupV1.POST(":id/checkout", t.checkout)
	serverGroupV1.POST(":id/cancel", t.cancel)
	serverGroupV1.POST(":id/fulfill", t.fulfill)
	serverGroupV1.POST(":id/refund", t.refund)
}

func (t *Transaction) createTransaction(ctx *gin.Context) {
	request := models.CreateTransactionRequest{}
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidTransactionInput))
		return
	}

	input := transaction.CreateTransactionInput{
		BuyerID:       uuid.MustParse(request.BuyerID),
		SellerID:      uuid.MustParse(request.SellerID),
		ItemID:        uuid.MustParse(request.ItemID),
		OrderType:     transaction.OrderType(request.OrderType),
		TitleSnapshot: request.TitleSnapshot,
	}
	if request.PriceSnapshot != "" {
		input.PriceSnapshot = decimal.RequireFromString(request.PriceSnapshot)
	}

	created, err := t.transactionService.CreateTransaction(ctx, input)
	if err != nil {
		t.writeServiceError(ctx, err)
		return
	}

	ctx.Header("Location", fmt.Sprintf("/api/v1/transactions/%s", created.ID))
	ctx.JSON(http.StatusCreated, basemodels.NewSuccess("Transaction Created Successfully", models.ToTransactionResponse(created)))
}

func (t *Transaction) listTransactions(ctx *gin.Context) {
	input := transaction.ListTransactionsInput{
		Status: ctx.Query("status"),
	}
	if input.Status != "" && !transaction.ValidStatus(input.Status) {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidTransactionInput))
		return
	}

	for query, target := range map[string]*uuid.NullUUID{
		"buyer_id":  &input.BuyerID,
		"seller_id": &input.SellerID,
	} {
		if raw := ctx.Query(query); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidTransactionInput))
				return
			}
			*target = uuid.NullUUID{UUID: id, Valid: true}
		}
	}

	if raw := ctx.Query("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || limit < 0 {
			ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidTransactionInput))
			return
		}
		input.Limit = int32(limit)
	}
	if raw := ctx.Query("offset"); raw != "" {
		offset, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || offset < 0 {
			ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidTransactionInput))
			return
		}
		input.Offset = int32(offset)
	}

	transactions, err := t.transactionService.ListTransactions(ctx, input)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, basemodels.NewError(apistrings.ServerError))
		return
	}

	ctx.JSON(http.StatusOK, basemodels.NewSuccess("Transactions Fetched Successfully", models.ToTransactionCollectionResponse(transactions)))
}

func (t *Transaction) getTransaction(ctx *gin.Context) {
	transactionID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidTransactionID))
		return
	}

	found, err := t.transactionService.GetTransaction(ctx, transactionID)
	if err != nil {
		t.writeServiceError(ctx, err)
		return
	}

	response := models.ToTransactionResponse(found)
	if writeConditional(ctx, response) {
		return
	}
	ctx.JSON(http.StatusOK, basemodels.NewSuccess("Transaction Fetched Successfully", response))
}

// checkout acknowledges with 202 and an operation to poll; the
// settlement itself runs in the background.
func (t *Transaction) checkout(ctx *gin.Context) {
	transactionID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidTransactionID))
		return
	}

	op, err := t.transactionService.Checkout(ctx, transactionID)
	if err != nil {
		t.writeServiceError(ctx, err)
		return
	}

	ctx.Header("Location", fmt.Sprintf("/api/v1/operations/%s", op.ID))
	ctx.JSON(http.StatusAccepted, basemodels.NewSuccess("Checkout Accepted", models.ToOperationResponse(op)))
}

func (t *Transaction) cancel(ctx *gin.Context) {
	t.applyTransition(ctx, t.transactionService.Cancel, "Transaction Cancelled Successfully")
}

func (t *Transaction) fulfill(ctx *gin.Context) {
	t.applyTransition(ctx, t.transactionService.Fulfill, "Transaction Fulfilled Successfully")
}

func (t *Transaction) refund(ctx *gin.Context) {
	t.applyTransition(ctx, t.transactionService.Refund, "Transaction Refunded Successfully")
}

func (t *Transaction) applyTransition(
	ctx *gin.Context,
	action func(ctx context.Context, id uuid.UUID) (*transaction.TransactionModel, error),
	message string,
) {
	transactionID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidTransactionID))
		return
	}

	updated, err := action(ctx, transactionID)
	if err != nil {
		t.writeServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, basemodels.NewSuccess(message, models.ToTransactionResponse(updated)))
}

func (t *Transaction) writeServiceError(ctx *gin.Context, err error) {
	var illegal *transaction.IllegalTransitionError

	switch {
	case errors.Is(err, transaction.ErrTransactionNotFound):
		ctx.JSON(http.StatusNotFound, basemodels.NewError(apistrings.TransactionNotFound))
	case errors.Is(err, transaction.ErrSameParty):
		ctx.JSON(http.StatusConflict, basemodels.NewError(apistrings.SameParty))
	case errors.Is(err, transaction.ErrWalletMissing):
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.PartyWalletMissing))
	case errors.Is(err, transaction.ErrInvalidPrice), errors.Is(err, transaction.ErrInvalidOrderType):
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidTransactionInput))
	case errors.Is(err, transaction.ErrNotDeferred):
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.CheckoutNotDeferred))
	case errors.Is(err, transaction.ErrInsufficientFunds):
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InsufficientFunds))
	case errors.As(err, &illegal):
		ctx.JSON(http.StatusConflict, basemodels.NewError(illegal.Error()))
	case errors.Is(err, catalog.ErrListingNotFound):
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.ItemNotFound))
	case errors.Is(err, catalog.ErrInvalidListingData):
		ctx.JSON(http.StatusBadGateway, basemodels.NewError(apistrings.InvalidListingData))
	default:
		t.server.logger.Error("Transaction request failed", err)
		ctx.JSON(http.StatusInternalServerError, basemodels.NewError(apistrings.ServerError))
	}
}
