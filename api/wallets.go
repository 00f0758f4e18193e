package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/flipzy/transactions-backend/api/apistrings"
	models "github.com/flipzy/transactions-backend/api/models"
	basemodels "github.com/flipzy/transactions-backend/models"
	"github.com/flipzy/transactions-backend/services/wallet"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Wallet struct {
	server        *Server
	walletService *wallet.WalletService
}

func (w Wallet) router(server *Server) {
	w.server = server
	w.walletService = wallet.NewWalletService(server.store, server.logger)

	serverGroupV1 := server.router.Group("/api/v1/wallets")
	serverGroupV1.POST("", w.createWallet)
	serverGroupV1.GET("", w.listWallets)
	serverGroupV1.GET(":id", w.getWallet)
	serverGroupV1.POST(":id/deposit", w.deposit)
	serverGroupV1.DELETE(":id", w.deleteWallet)
}

func (w *Wallet) createWallet(ctx *gin.Context) {
	request := models.CreateWalletRequest{}
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidWalletInput))
		return
	}

	userID := uuid.MustParse(request.UserID)
	created, err := w.walletService.CreateWallet(ctx, userID)
	if errors.Is(err, wallet.ErrDuplicateWallet) {
		ctx.JSON(http.StatusConflict, basemodels.NewError(apistrings.DuplicateWallet))
		return
	} else if err != nil {
		w.server.logger.Error("Create wallet failed", err)
		ctx.JSON(http.StatusInternalServerError, basemodels.NewError(apistrings.ServerError))
		return
	}

	ctx.Header("Location", fmt.Sprintf("/api/v1/wallets/%s", created.ID))
	ctx.JSON(http.StatusCreated, basemodels.NewSuccess("User Wallet Created Successfully", models.ToWalletResponse(created)))
}

func (w *Wallet) listWallets(ctx *gin.Context) {
	var filter uuid.NullUUID
	if raw := ctx.Query("user_id"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidWalletInput))
			return
		}
		filter = uuid.NullUUID{UUID: userID, Valid: true}
	}

	wallets, err := w.walletService.ListWallets(ctx, filter)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, basemodels.NewError(apistrings.ServerError))
		return
	}

	ctx.JSON(http.StatusOK, basemodels.NewSuccess("User Wallets Fetched Successfully", models.ToWalletCollectionResponse(wallets)))
}

func (w *Wallet) getWallet(ctx *gin.Context) {
	walletID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidWalletID))
		return
	}

	found, err := w.walletService.GetWallet(ctx, walletID)
	if errors.Is(err, wallet.ErrWalletNotFound) {
		ctx.JSON(http.StatusNotFound, basemodels.NewError(apistrings.WalletNotFound))
		return
	} else if err != nil {
		ctx.JSON(http.StatusInternalServerError, basemodels.NewError(apistrings.ServerError))
		return
	}

	response := models.ToWalletResponse(found)
	if writeConditional(ctx, response) {
		return
	}
	ctx.JSON(http.StatusOK, basemodels.NewSuccess("User Wallet Fetched Successfully", response))
}

func (w *Wallet) deposit(ctx *gin.Context) {
	walletID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidWalletID))
		return
	}

	request := models.DepositRequest{}
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidDepositInput))
		return
	}

	updated, err := w.walletService.Deposit(ctx, walletID, decimal.RequireFromString(request.Amount))
	if errors.Is(err, wallet.ErrWalletNotFound) {
		ctx.JSON(http.StatusNotFound, basemodels.NewError(apistrings.WalletNotFound))
		return
	} else if errors.Is(err, wallet.ErrInvalidAmount) {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidDepositInput))
		return
	} else if err != nil {
		w.server.logger.Error("Deposit failed", err)
		ctx.JSON(http.StatusInternalServerError, basemodels.NewError(apistrings.ServerError))
		return
	}

	ctx.JSON(http.StatusOK, basemodels.NewSuccess("Deposit Completed Successfully", models.ToWalletResponse(updated)))
}

func (w *Wallet) deleteWallet(ctx *gin.Context) {
	walletID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidWalletID))
		return
	}

	err = w.walletService.DeleteWallet(ctx, walletID)
	if errors.Is(err, wallet.ErrWalletNotFound) {
		ctx.JSON(http.StatusNotFound, basemodels.NewError(apistrings.WalletNotFound))
		return
	} else if err != nil {
		ctx.JSON(http.StatusInternalServerError, basemodels.NewError(apistrings.ServerError))
		return
	}

	ctx.Status(http.StatusNoContent)
}
