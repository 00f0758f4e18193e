package api

import (
	"errors"
	"net/http"

	"github.com/flipzy/transactions-backend/api/apistrings"
	models "github.com/flipzy/transactions-backend/api/models"
	basemodels "github.com/flipzy/transactions-backend/models"
	"github.com/flipzy/transactions-backend/services/operation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Operation struct {
	server           *Server
	operationService *operation.OperationService
}

func (o Operation) router(server *Server) {
	o.server = server
	o.operationService = operation.NewOperationService(server.store, server.logger)

	serverGroupV1 := server.router.Group("/api/v1/operations")
	serverGroupV1.GET(":id", o.getOperation)
}

func (o *Operation) getOperation(ctx *gin.Context) {
	operationID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, basemodels.NewError(apistrings.InvalidOperationID))
		return
	}

	found, err := o.operationService.GetOperation(ctx, operationID)
	if errors.Is(err, operation.ErrOperationNotFound) {
		ctx.JSON(http.StatusNotFound, basemodels.NewError(apistrings.OperationNotFound))
		return
	} else if err != nil {
		ctx.JSON(http.StatusInternalServerError, basemodels.NewError(apistrings.ServerError))
		return
	}

	response := models.ToOperationResponse(found)
	if writeConditional(ctx, response) {
		return
	}
	ctx.JSON(http.StatusOK, basemodels.NewSuccess("Operation Fetched Successfully", response))
}
