package operation

import (
	"context"
	"errors"
	"fmt"

	"github.com/flipzy/transactions-backend/db"
	"github.com/flipzy/transactions-backend/services/monitoring/logging"
	"github.com/google/uuid"
)

// OperationService tracks asynchronous settlement attempts. Records are
// append-only history: a failed attempt is never retried in place, a
// new operation is created instead.
type OperationService struct {
	store  db.Store
	logger *logging.Logger
}

func NewOperationService(store db.Store, logger *logging.Logger) *OperationService {
	return &OperationService{
		store:  store,
		logger: logger,
	}
}

func (o *OperationService) CreateOperation(ctx context.Context, transactionID uuid.UUID) (*OperationModel, error) {
	op, err := o.store.CreateOperation(ctx, db.CreateOperationParams{
		TransactionID: transactionID,
		Status:        string(StatusPending),
	})
	if err != nil {
		return nil, fmt.Errorf("create operation: %w", err)
	}
	return ToOperationModel(op), nil
}

func (o *OperationService) GetOperation(ctx context.Context, operationID uuid.UUID) (*OperationModel, error) {
	op, err := o.store.GetOperation(ctx, operationID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrOperationNotFound
	} else if err != nil {
		return nil, err
	}
	return ToOperationModel(op), nil
}

// MarkRunning brackets the start of a settlement attempt.
func (o *OperationService) MarkRunning(ctx context.Context, operationID uuid.UUID) error {
	return o.setStatus(ctx, operationID, StatusRunning, "")
}

func (o *OperationService) MarkCompleted(ctx context.Context, operationID uuid.UUID) error {
	return o.setStatus(ctx, operationID, StatusCompleted, "")
}

// MarkFailed records why the attempt failed; the triggering caller has
// long since received its acknowledgment and must poll for this.
func (o *OperationService) MarkFailed(ctx context.Context, operationID uuid.UUID, reason string) error {
	return o.setStatus(ctx, operationID, StatusFailed, reason)
}

func (o *OperationService) setStatus(ctx context.Context, operationID uuid.UUID, status Status, reason string) error {
	_, err := o.store.UpdateOperationStatus(ctx, db.UpdateOperationStatusParams{
		ID:     operationID,
		Status: string(status),
		Error:  reason,
	})
	if errors.Is(err, db.ErrNotFound) {
		return ErrOperationNotFound
	} else if err != nil {
		return err
	}

	o.logger.Info(fmt.Sprintf("Operation %v moved to %v", operationID, status))
	return nil
}
