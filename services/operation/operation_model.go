package operation

import (
	"time"

	"github.com/flipzy/transactions-backend/db"
	"github.com/google/uuid"
)

// Status values for an asynchronous settlement attempt. An operation
// only ever moves forward: PENDING -> RUNNING -> COMPLETED or FAILED.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

type OperationModel struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Status        Status    `json:"status"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func ToOperationModel(op db.Operation) *OperationModel {
	return &OperationModel{
		ID:            op.ID,
		TransactionID: op.TransactionID,
		Status:        Status(op.Status),
		Error:         op.Error,
		CreatedAt:     op.CreatedAt,
		UpdatedAt:     op.UpdatedAt,
	}
}
