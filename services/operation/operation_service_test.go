package operation

import (
	"context"
	"testing"

	"github.com/flipzy/transactions-backend/db"
	"github.com/flipzy/transactions-backend/services/monitoring/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestOperationService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewOperationService(db.NewMemoryStore(), logging.NewLogger())
	txID := uuid.New()

	op, err := svc.CreateOperation(ctx, txID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, op.Status)
	require.Equal(t, txID, op.TransactionID)
	require.Empty(t, op.Error)

	require.NoError(t, svc.MarkRunning(ctx, op.ID))
	polled, err := svc.GetOperation(ctx, op.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRunning, polled.Status)

	require.NoError(t, svc.MarkCompleted(ctx, op.ID))
	polled, err = svc.GetOperation(ctx, op.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, polled.Status)
}

func TestOperationService_MarkFailedRecordsReason(t *testing.T) {
	ctx := context.Background()
	svc := NewOperationService(db.NewMemoryStore(), logging.NewLogger())

	op, err := svc.CreateOperation(ctx, uuid.New())
	require.NoError(t, err)

	require.NoError(t, svc.MarkFailed(ctx, op.ID, "insufficient funds"))
	polled, err := svc.GetOperation(ctx, op.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, polled.Status)
	require.Equal(t, "insufficient funds", polled.Error)
}

func TestOperationService_NotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewOperationService(db.NewMemoryStore(), logging.NewLogger())

	_, err := svc.GetOperation(ctx, uuid.New())
	require.ErrorIs(t, err, ErrOperationNotFound)
	require.ErrorIs(t, svc.MarkRunning(ctx, uuid.New()), ErrOperationNotFound)
}
