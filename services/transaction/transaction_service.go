package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flipzy/transactions-backend/db"
	"github.com/flipzy/transactions-backend/services/catalog"
	"github.com/flipzy/transactions-backend/services/monitoring/logging"
	"github.com/flipzy/transactions-backend/services/monitoring/tasks"
	"github.com/flipzy/transactions-backend/services/notification"
	"github.com/flipzy/transactions-backend/services/operation"
	"github.com/google/uuid"
)

// TransactionService is the settlement engine. It holds no state of its
// own: every money movement runs as one atomic section against the
// store, paired with a compare-and-swap on the transaction status.
type TransactionService struct {
	store           db.Store
	catalogClient   catalog.Lookup
	publisher       notification.Publisher
	operationClient *operation.OperationService
	scheduler       *tasks.TaskScheduler
	settlementDelay time.Duration
	logger          *logging.Logger
}

func NewTransactionService(
	store db.Store,
	catalogClient catalog.Lookup,
	publisher notification.Publisher,
	operationClient *operation.OperationService,
	scheduler *tasks.TaskScheduler,
	settlementDelay time.Duration,
	logger *logging.Logger,
) *TransactionService {
	return &TransactionService{
		store:           store,
		catalogClient:   catalogClient,
		publisher:       publisher,
		operationClient: operationClient,
		scheduler:       scheduler,
		settlementDelay: settlementDelay,
		logger:          logger,
	}
}

// CreateTransaction opens a purchase between buyer and seller. VIRTUAL
// items are settled inside the same atomic section before the call
// returns; REAL items are stored PENDING and wait for a checkout.
func (s *TransactionService) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*TransactionModel, error) {
	if input.BuyerID == input.SellerID {
		return nil, ErrSameParty
	}
	if !ValidOrderType(string(input.OrderType)) {
		return nil, ErrInvalidOrderType
	}

	title := input.TitleSnapshot
	price := input.PriceSnapshot
	if title == "" || !price.IsPositive() {
		listing, err := s.catalogClient.Lookup(ctx, input.ItemID)
		if err != nil {
			return nil, err
		}
		title = listing.Title
		price = listing.Price
	}
	if !price.IsPositive() {
		return nil, ErrInvalidPrice
	}

	var created db.Transaction
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		if _, err := q.GetWalletByUserID(ctx, input.BuyerID); errors.Is(err, db.ErrNotFound) {
			return ErrWalletMissing
		} else if err != nil {
			return err
		}
		if _, err := q.GetWalletByUserID(ctx, input.SellerID); errors.Is(err, db.ErrNotFound) {
			return ErrWalletMissing
		} else if err != nil {
			return err
		}

		var err error
		created, err = q.CreateTransaction(ctx, db.CreateTransactionParams{
			BuyerID:       input.BuyerID,
			SellerID:      input.SellerID,
			ItemID:        input.ItemID,
			OrderType:     string(input.OrderType),
			TitleSnapshot: title,
			PriceSnapshot: price,
			Status:        string(StatusPending),
		})
		if err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		// Instant path: the record passes through PENDING inside this
		// section but is only ever observed in its terminal state.
		if input.OrderType == OrderTypeVirtual {
			created, err = s.settleLocked(ctx, q, created)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(fmt.Sprintf("Created transaction %v (%v, %v)", created.ID, created.OrderType, created.Status))
	s.publishIfPaid(ctx, created)
	return ToTransactionModel(created), nil
}

func (s *TransactionService) GetTransaction(ctx context.Context, transactionID uuid.UUID) (*TransactionModel, error) {
	t, err := s.store.GetTransaction(ctx, transactionID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrTransactionNotFound
	} else if err != nil {
		return nil, err
	}
	return ToTransactionModel(t), nil
}

func (s *TransactionService) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]*TransactionModel, error) {
	list, err := s.store.ListTransactions(ctx, db.ListTransactionsParams{
		BuyerID:  input.BuyerID,
		SellerID: input.SellerID,
		Status:   input.Status,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return ToTransactionCollectionResponse(list), nil
}

// Settle runs the settlement algorithm for a PENDING transaction. Only
// one invocation can win: the status compare-and-swap rejects every
// concurrent or repeated attempt. Insufficient buyer funds are not an
// error, they resolve the transaction to FAILED with no money moved.
func (s *TransactionService) Settle(ctx context.Context, transactionID uuid.UUID) (*TransactionModel, error) {
	var settled db.Transaction
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		t, err := q.GetTransaction(ctx, transactionID)
		if errors.Is(err, db.ErrNotFound) {
			return ErrTransactionNotFound
		} else if err != nil {
			return err
		}

		settled, err = s.settleLocked(ctx, q, t)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishIfPaid(ctx, settled)
	return ToTransactionModel(settled), nil
}

// settleLocked is the funds-check-and-move step. It must run inside an
// ExecTx section: the balance comparison, both balance writes and the
// status write land together or not at all.
func (s *TransactionService) settleLocked(ctx context.Context, q db.Querier, t db.Transaction) (db.Transaction, error) {
	if Status(t.Status) != StatusPending {
		return db.Transaction{}, NewIllegalTransition(Status(t.Status), StatusPaid)
	}

	buyerWallet, err := q.GetWalletByUserID(ctx, t.BuyerID)
	if errors.Is(err, db.ErrNotFound) {
		return db.Transaction{}, ErrWalletMissing
	} else if err != nil {
		return db.Transaction{}, err
	}
	sellerWallet, err := q.GetWalletByUserID(ctx, t.SellerID)
	if errors.Is(err, db.ErrNotFound) {
		return db.Transaction{}, ErrWalletMissing
	} else if err != nil {
		return db.Transaction{}, err
	}

	if buyerWallet.Balance.LessThan(t.PriceSnapshot) {
		failed, err := q.UpdateTransactionStatus(ctx, db.UpdateTransactionStatusParams{
			ID:         t.ID,
			FromStatus: string(StatusPending),
			Status:     string(StatusFailed),
		})
		if err != nil {
			return db.Transaction{}, err
		}
		s.logger.Info(fmt.Sprintf("Transaction %v failed settlement: insufficient funds", t.ID))
		return failed, nil
	}

	if _, err := q.AdjustWalletBalance(ctx, db.AdjustWalletBalanceParams{
		ID:    buyerWallet.ID,
		Delta: t.PriceSnapshot.Neg(),
	}); err != nil {
		return db.Transaction{}, err
	}
	if _, err := q.AdjustWalletBalance(ctx, db.AdjustWalletBalanceParams{
		ID:    sellerWallet.ID,
		Delta: t.PriceSnapshot,
	}); err != nil {
		return db.Transaction{}, err
	}

	paid, err := q.UpdateTransactionStatus(ctx, db.UpdateTransactionStatusParams{
		ID:         t.ID,
		FromStatus: string(StatusPending),
		Status:     string(StatusPaid),
	})
	if err != nil {
		return db.Transaction{}, err
	}

	s.logger.Info(fmt.Sprintf("Transaction %v settled: %v moved from %v to %v",
		t.ID, t.PriceSnapshot.StringFixed(2), t.BuyerID, t.SellerID))
	return paid, nil
}

// Checkout triggers deferred settlement for a REAL transaction. It
// returns immediately with a PENDING operation; the settlement itself
// runs in the background after an artificial processing delay modeling
// an external payment gateway.
func (s *TransactionService) Checkout(ctx context.Context, transactionID uuid.UUID) (*operation.OperationModel, error) {
	t, err := s.store.GetTransaction(ctx, transactionID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrTransactionNotFound
	} else if err != nil {
		return nil, err
	}
	if OrderType(t.OrderType) != OrderTypeReal {
		return nil, ErrNotDeferred
	}
	if Status(t.Status) != StatusPending {
		return nil, NewIllegalTransition(Status(t.Status), StatusPaid)
	}

	op, err := s.operationClient.CreateOperation(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	taskID := op.ID.String()
	_, err = s.scheduler.AddTask(taskID, fmt.Sprintf("settle-%v", t.ID), func(taskCtx context.Context) error {
		return s.runDeferredSettlement(taskCtx, op.ID, t.ID)
	})
	if err != nil {
		return nil, err
	}
	if err := s.scheduler.RunAfterAndRemove(taskID, s.settlementDelay); err != nil {
		return nil, err
	}

	return op, nil
}

// runDeferredSettlement brackets one background settlement attempt with
// the operation record. Failures land in the operation, never anywhere
// the triggering caller could see them.
func (s *TransactionService) runDeferredSettlement(ctx context.Context, operationID, transactionID uuid.UUID) error {
	if err := s.operationClient.MarkRunning(ctx, operationID); err != nil {
		return err
	}

	settled, err := s.Settle(ctx, transactionID)
	if err != nil {
		if markErr := s.operationClient.MarkFailed(ctx, operationID, err.Error()); markErr != nil {
			return markErr
		}
		return err
	}
	if settled.Status == StatusFailed {
		return s.operationClient.MarkFailed(ctx, operationID, ErrInsufficientFunds.Error())
	}
	return s.operationClient.MarkCompleted(ctx, operationID)
}

// Cancel is only legal while the transaction is still PENDING.
func (s *TransactionService) Cancel(ctx context.Context, transactionID uuid.UUID) (*TransactionModel, error) {
	return s.transition(ctx, transactionID, StatusCancelled, StatusPending)
}

// Fulfill marks a PAID transaction as delivered.
func (s *TransactionService) Fulfill(ctx context.Context, transactionID uuid.UUID) (*TransactionModel, error) {
	return s.transition(ctx, transactionID, StatusFulfilled, StatusPaid)
}

// transition applies a compare-and-swap status change from one of the
// allowed source states.
func (s *TransactionService) transition(ctx context.Context, transactionID uuid.UUID, to Status, allowedFrom ...Status) (*TransactionModel, error) {
	var updated db.Transaction
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		t, err := q.GetTransaction(ctx, transactionID)
		if errors.Is(err, db.ErrNotFound) {
			return ErrTransactionNotFound
		} else if err != nil {
			return err
		}

		current := Status(t.Status)
		allowed := false
		for _, from := range allowedFrom {
			if current == from {
				allowed = true
				break
			}
		}
		if !allowed {
			return NewIllegalTransition(current, to)
		}

		updated, err = q.UpdateTransactionStatus(ctx, db.UpdateTransactionStatusParams{
			ID:         transactionID,
			FromStatus: string(current),
			Status:     string(to),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(fmt.Sprintf("Transaction %v moved to %v", transactionID, to))
	return ToTransactionModel(updated), nil
}

// Refund reverses a settled transfer. The seller must still hold the
// full snapshot amount; a seller who already spent the funds cannot be
// refunded from.
func (s *TransactionService) Refund(ctx context.Context, transactionID uuid.UUID) (*TransactionModel, error) {
	var refunded db.Transaction
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		t, err := q.GetTransaction(ctx, transactionID)
		if errors.Is(err, db.ErrNotFound) {
			return ErrTransactionNotFound
		} else if err != nil {
			return err
		}

		current := Status(t.Status)
		if current != StatusPaid && current != StatusFulfilled {
			return NewIllegalTransition(current, StatusRefunded)
		}

		buyerWallet, err := q.GetWalletByUserID(ctx, t.BuyerID)
		if errors.Is(err, db.ErrNotFound) {
			return ErrWalletMissing
		} else if err != nil {
			return err
		}
		sellerWallet, err := q.GetWalletByUserID(ctx, t.SellerID)
		if errors.Is(err, db.ErrNotFound) {
			return ErrWalletMissing
		} else if err != nil {
			return err
		}

		if _, err := q.AdjustWalletBalance(ctx, db.AdjustWalletBalanceParams{
			ID:    sellerWallet.ID,
			Delta: t.PriceSnapshot.Neg(),
		}); err != nil {
			if errors.Is(err, db.ErrInsufficientBalance) {
				return ErrInsufficientFunds
			}
			return err
		}
		if _, err := q.AdjustWalletBalance(ctx, db.AdjustWalletBalanceParams{
			ID:    buyerWallet.ID,
			Delta: t.PriceSnapshot,
		}); err != nil {
			return err
		}

		refunded, err = q.UpdateTransactionStatus(ctx, db.UpdateTransactionStatusParams{
			ID:         transactionID,
			FromStatus: string(current),
			Status:     string(StatusRefunded),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(fmt.Sprintf("Transaction %v refunded", transactionID))
	return ToTransactionModel(refunded), nil
}

func (s *TransactionService) publishIfPaid(ctx context.Context, t db.Transaction) {
	if Status(t.Status) != StatusPaid {
		return
	}
	event := notification.TransactionCompletedEvent{
		TransactionID: t.ID,
		BuyerID:       t.BuyerID,
		SellerID:      t.SellerID,
		ItemID:        t.ItemID,
		OrderType:     t.OrderType,
		PriceSnapshot: t.PriceSnapshot.StringFixed(2),
		Status:        t.Status,
		CompletedAt:   t.UpdatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error(fmt.Sprintf("Failed to publish completed-transaction event for %v: %v", t.ID, err))
	}
}
