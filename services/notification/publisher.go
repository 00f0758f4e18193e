package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flipzy/transactions-backend/services/monitoring/logging"
	"github.com/redis/go-redis/v9"
)

const transactionCompletedChannel = "transaction-completed"

// LogPublisher writes events to the application log. It is the default
// publisher when no redis endpoint is configured.
type LogPublisher struct {
	logger *logging.Logger
}

func NewLogPublisher(logger *logging.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event TransactionCompletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	p.logger.Info(fmt.Sprintf("Event %s: %s", transactionCompletedChannel, payload))
	return nil
}

// RedisPublisher fans events out over redis pub/sub so downstream
// consumers (notifications, analytics) can react to completed
// transactions.
type RedisPublisher struct {
	client *redis.Client
	logger *logging.Logger
}

func NewRedisPublisher(addr, password string, logger *logging.Logger) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return &RedisPublisher{
		client: client,
		logger: logger,
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, event TransactionCompletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, transactionCompletedChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", transactionCompletedChannel, err)
	}
	return nil
}
