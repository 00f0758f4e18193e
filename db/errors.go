package db

import (
	"errors"

	"github.com/lib/pq"
)

const (
	DuplicateEntry pq.ErrorCode = "23505"
	EntryTooLong   pq.ErrorCode = "22001"
)

var (
	ErrNotFound            = errors.New("db: record not found")
	ErrDuplicate           = errors.New("db: duplicate entry")
	ErrInsufficientBalance = errors.New("db: balance would go negative")
	ErrStatusConflict      = errors.New("db: status precondition failed")
)
