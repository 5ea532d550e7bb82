package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrReplyLogNotFound is returned when a reply log lookup matches nothing.
var ErrReplyLogNotFound = errors.New("reply log entry not found")

// ReplyLogRepository persists dispatch outcomes and serves the query API.
type ReplyLogRepository interface {
	Create(ctx context.Context, entry *ReplyLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*ReplyLog, error)
	// ListByFrom returns the most recent entries for a sender, newest first.
	ListByFrom(ctx context.Context, from string, limit int) ([]*ReplyLog, error)
}
