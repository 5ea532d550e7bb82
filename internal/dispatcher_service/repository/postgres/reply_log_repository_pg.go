package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexcommerce/whatsapp-gateway/internal/dispatcher_service/domain"
)

type pgReplyLogRepository struct {
	db *pgxpool.Pool
}

// NewPgReplyLogRepository creates a ReplyLogRepository backed by PostgreSQL.
func NewPgReplyLogRepository(db *pgxpool.Pool) domain.ReplyLogRepository {
	return &pgReplyLogRepository{db: db}
}

func (r *pgReplyLogRepository) Create(ctx context.Context, entry *domain.ReplyLog) error {
	query := `
		INSERT INTO reply_logs (
			id, provider_message_id, "from", message_type, matched_rule,
			reply_kind, reply_message_id, send_error, dispatched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.ProviderMessageID, entry.From, entry.MessageType, entry.MatchedRule,
		entry.ReplyKind, entry.ReplyMessageID, entry.SendError, entry.DispatchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reply log: %w", err)
	}
	return nil
}

func (r *pgReplyLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReplyLog, error) {
	entry := &domain.ReplyLog{}
	query := `
		SELECT id, provider_message_id, "from", message_type, matched_rule,
		       reply_kind, reply_message_id, send_error, dispatched_at
		FROM reply_logs WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&entry.ID, &entry.ProviderMessageID, &entry.From, &entry.MessageType, &entry.MatchedRule,
		&entry.ReplyKind, &entry.ReplyMessageID, &entry.SendError, &entry.DispatchedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReplyLogNotFound
		}
		return nil, fmt.Errorf("failed to get reply log by id: %w", err)
	}
	return entry, nil
}

func (r *pgReplyLogRepository) ListByFrom(ctx context.Context, from string, limit int) ([]*domain.ReplyLog, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, provider_message_id, "from", message_type, matched_rule,
		       reply_kind, reply_message_id, send_error, dispatched_at
		FROM reply_logs WHERE "from" = $1
		ORDER BY dispatched_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, from, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reply logs: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ReplyLog
	for rows.Next() {
		entry := &domain.ReplyLog{}
		if err := rows.Scan(
			&entry.ID, &entry.ProviderMessageID, &entry.From, &entry.MessageType, &entry.MatchedRule,
			&entry.ReplyKind, &entry.ReplyMessageID, &entry.SendError, &entry.DispatchedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reply log row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reply log rows: %w", err)
	}
	return entries, nil
}
