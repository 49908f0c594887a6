package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/elitemarket/auction-backend/internal/models"
)

// ChatRepository инкапсулирует работу с сообщениями чата аукциона.
type ChatRepository struct {
	db *sqlx.DB
}

func NewChatRepository(db *sqlx.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create сохраняет сообщение чата.
func (r *ChatRepository) Create(ctx context.Context, message *models.ChatMessage) error {
	query := `
		INSERT INTO auction_messages (auction_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, message.AuctionID, message.SenderID, message.Content).
		Scan(&message.ID, &message.CreatedAt)
	if err != nil {
		return fmt.Errorf("chat repository: не удалось сохранить сообщение: %w", err)
	}
	return nil
}

// ListByAuction возвращает историю чата аукциона в хронологическом порядке.
func (r *ChatRepository) ListByAuction(ctx context.Context, auctionID uuid.UUID, limit, offset int) ([]models.ChatMessage, error) {
	query := `
		SELECT * FROM auction_messages
		WHERE auction_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`
	messages := make([]models.ChatMessage, 0)
	if err := r.db.SelectContext(ctx, &messages, query, auctionID, limit, offset); err != nil {
		return nil, fmt.Errorf("chat repository: не удалось получить сообщения: %w", err)
	}
	return messages, nil
}
