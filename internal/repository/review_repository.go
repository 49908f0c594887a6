package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/elitemarket/auction-backend/internal/models"
	"github.com/elitemarket/auction-backend/internal/repository/common"
)

// ReviewRepository инкапсулирует работу с отзывами о выполненных аукционах.
type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create сохраняет отзыв. Уникальный индекс на auction_id превращает
// повторную отправку в ErrReviewExists даже при гонке двух запросов.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (auction_id, rating, comment)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	row := r.db.QueryRowxContext(ctx, query, review.AuctionID, review.Rating, review.Comment)

	if err := row.Scan(&review.ID, &review.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return common.ErrReviewExists
		}
		return fmt.Errorf("review repository: не удалось создать отзыв: %w", err)
	}
	return nil
}

// GetByAuctionID возвращает отзыв аукциона.
func (r *ReviewRepository) GetByAuctionID(ctx context.Context, auctionID uuid.UUID) (*models.Review, error) {
	query := `SELECT * FROM reviews WHERE auction_id = $1`
	return common.GetByField[models.Review](ctx, r.db, query, auctionID, common.ErrReviewNotFound)
}

// ListByWinner возвращает отзывы по выигранным пользователем аукционам.
func (r *ReviewRepository) ListByWinner(ctx context.Context, winnerID uuid.UUID) ([]models.Review, error) {
	query := `
		SELECT r.* FROM reviews r
		JOIN auctions a ON a.id = r.auction_id
		WHERE a.winner_id = $1
		ORDER BY r.created_at DESC
	`
	reviews := make([]models.Review, 0)
	if err := r.db.SelectContext(ctx, &reviews, query, winnerID); err != nil {
		return nil, fmt.Errorf("review repository: не удалось получить отзывы исполнителя: %w", err)
	}
	return reviews, nil
}
