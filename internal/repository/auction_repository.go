package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/elitemarket/auction-backend/internal/models"
	"github.com/elitemarket/auction-backend/internal/repository/common"
)

// AuctionRepository инкапсулирует работу с аукционами и ставками.
type AuctionRepository struct {
	db *sqlx.DB
}

func NewAuctionRepository(db *sqlx.DB) *AuctionRepository {
	return &AuctionRepository{db: db}
}

// Create сохраняет новый аукцион.
func (r *AuctionRepository) Create(ctx context.Context, auction *models.Auction) error {
	query := `
		INSERT INTO auctions (owner_id, title, description, budget, deadline, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		auction.OwnerID, auction.Title, auction.Description,
		auction.Budget, auction.Deadline, auction.Status,
	).Scan(&auction.ID, &auction.CreatedAt, &auction.UpdatedAt)
	if err != nil {
		return fmt.Errorf("auction repository: не удалось создать аукцион: %w", err)
	}
	return nil
}

// GetByID возвращает аукцион без связанных сущностей.
func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	query := `SELECT * FROM auctions WHERE id = $1`
	return common.GetByID[models.Auction](ctx, r.db, query, id, common.ErrAuctionNotFound)
}

// GetByIDWithDetails возвращает аукцион вместе со ставками и отзывом.
func (r *AuctionRepository) GetByIDWithDetails(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	auction, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	bids, err := r.ListBids(ctx, id)
	if err != nil {
		return nil, err
	}
	auction.Bids = bids

	var review models.Review
	err = r.db.GetContext(ctx, &review, `SELECT * FROM reviews WHERE auction_id = $1`, id)
	if err == nil {
		auction.Review = &review
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("auction repository: не удалось получить отзыв: %w", err)
	}

	return auction, nil
}

// List возвращает аукционы с опциональным фильтром по статусу,
// отсортированные по дедлайну (ближайший последним созданным считается свежим).
func (r *AuctionRepository) List(ctx context.Context, status string, limit, offset int) ([]models.Auction, error) {
	query := `
		SELECT a.*, COUNT(b.id) AS bids_count
		FROM auctions a
		LEFT JOIN bids b ON b.auction_id = a.id
	`
	args := []any{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" WHERE a.status = $%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" GROUP BY a.id ORDER BY a.created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	auctions := make([]models.Auction, 0)
	if err := r.db.SelectContext(ctx, &auctions, query, args...); err != nil {
		return nil, fmt.Errorf("auction repository: не удалось получить список аукционов: %w", err)
	}
	return auctions, nil
}

// ListByOwner возвращает аукционы, созданные пользователем.
func (r *AuctionRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Auction, error) {
	query := `
		SELECT a.*, COUNT(b.id) AS bids_count
		FROM auctions a
		LEFT JOIN bids b ON b.auction_id = a.id
		WHERE a.owner_id = $1
		GROUP BY a.id
		ORDER BY a.created_at DESC
	`
	auctions := make([]models.Auction, 0)
	if err := r.db.SelectContext(ctx, &auctions, query, ownerID); err != nil {
		return nil, fmt.Errorf("auction repository: не удалось получить аукционы владельца: %w", err)
	}
	return auctions, nil
}

// ListAssignments возвращает назначенные работы: аукционы, где пользователь
// победитель либо владелец, и аукцион уже не активен.
func (r *AuctionRepository) ListAssignments(ctx context.Context, userID uuid.UUID) ([]models.Auction, error) {
	query := `
		SELECT * FROM auctions
		WHERE (winner_id = $1 OR owner_id = $1) AND status != 'active'
		ORDER BY updated_at DESC
	`
	auctions := make([]models.Auction, 0)
	if err := r.db.SelectContext(ctx, &auctions, query, userID); err != nil {
		return nil, fmt.Errorf("auction repository: не удалось получить назначенные работы: %w", err)
	}
	return auctions, nil
}

// CreateBid сохраняет ставку исполнителя.
func (r *AuctionRepository) CreateBid(ctx context.Context, bid *models.Bid) error {
	query := `
		INSERT INTO bids (auction_id, bidder_id, amount)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, bid.AuctionID, bid.BidderID, bid.Amount).
		Scan(&bid.ID, &bid.CreatedAt)
	if err != nil {
		return fmt.Errorf("auction repository: не удалось создать ставку: %w", err)
	}
	return nil
}

// ListBids возвращает ставки аукциона в порядке поступления.
func (r *AuctionRepository) ListBids(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error) {
	query := `SELECT * FROM bids WHERE auction_id = $1 ORDER BY created_at ASC`
	bids := make([]models.Bid, 0)
	if err := r.db.SelectContext(ctx, &bids, query, auctionID); err != nil {
		return nil, fmt.Errorf("auction repository: не удалось получить ставки: %w", err)
	}
	return bids, nil
}

// AcceptBid закрывает аукцион и назначает победителя.
// Условие status = 'active' в самом UPDATE гарантирует, что из двух
// конкурирующих принятий победит ровно одно.
func (r *AuctionRepository) AcceptBid(ctx context.Context, auctionID, winnerID uuid.UUID) error {
	query := `
		UPDATE auctions
		SET status = 'closed', winner_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`
	result, err := r.db.ExecContext(ctx, query, auctionID, winnerID)
	if err != nil {
		return fmt.Errorf("auction repository: не удалось принять ставку: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("auction repository: не удалось получить количество строк: %w", err)
	}
	if rows == 0 {
		return common.ErrAuctionNotActive
	}
	return nil
}

// MarkDelivered переводит закрытый аукцион в completed и инкрементирует
// счётчик выполненных работ победителя. Обе записи идут в одной транзакции:
// счётчик не может разойтись со статусом.
func (r *AuctionRepository) MarkDelivered(ctx context.Context, auctionID, winnerID uuid.UUID) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE auctions
			SET status = 'completed', updated_at = NOW()
			WHERE id = $1 AND status = 'closed' AND winner_id = $2
		`, auctionID, winnerID)
		if err != nil {
			return fmt.Errorf("auction repository: не удалось завершить аукцион: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("auction repository: не удалось получить количество строк: %w", err)
		}
		if rows == 0 {
			return common.ErrAuctionNotActive
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE profiles
			SET completed_jobs = completed_jobs + 1, updated_at = NOW()
			WHERE user_id = $1
		`, winnerID)
		if err != nil {
			return fmt.Errorf("auction repository: не удалось обновить счётчик работ: %w", err)
		}

		return nil
	})
}
