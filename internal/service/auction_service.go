package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/elitemarket/auction-backend/internal/logger"
	"github.com/elitemarket/auction-backend/internal/models"
	"github.com/elitemarket/auction-backend/internal/pkg/apperror"
	"github.com/elitemarket/auction-backend/internal/repository/common"
	"github.com/elitemarket/auction-backend/internal/validation"
)

// События жизненного цикла, рассылаемые через WebSocket.
const (
	EventBidCreated       = "bid.created"
	EventBidAccepted      = "bid.accepted"
	EventAuctionCompleted = "auction.completed"
	EventReviewCreated    = "review.created"
	EventChatMessage      = "chat.message"
	EventProfileUpdated   = "profile.updated"
)

// DefaultAuctionDurationHours — срок аукциона, если клиент не указал свой.
const DefaultAuctionDurationHours = 24

// Notifier доставляет событие конкретному пользователю.
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// AuctionStore описывает зависимости сервиса от хранилища аукционов.
type AuctionStore interface {
	Create(ctx context.Context, auction *models.Auction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	GetByIDWithDetails(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.Auction, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Auction, error)
	ListAssignments(ctx context.Context, userID uuid.UUID) ([]models.Auction, error)
	CreateBid(ctx context.Context, bid *models.Bid) error
	ListBids(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error)
	AcceptBid(ctx context.Context, auctionID, winnerID uuid.UUID) error
	MarkDelivered(ctx context.Context, auctionID, winnerID uuid.UUID) error
}

// ReviewStore описывает зависимости сервиса от хранилища отзывов.
type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	GetByAuctionID(ctx context.Context, auctionID uuid.UUID) (*models.Review, error)
}

// RatingStore пересчитывает рейтинг исполнителя после нового отзыва.
type RatingStore interface {
	RecalculateRating(ctx context.Context, userID uuid.UUID) error
}

// AuctionService содержит бизнес-логику обратного аукциона.
type AuctionService struct {
	auctions AuctionStore
	reviews  ReviewStore
	ratings  RatingStore
	notifier Notifier
}

// CreateAuctionInput содержит данные нового аукциона.
type CreateAuctionInput struct {
	Title         string
	Description   string
	Budget        float64
	DurationHours int
}

// SubmitReviewInput содержит данные отзыва.
type SubmitReviewInput struct {
	Rating  int
	Comment *string
}

// NewAuctionService создаёт сервис аукционов.
func NewAuctionService(auctions AuctionStore, reviews ReviewStore, ratings RatingStore) *AuctionService {
	return &AuctionService{
		auctions: auctions,
		reviews:  reviews,
		ratings:  ratings,
	}
}

// SetNotifier подключает рассылку событий. До вызова события не рассылаются.
func (s *AuctionService) SetNotifier(n Notifier) {
	s.notifier = n
}

// CreateAuction публикует новый аукцион от имени клиента.
func (s *AuctionService) CreateAuction(ctx context.Context, ownerID uuid.UUID, role string, in CreateAuctionInput) (*models.Auction, error) {
	if role != models.RoleClient {
		return nil, apperror.New(apperror.ErrCodeForbidden, "публиковать аукционы могут только клиенты")
	}

	if err := validation.ValidateAuctionTitle(in.Title); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateAuctionDescription(in.Description); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateBudget(in.Budget); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	hours := in.DurationHours
	if hours == 0 {
		hours = DefaultAuctionDurationHours
	}
	if err := validation.ValidateAuctionDuration(hours); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	auction := &models.Auction{
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		Budget:      in.Budget,
		Deadline:    time.Now().Add(time.Duration(hours) * time.Hour),
		Status:      models.AuctionStatusActive,
	}

	if err := s.auctions.Create(ctx, auction); err != nil {
		return nil, err
	}

	return auction, nil
}

// GetAuction возвращает аукцион со ставками и отзывом.
func (s *AuctionService) GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	auction, err := s.auctions.GetByIDWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrAuctionNotFound) {
			return nil, apperror.ErrAuctionNotFound
		}
		return nil, err
	}
	return auction, nil
}

// ListAuctions возвращает ленту аукционов с фильтром по статусу.
func (s *AuctionService) ListAuctions(ctx context.Context, status string, limit, offset int) ([]models.Auction, error) {
	if status != "" {
		if _, ok := models.ValidAuctionStatuses[status]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный статус аукциона")
		}
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.auctions.List(ctx, status, limit, offset)
}

// ListMyAuctions возвращает аукционы, созданные пользователем.
func (s *AuctionService) ListMyAuctions(ctx context.Context, ownerID uuid.UUID) ([]models.Auction, error) {
	return s.auctions.ListByOwner(ctx, ownerID)
}

// ListAssignments возвращает назначенные работы пользователя.
func (s *AuctionService) ListAssignments(ctx context.Context, userID uuid.UUID) ([]models.Auction, error) {
	return s.auctions.ListAssignments(ctx, userID)
}

// SubmitBid добавляет ставку исполнителя на активный аукцион.
// Повторные ставки одного исполнителя допустимы: клиент видит историю предложений.
func (s *AuctionService) SubmitBid(ctx context.Context, auctionID, bidderID uuid.UUID, role string, amount float64) (*models.Bid, error) {
	if role != models.RoleProvider {
		return nil, apperror.New(apperror.ErrCodeForbidden, "делать ставки могут только исполнители")
	}

	if err := validation.ValidateBidAmount(amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	auction, err := s.auctions.GetByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, common.ErrAuctionNotFound) {
			return nil, apperror.ErrAuctionNotFound
		}
		return nil, err
	}

	if auction.Status != models.AuctionStatusActive {
		return nil, apperror.New(apperror.ErrCodeConflict, "аукцион уже закрыт для ставок")
	}
	if auction.OwnerID == bidderID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "нельзя делать ставку на собственный аукцион")
	}

	bid := &models.Bid{
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
	}

	if err := s.auctions.CreateBid(ctx, bid); err != nil {
		return nil, err
	}

	s.notify(auction.OwnerID, EventBidCreated, map[string]any{
		"auction_id": auctionID,
		"bid_id":     bid.ID,
		"bidder_id":  bidderID,
		"amount":     amount,
	})

	return bid, nil
}

// AcceptBid закрывает аукцион и назначает победителя.
// Из двух конкурирующих принятий успешным будет ровно одно: условный UPDATE
// в хранилище срабатывает только пока аукцион активен.
func (s *AuctionService) AcceptBid(ctx context.Context, auctionID, bidID, callerID uuid.UUID) (*models.Auction, error) {
	auction, err := s.auctions.GetByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, common.ErrAuctionNotFound) {
			return nil, apperror.ErrAuctionNotFound
		}
		return nil, err
	}

	if auction.OwnerID != callerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "принимать ставки может только владелец аукциона")
	}
	if auction.Status != models.AuctionStatusActive {
		return nil, apperror.New(apperror.ErrCodeConflict, "аукцион уже закрыт")
	}

	bids, err := s.auctions.ListBids(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	var winnerID uuid.UUID
	for _, b := range bids {
		if b.ID == bidID {
			winnerID = b.BidderID
			break
		}
	}
	if winnerID == uuid.Nil {
		return nil, apperror.ErrBidNotFound
	}

	if err := s.auctions.AcceptBid(ctx, auctionID, winnerID); err != nil {
		if errors.Is(err, common.ErrAuctionNotActive) {
			return nil, apperror.New(apperror.ErrCodeConflict, "аукцион уже закрыт")
		}
		return nil, err
	}

	s.notify(winnerID, EventBidAccepted, map[string]any{
		"auction_id": auctionID,
		"bid_id":     bidID,
	})

	return s.auctions.GetByID(ctx, auctionID)
}

// MarkDelivered переводит закрытый аукцион в completed и засчитывает работу
// победителю. Инкремент счётчика и смена статуса — одна транзакция хранилища.
func (s *AuctionService) MarkDelivered(ctx context.Context, auctionID, callerID uuid.UUID) (*models.Auction, error) {
	auction, err := s.auctions.GetByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, common.ErrAuctionNotFound) {
			return nil, apperror.ErrAuctionNotFound
		}
		return nil, err
	}

	if auction.WinnerID == nil || *auction.WinnerID != callerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "отметить выполнение может только победитель аукциона")
	}
	if auction.Status != models.AuctionStatusClosed {
		return nil, apperror.New(apperror.ErrCodeConflict, "аукцион не находится в работе")
	}

	if err := s.auctions.MarkDelivered(ctx, auctionID, callerID); err != nil {
		if errors.Is(err, common.ErrAuctionNotActive) {
			return nil, apperror.New(apperror.ErrCodeConflict, "аукцион не находится в работе")
		}
		return nil, err
	}

	s.notify(auction.OwnerID, EventAuctionCompleted, map[string]any{
		"auction_id": auctionID,
		"winner_id":  callerID,
	})

	return s.auctions.GetByID(ctx, auctionID)
}

// SubmitReview сохраняет единственный отзыв клиента о выполненном аукционе
// и пересчитывает рейтинг победителя.
func (s *AuctionService) SubmitReview(ctx context.Context, auctionID, callerID uuid.UUID, in SubmitReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperror.New(apperror.ErrCodeValidation, "оценка должна быть от 1 до 5")
	}

	auction, err := s.auctions.GetByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, common.ErrAuctionNotFound) {
			return nil, apperror.ErrAuctionNotFound
		}
		return nil, err
	}

	if auction.OwnerID != callerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "оставить отзыв может только владелец аукциона")
	}
	if auction.Status != models.AuctionStatusCompleted {
		return nil, apperror.New(apperror.ErrCodeConflict, "отзыв доступен только после выполнения работы")
	}

	review := &models.Review{
		AuctionID: auctionID,
		Rating:    in.Rating,
		Comment:   in.Comment,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, common.ErrReviewExists) {
			return nil, apperror.New(apperror.ErrCodeConflict, "отзыв для этого аукциона уже оставлен")
		}
		return nil, err
	}

	if auction.WinnerID != nil {
		if err := s.ratings.RecalculateRating(ctx, *auction.WinnerID); err != nil {
			// Отзыв сохранён, рейтинг догонит при следующем пересчёте.
			if logger.Log != nil {
				logger.Log.WithFields(map[string]interface{}{
					"auction_id": auctionID,
					"winner_id":  *auction.WinnerID,
					"error":      err.Error(),
				}).Warn("auction service: не удалось пересчитать рейтинг")
			}
		}

		s.notify(*auction.WinnerID, EventReviewCreated, map[string]any{
			"auction_id": auctionID,
			"rating":     in.Rating,
		})
	}

	return review, nil
}

// GetReview возвращает отзыв аукциона.
func (s *AuctionService) GetReview(ctx context.Context, auctionID uuid.UUID) (*models.Review, error) {
	review, err := s.reviews.GetByAuctionID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, common.ErrReviewNotFound) {
			return nil, apperror.ErrReviewNotFound
		}
		return nil, err
	}
	return review, nil
}

// notify отправляет событие, если подключён notifier. Ошибки доставки
// не влияют на результат операции.
func (s *AuctionService) notify(userID uuid.UUID, event string, data any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BroadcastToUser(userID, event, data); err != nil {
		if logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"user_id": userID,
				"event":   event,
				"error":   err.Error(),
			}).Warn("auction service: не удалось отправить событие")
		}
	}
}
