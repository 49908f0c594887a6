package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/elitemarket/auction-backend/internal/logger"
	"github.com/elitemarket/auction-backend/internal/models"
	"github.com/elitemarket/auction-backend/internal/pkg/apperror"
	"github.com/elitemarket/auction-backend/internal/repository/common"
	"github.com/elitemarket/auction-backend/internal/validation"
)

// ChatStore описывает зависимости сервиса от хранилища сообщений.
type ChatStore interface {
	Create(ctx context.Context, message *models.ChatMessage) error
	ListByAuction(ctx context.Context, auctionID uuid.UUID, limit, offset int) ([]models.ChatMessage, error)
}

// ChatAuctionStore — доступ к аукциону для проверки участников чата.
type ChatAuctionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Auction, error)
}

// ChatService содержит бизнес-логику чата аукциона.
// Чат открывается после назначения победителя и доступен только
// владельцу и победителю.
type ChatService struct {
	messages ChatStore
	auctions ChatAuctionStore
	notifier Notifier
}

// NewChatService создаёт сервис чата.
func NewChatService(messages ChatStore, auctions ChatAuctionStore) *ChatService {
	return &ChatService{
		messages: messages,
		auctions: auctions,
	}
}

// SetNotifier подключает рассылку событий.
func (s *ChatService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SendMessage сохраняет сообщение и уведомляет второго участника.
func (s *ChatService) SendMessage(ctx context.Context, auctionID, senderID uuid.UUID, content string) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if err := validation.ValidateMessageContent(content); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	auction, err := s.guardParticipant(ctx, auctionID, senderID)
	if err != nil {
		return nil, err
	}

	message := &models.ChatMessage{
		AuctionID: auctionID,
		SenderID:  senderID,
		Content:   content,
	}

	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}

	recipient := auction.OwnerID
	if senderID == auction.OwnerID && auction.WinnerID != nil {
		recipient = *auction.WinnerID
	}

	if recipient != senderID && s.notifier != nil {
		if err := s.notifier.BroadcastToUser(recipient, EventChatMessage, message); err != nil {
			if logger.Log != nil {
				logger.Log.WithFields(map[string]interface{}{
					"auction_id": auctionID,
					"error":      err.Error(),
				}).Warn("chat service: не удалось отправить событие")
			}
		}
	}

	return message, nil
}

// ListMessages возвращает историю чата для участника.
func (s *ChatService) ListMessages(ctx context.Context, auctionID, callerID uuid.UUID, limit, offset int) ([]models.ChatMessage, error) {
	if _, err := s.guardParticipant(ctx, auctionID, callerID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	return s.messages.ListByAuction(ctx, auctionID, limit, offset)
}

// guardParticipant проверяет, что аукцион в работе и пользователь — его участник.
func (s *ChatService) guardParticipant(ctx context.Context, auctionID, userID uuid.UUID) (*models.Auction, error) {
	auction, err := s.auctions.GetByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, common.ErrAuctionNotFound) {
			return nil, apperror.ErrAuctionNotFound
		}
		return nil, err
	}

	if auction.Status == models.AuctionStatusActive {
		return nil, apperror.New(apperror.ErrCodeConflict, "чат открывается после назначения победителя")
	}

	isOwner := auction.OwnerID == userID
	isWinner := auction.WinnerID != nil && *auction.WinnerID == userID
	if !isOwner && !isWinner {
		return nil, apperror.New(apperror.ErrCodeForbidden, "чат доступен только участникам аукциона")
	}

	return auction, nil
}
