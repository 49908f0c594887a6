package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/elitemarket/auction-backend/internal/models"
	"github.com/elitemarket/auction-backend/internal/pkg/apperror"
	"github.com/elitemarket/auction-backend/internal/repository/common"
)

type mockChatStore struct {
	mock.Mock
}

func (m *mockChatStore) Create(ctx context.Context, message *models.ChatMessage) error {
	args := m.Called(ctx, message)
	if args.Error(0) == nil {
		message.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockChatStore) ListByAuction(ctx context.Context, auctionID uuid.UUID, limit, offset int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, auctionID, limit, offset)
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

type mockChatAuctionStore struct {
	mock.Mock
}

func (m *mockChatAuctionStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Auction), args.Error(1)
}

func newTestChatService() (*ChatService, *mockChatStore, *mockChatAuctionStore) {
	messages := new(mockChatStore)
	auctions := new(mockChatAuctionStore)
	return NewChatService(messages, auctions), messages, auctions
}

func TestChatService_SendMessage_Success(t *testing.T) {
	svc, messages, auctions := newTestChatService()
	notifier := new(mockNotifier)
	svc.SetNotifier(notifier)
	ctx := context.Background()

	ownerID := uuid.New()
	winnerID := uuid.New()
	auctionID := uuid.New()

	auction := &models.Auction{ID: auctionID, OwnerID: ownerID, Status: models.AuctionStatusClosed, WinnerID: &winnerID}
	auctions.On("GetByID", ctx, auctionID).Return(auction, nil)
	messages.On("Create", ctx, mock.AnythingOfType("*models.ChatMessage")).Return(nil)
	notifier.On("BroadcastToUser", ownerID, EventChatMessage, mock.Anything).Return(nil)

	message, err := svc.SendMessage(ctx, auctionID, winnerID, "  Приступаю к работе  ")

	assert.NoError(t, err)
	assert.Equal(t, "Приступаю к работе", message.Content)
	// Победитель пишет — уведомление уходит владельцу.
	notifier.AssertCalled(t, "BroadcastToUser", ownerID, EventChatMessage, mock.Anything)
}

func TestChatService_SendMessage_OwnerNotifiesWinner(t *testing.T) {
	svc, messages, auctions := newTestChatService()
	notifier := new(mockNotifier)
	svc.SetNotifier(notifier)
	ctx := context.Background()

	ownerID := uuid.New()
	winnerID := uuid.New()
	auctionID := uuid.New()

	auction := &models.Auction{ID: auctionID, OwnerID: ownerID, Status: models.AuctionStatusClosed, WinnerID: &winnerID}
	auctions.On("GetByID", ctx, auctionID).Return(auction, nil)
	messages.On("Create", ctx, mock.AnythingOfType("*models.ChatMessage")).Return(nil)
	notifier.On("BroadcastToUser", winnerID, EventChatMessage, mock.Anything).Return(nil)

	_, err := svc.SendMessage(ctx, auctionID, ownerID, "Когда будет готово?")

	assert.NoError(t, err)
	notifier.AssertCalled(t, "BroadcastToUser", winnerID, EventChatMessage, mock.Anything)
}

func TestChatService_SendMessage_ActiveAuction(t *testing.T) {
	svc, messages, auctions := newTestChatService()
	ctx := context.Background()

	ownerID := uuid.New()
	auctionID := uuid.New()
	auction := &models.Auction{ID: auctionID, OwnerID: ownerID, Status: models.AuctionStatusActive}
	auctions.On("GetByID", ctx, auctionID).Return(auction, nil)

	_, err := svc.SendMessage(ctx, auctionID, ownerID, "Привет")

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	assert.Contains(t, err.Error(), "после назначения победителя")
	messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestChatService_SendMessage_NotParticipant(t *testing.T) {
	svc, _, auctions := newTestChatService()
	ctx := context.Background()

	winnerID := uuid.New()
	auctionID := uuid.New()
	auction := &models.Auction{ID: auctionID, OwnerID: uuid.New(), Status: models.AuctionStatusClosed, WinnerID: &winnerID}
	auctions.On("GetByID", ctx, auctionID).Return(auction, nil)

	_, err := svc.SendMessage(ctx, auctionID, uuid.New(), "Привет")

	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestChatService_SendMessage_EmptyContent(t *testing.T) {
	svc, _, _ := newTestChatService()

	_, err := svc.SendMessage(context.Background(), uuid.New(), uuid.New(), "   ")

	assert.Error(t, err)
}

func TestChatService_SendMessage_AuctionNotFound(t *testing.T) {
	svc, _, auctions := newTestChatService()
	ctx := context.Background()
	auctionID := uuid.New()

	auctions.On("GetByID", ctx, auctionID).Return(nil, common.ErrAuctionNotFound)

	_, err := svc.SendMessage(ctx, auctionID, uuid.New(), "Привет")

	assert.ErrorIs(t, err, apperror.ErrAuctionNotFound)
}

func TestChatService_ListMessages_ClampsLimit(t *testing.T) {
	svc, messages, auctions := newTestChatService()
	ctx := context.Background()

	ownerID := uuid.New()
	winnerID := uuid.New()
	auctionID := uuid.New()

	auction := &models.Auction{ID: auctionID, OwnerID: ownerID, Status: models.AuctionStatusCompleted, WinnerID: &winnerID}
	auctions.On("GetByID", ctx, auctionID).Return(auction, nil)
	messages.On("ListByAuction", ctx, auctionID, 50, 0).Return([]models.ChatMessage{}, nil)

	_, err := svc.ListMessages(ctx, auctionID, ownerID, 1000, -5)

	assert.NoError(t, err)
	messages.AssertCalled(t, "ListByAuction", ctx, auctionID, 50, 0)
}
