package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/elitemarket/auction-backend/internal/models"
	"github.com/elitemarket/auction-backend/internal/pkg/apperror"
	"github.com/elitemarket/auction-backend/internal/repository/common"
)

type mockAuctionStore struct {
	mock.Mock
}

func (m *mockAuctionStore) Create(ctx context.Context, auction *models.Auction) error {
	args := m.Called(ctx, auction)
	if args.Error(0) == nil {
		auction.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockAuctionStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Auction), args.Error(1)
}

func (m *mockAuctionStore) GetByIDWithDetails(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Auction), args.Error(1)
}

func (m *mockAuctionStore) List(ctx context.Context, status string, limit, offset int) ([]models.Auction, error) {
	args := m.Called(ctx, status, limit, offset)
	return args.Get(0).([]models.Auction), args.Error(1)
}

func (m *mockAuctionStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Auction, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]models.Auction), args.Error(1)
}

func (m *mockAuctionStore) ListAssignments(ctx context.Context, userID uuid.UUID) ([]models.Auction, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Auction), args.Error(1)
}

func (m *mockAuctionStore) CreateBid(ctx context.Context, bid *models.Bid) error {
	args := m.Called(ctx, bid)
	if args.Error(0) == nil {
		bid.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockAuctionStore) ListBids(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error) {
	args := m.Called(ctx, auctionID)
	return args.Get(0).([]models.Bid), args.Error(1)
}

func (m *mockAuctionStore) AcceptBid(ctx context.Context, auctionID, winnerID uuid.UUID) error {
	args := m.Called(ctx, auctionID, winnerID)
	return args.Error(0)
}

func (m *mockAuctionStore) MarkDelivered(ctx context.Context, auctionID, winnerID uuid.UUID) error {
	args := m.Called(ctx, auctionID, winnerID)
	return args.Error(0)
}

type mockReviewStore struct {
	mock.Mock
}

func (m *mockReviewStore) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	if args.Error(0) == nil {
		review.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockReviewStore) GetByAuctionID(ctx context.Context, auctionID uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, auctionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

type mockRatingStore struct {
	mock.Mock
}

func (m *mockRatingStore) RecalculateRating(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	args := m.Called(userID, event, data)
	return args.Error(0)
}

func newTestAuctionService() (*AuctionService, *mockAuctionStore, *mockReviewStore, *mockRatingStore) {
	auctions := new(mockAuctionStore)
	reviews := new(mockReviewStore)
	ratings := new(mockRatingStore)
	svc := NewAuctionService(auctions, reviews, ratings)
	return svc, auctions, reviews, ratings
}

func TestAuctionService_CreateAuction_Success(t *testing.T) {
	svc, auctions, _, _ := newTestAuctionService()
	ctx := context.Background()
	ownerID := uuid.New()

	auctions.On("Create", ctx, mock.AnythingOfType("*models.Auction")).Return(nil)

	auction, err := svc.CreateAuction(ctx, ownerID, models.RoleClient, CreateAuctionInput{
		Title:       "Лендинг для кофейни",
		Description: "Нужен одностраничный сайт с формой заказа",
		Budget:      500,
	})

	assert.NoError(t, err)
	assert.NotNil(t, auction)
	assert.Equal(t, models.AuctionStatusActive, auction.Status)
	assert.Equal(t, ownerID, auction.OwnerID)
	// Без явного срока дедлайн — сутки от публикации.
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), auction.Deadline, time.Minute)
}

func TestAuctionService_CreateAuction_ProviderForbidden(t *testing.T) {
	svc, _, _, _ := newTestAuctionService()

	_, err := svc.CreateAuction(context.Background(), uuid.New(), models.RoleProvider, CreateAuctionInput{
		Title:       "Лендинг для кофейни",
		Description: "Нужен одностраничный сайт с формой заказа",
		Budget:      500,
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestAuctionService_CreateAuction_InvalidBudget(t *testing.T) {
	svc, _, _, _ := newTestAuctionService()

	_, err := svc.CreateAuction(context.Background(), uuid.New(), models.RoleClient, CreateAuctionInput{
		Title:       "Лендинг для кофейни",
		Description: "Нужен одностраничный сайт с формой заказа",
		Budget:      -10,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "положительным")
}

func TestAuctionService_SubmitBid_Success(t *testing.T) {
	svc, auctions, _, _ := newTestAuctionService()
	notifier := new(mockNotifier)
	svc.SetNotifier(notifier)
	ctx := context.Background()

	ownerID := uuid.New()
	bidderID := uuid.New()
	auctionID := uuid.New()

	auction := &models.Auction{ID: auctionID, OwnerID: ownerID, Status: models.AuctionStatusActive}
	auctions.On("GetByID", ctx, auctionID).Return(auction, nil)
	auctions.On("CreateBid", ctx, mock.AnythingOfType("*models.Bid")).Return(nil)
	notifier.On("BroadcastToUser", ownerID, EventBidCreated, mock.Anything).Return(nil)

	bid, err := svc.SubmitBid(ctx, auctionID, bidderID, models.RoleProvider, 450)

	assert.NoError(t, err)
	assert.NotNil(t, bid)
	assert.Equal(t, 450.0, bid.Amount)
	notifier.AssertCalled(t, "BroadcastToUser", ownerID, EventBidCreated, mock.Anything)
}

func TestAuctionService_SubmitBid_ClosedAuction(t *testing.T) {
	svc, auctions, _, _ := newTestAuctionService()
	ctx := context.Background()
	auctionID := uuid.New()

	auction := &models.Auction{ID: auctionID, OwnerID: uuid.New(), Status: models.AuctionStatusClosed}
	auctions.On("GetByID", ctx, auctionID).Return(auction, nil)

	_, err := svc.SubmitBid(ctx, auctionID, uuid.New(), models.RoleProvider, 450)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	auctions.AssertNotCalled(t, "CreateBid", mock.Anything, mock.Anything)
}

func TestAuctionService_SubmitBid_OwnAuction(t *testing.T) {
	svc, auctions, _, _ := newTestAuctionService()
	ctx := context.Background()
	ownerID := uuid.New()
	auctionID := uuid.New()

	auction := &models.Auction{ID: auctionID, OwnerID: ownerID, Status: models.AuctionStatusActive}
	auctions.On("GetByID", ctx, auctionID).Return(auction, nil)

	_, err := svc.SubmitBid(ctx, auctionID, ownerID, models.RoleProvider, 450)

	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestAuctionService_SubmitBid_ClientForbidden(t *testing.T) {
	svc, _, _, _ := newTestAuctionService()

	_, err := svc.SubmitBid(context.Background(), uuid.New(), uuid.New(), models.RoleClient, 450)

	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestAuctionService_AcceptBid_Success(t *testing.T) {
	svc, auctions, _, _ := newTestAuctionService()
	notifier := new(mockNotifier)
	svc.SetNotifier(notifier)
	ctx := context.Background()

	ownerID := uuid.New()
	bidderID := uuid.New()
	auctionID := uuid.New()
	bidID := uuid.New()

	active := &models.Auction{ID: auctionID, OwnerID: ownerID, Status: models.AuctionStatusActive}
	closed := &models.Auction{ID: auctionID, OwnerID: ownerID, Status: models.AuctionStatusClosed, WinnerID: &bidderID}

	auctions.On("GetByID", ctx, auctionID).Return(active, nil).Once()
	auctions.On("ListBids", ctx, auctionID).Return([]models.Bid{
		{ID: bidID, AuctionID: auctionID, BidderID: bidderID, Amount: 450},
	}, nil)
	auctions.On("AcceptBid", ctx, auctionID, bidderID).Return(nil)
	auctions.On("GetByID", ctx, auctionID).Return(closed, nil).Once()
	notifier.On("BroadcastToUser", bidderID, EventBidAccepted, mock.Anything).Return(nil)

	auction, err := svc.AcceptBid(ctx, auctionID, bidID, ownerID)

	assert.NoError(t, err)
	assert.Equal(t, models.AuctionStatusClosed, auction.Status)
	assert.Equal(t, bidderID, *auction.WinnerID)
}

func TestAuctionService_AcceptBid_NotOwner(t *testing.T) {
	svc, auctions, _, _ := newTestAuctionService()
	ctx := context.Background()
	auctionID := uuid.New()

	auction := &models.Auction{ID: auctionID, OwnerID: uuid.New(), Status: models.AuctionStatusActive}
	auctions.On("GetByID", ctx, auctionID).Return(auction, nil)

	_, err := svc.AcceptBid(ctx, auctionID, uuid.New(), uuid.New())

	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestAuctionService_AcceptBid_BidNotFound(t *testing.T) {
	svc, auctions, _, _ := newTestAuctionService()
	ctx := context.Background()
	ownerID := uuid.New()
	auctionID := uuid.New()

	auction := &models.Auction{ID: auctionID, OwnerID: ownerID, Status: models.AuctionStatusActive}
	auctions.On("GetByID", ctx, auctionID).Return(auction, nil)
	auctions.On("ListBids", ctx, auctionID).Return([]models.Bid{}, nil)

	_, err := svc.AcceptBid(ctx, auctionID, uuid.New(), ownerID)

	assert.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestAuctionService_AcceptBid_LostRace(t *testing.T) {
	svc, auctions, _, _ := newTestAuctionService()
	ctx := context.Background()
	ownerID := uuid.New()
	bidderID := uuid.New()
	auctionID := uuid.New()
	bidID := uuid.New()

	// Снимок ещё активен, но к моменту UPDATE аукцион уже закрыт
	// конкурирующим запросом.
	auction := &models.Auction{ID: auctionID, OwnerID: ownerID, Status: models.AuctionStatusActive}
	auctions.On("GetByID", ctx, auctionID).Return(auction, nil)
	auctions.On("ListBids", ctx, auctionID).Return([]models.Bid{
		{ID: bidID, AuctionID: auctionID, BidderID: bidderID},
	}, nil)
	auctions.On("AcceptBid", ctx, auctionID, bidderID).Return(common.ErrAuctionNotActive)

	_, err := svc.AcceptBid(ctx, auctionID, bidID, ownerID)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestAuctionService_MarkDelivered_Success(t *testing.T) {
	svc, auctions, _, _ := newTestAuctionService()
	notifier := new(mockNotifier)
	svc.SetNotifier(notifier)
	ctx := context.Background()

	ownerID := uuid.New()
	winnerID := uuid.New()
	auctionID := uuid.New()

	closed := &models.Auction{ID: auctionID, OwnerID: ownerID, Status: models.AuctionStatusClosed, WinnerID: &winnerID}
	completed := &models.Auction{ID: auctionID, OwnerID: ownerID, Status: models.AuctionStatusCompleted, WinnerID: &winnerID}

	auctions.On("GetByID", ctx, auctionID).Return(closed, nil).Once()
	auctions.On("MarkDelivered", ctx, auctionID, winnerID).Return(nil)
	auctions.On("GetByID", ctx, auctionID).Return(completed, nil).Once()
	notifier.On("BroadcastToUser", ownerID, EventAuctionCompleted, mock.Anything).Return(nil)

	auction, err := svc.MarkDelivered(ctx, auctionID, winnerID)

	assert.NoError(t, err)
	assert.Equal(t, models.AuctionStatusCompleted, auction.Status)
	auctions.AssertNumberOfCalls(t, "MarkDelivered", 1)
}

func TestAuctionService_MarkDelivered_NotWinner(t *testing.T) {
	svc, auctions, _, _ := newTestAuctionService()
	ctx := context.Background()

	winnerID := uuid.New()
	auctionID := uuid.New()
	auction := &models.Auction{ID: auctionID, OwnerID: uuid.New(), Status: models.AuctionStatusClosed, WinnerID: &winnerID}
	auctions.On("GetByID", ctx, auctionID).Return(auction, nil)

	_, err := svc.MarkDelivered(ctx, auctionID, uuid.New())

	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
	auctions.AssertNotCalled(t, "MarkDelivered", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuctionService_MarkDelivered_AlreadyCompleted(t *testing.T) {
	svc, auctions, _, _ := newTestAuctionService()
	ctx := context.Background()

	winnerID := uuid.New()
	auctionID := uuid.New()
	auction := &models.Auction{ID: auctionID, OwnerID: uuid.New(), Status: models.AuctionStatusCompleted, WinnerID: &winnerID}
	auctions.On("GetByID", ctx, auctionID).Return(auction, nil)

	_, err := svc.MarkDelivered(ctx, auctionID, winnerID)

	// Повторная сдача не проходит: счётчик работ не может вырасти дважды.
	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	auctions.AssertNotCalled(t, "MarkDelivered", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuctionService_SubmitReview_Success(t *testing.T) {
	svc, auctions, reviews, ratings := newTestAuctionService()
	notifier := new(mockNotifier)
	svc.SetNotifier(notifier)
	ctx := context.Background()

	ownerID := uuid.New()
	winnerID := uuid.New()
	auctionID := uuid.New()

	auction := &models.Auction{ID: auctionID, OwnerID: ownerID, Status: models.AuctionStatusCompleted, WinnerID: &winnerID}
	auctions.On("GetByID", ctx, auctionID).Return(auction, nil)
	reviews.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)
	ratings.On("RecalculateRating", ctx, winnerID).Return(nil)
	notifier.On("BroadcastToUser", winnerID, EventReviewCreated, mock.Anything).Return(nil)

	comment := "Отличная работа!"
	review, err := svc.SubmitReview(ctx, auctionID, ownerID, SubmitReviewInput{Rating: 5, Comment: &comment})

	assert.NoError(t, err)
	assert.NotNil(t, review)
	assert.Equal(t, 5, review.Rating)
	ratings.AssertCalled(t, "RecalculateRating", ctx, winnerID)
}

func TestAuctionService_SubmitReview_InvalidRating(t *testing.T) {
	svc, _, _, _ := newTestAuctionService()

	_, err := svc.SubmitReview(context.Background(), uuid.New(), uuid.New(), SubmitReviewInput{Rating: 0})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "от 1 до 5")

	_, err = svc.SubmitReview(context.Background(), uuid.New(), uuid.New(), SubmitReviewInput{Rating: 6})
	assert.Error(t, err)
}

func TestAuctionService_SubmitReview_NotCompleted(t *testing.T) {
	svc, auctions, _, _ := newTestAuctionService()
	ctx := context.Background()

	ownerID := uuid.New()
	auctionID := uuid.New()
	auction := &models.Auction{ID: auctionID, OwnerID: ownerID, Status: models.AuctionStatusClosed}
	auctions.On("GetByID", ctx, auctionID).Return(auction, nil)

	_, err := svc.SubmitReview(ctx, auctionID, ownerID, SubmitReviewInput{Rating: 5})

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestAuctionService_SubmitReview_Duplicate(t *testing.T) {
	svc, auctions, reviews, _ := newTestAuctionService()
	ctx := context.Background()

	ownerID := uuid.New()
	winnerID := uuid.New()
	auctionID := uuid.New()

	auction := &models.Auction{ID: auctionID, OwnerID: ownerID, Status: models.AuctionStatusCompleted, WinnerID: &winnerID}
	auctions.On("GetByID", ctx, auctionID).Return(auction, nil)
	reviews.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(common.ErrReviewExists)

	_, err := svc.SubmitReview(ctx, auctionID, ownerID, SubmitReviewInput{Rating: 4})

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestAuctionService_SubmitReview_NotOwner(t *testing.T) {
	svc, auctions, _, _ := newTestAuctionService()
	ctx := context.Background()

	winnerID := uuid.New()
	auctionID := uuid.New()
	auction := &models.Auction{ID: auctionID, OwnerID: uuid.New(), Status: models.AuctionStatusCompleted, WinnerID: &winnerID}
	auctions.On("GetByID", ctx, auctionID).Return(auction, nil)

	// Победитель не может оставить отзыв сам о себе.
	_, err := svc.SubmitReview(ctx, auctionID, winnerID, SubmitReviewInput{Rating: 5})

	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestAuctionService_FullLifecycle(t *testing.T) {
	svc, auctions, reviews, ratings := newTestAuctionService()
	ctx := context.Background()

	ownerID := uuid.New()
	providerID := uuid.New()

	auctions.On("Create", ctx, mock.AnythingOfType("*models.Auction")).Return(nil)
	auction, err := svc.CreateAuction(ctx, ownerID, models.RoleClient, CreateAuctionInput{
		Title:       "Лендинг для кофейни",
		Description: "Нужен одностраничный сайт с формой заказа",
		Budget:      500,
	})
	assert.NoError(t, err)

	active := &models.Auction{ID: auction.ID, OwnerID: ownerID, Status: models.AuctionStatusActive}
	auctions.On("GetByID", ctx, auction.ID).Return(active, nil).Once()
	auctions.On("CreateBid", ctx, mock.AnythingOfType("*models.Bid")).Return(nil)
	bid, err := svc.SubmitBid(ctx, auction.ID, providerID, models.RoleProvider, 450)
	assert.NoError(t, err)

	closed := &models.Auction{ID: auction.ID, OwnerID: ownerID, Status: models.AuctionStatusClosed, WinnerID: &providerID}
	auctions.On("GetByID", ctx, auction.ID).Return(active, nil).Once()
	auctions.On("ListBids", ctx, auction.ID).Return([]models.Bid{*bid}, nil)
	auctions.On("AcceptBid", ctx, auction.ID, providerID).Return(nil)
	auctions.On("GetByID", ctx, auction.ID).Return(closed, nil).Once()
	accepted, err := svc.AcceptBid(ctx, auction.ID, bid.ID, ownerID)
	assert.NoError(t, err)
	assert.Equal(t, models.AuctionStatusClosed, accepted.Status)

	completed := &models.Auction{ID: auction.ID, OwnerID: ownerID, Status: models.AuctionStatusCompleted, WinnerID: &providerID}
	auctions.On("GetByID", ctx, auction.ID).Return(closed, nil).Once()
	auctions.On("MarkDelivered", ctx, auction.ID, providerID).Return(nil)
	auctions.On("GetByID", ctx, auction.ID).Return(completed, nil).Once()
	delivered, err := svc.MarkDelivered(ctx, auction.ID, providerID)
	assert.NoError(t, err)
	assert.Equal(t, models.AuctionStatusCompleted, delivered.Status)

	auctions.On("GetByID", ctx, auction.ID).Return(completed, nil).Once()
	reviews.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)
	ratings.On("RecalculateRating", ctx, providerID).Return(nil)
	review, err := svc.SubmitReview(ctx, auction.ID, ownerID, SubmitReviewInput{Rating: 5})
	assert.NoError(t, err)
	assert.Equal(t, 5, review.Rating)

	auctions.AssertNumberOfCalls(t, "MarkDelivered", 1)
	ratings.AssertCalled(t, "RecalculateRating", ctx, providerID)
}
