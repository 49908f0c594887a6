package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/elitemarket/auction-backend/internal/http/middleware"
	"github.com/elitemarket/auction-backend/internal/models"
)

// withAuth эмулирует AuthMiddleware, кладя пользователя в контекст.
func withAuth(userID uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, userID)
		c.Set(middleware.ContextRoleKey, role)
		c.Next()
	}
}

func TestAuctionHandler_Create_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	handler := &AuctionHandler{auctions: nil}
	r.POST("/api/auctions", handler.Create)

	body := `{"title":"Лендинг","description":"Нужен одностраничный сайт","budget":500}`
	req := httptest.NewRequest(http.MethodPost, "/api/auctions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "требуется авторизация")
}

func TestAuctionHandler_Create_MissingRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uuid.New())
		c.Next()
	})

	handler := &AuctionHandler{auctions: nil}
	r.POST("/api/auctions", handler.Create)

	req := httptest.NewRequest(http.MethodPost, "/api/auctions", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuctionHandler_Create_InvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withAuth(uuid.New(), models.RoleClient))

	handler := &AuctionHandler{auctions: nil}
	r.POST("/api/auctions", handler.Create)

	// Нет обязательного поля budget.
	body := `{"title":"Лендинг","description":"Нужен одностраничный сайт"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auctions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuctionHandler_SubmitBid_InvalidAuctionID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withAuth(uuid.New(), models.RoleProvider))

	handler := &AuctionHandler{auctions: nil}
	r.POST("/api/auctions/:id/bids", handler.SubmitBid)

	req := httptest.NewRequest(http.MethodPost, "/api/auctions/not-a-uuid/bids", strings.NewReader(`{"amount":450}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "UUID")
}

func TestAuctionHandler_SubmitBid_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	handler := &AuctionHandler{auctions: nil}
	r.POST("/api/auctions/:id/bids", handler.SubmitBid)

	req := httptest.NewRequest(http.MethodPost, "/api/auctions/"+uuid.NewString()+"/bids", strings.NewReader(`{"amount":450}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuctionHandler_AcceptBid_InvalidBidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withAuth(uuid.New(), models.RoleClient))

	handler := &AuctionHandler{auctions: nil}
	r.POST("/api/auctions/:id/bids/:bidId/accept", handler.AcceptBid)

	req := httptest.NewRequest(http.MethodPost, "/api/auctions/"+uuid.NewString()+"/bids/bad-id/accept", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuctionHandler_MarkDelivered_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	handler := &AuctionHandler{auctions: nil}
	r.POST("/api/auctions/:id/deliver", handler.MarkDelivered)

	req := httptest.NewRequest(http.MethodPost, "/api/auctions/"+uuid.NewString()+"/deliver", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuctionHandler_SubmitReview_InvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withAuth(uuid.New(), models.RoleClient))

	handler := &AuctionHandler{auctions: nil}
	r.POST("/api/auctions/:id/review", handler.SubmitReview)

	req := httptest.NewRequest(http.MethodPost, "/api/auctions/"+uuid.NewString()+"/review", strings.NewReader(`{"comment":"ok"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
