package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elitemarket/auction-backend/internal/http/handlers/common"
	"github.com/elitemarket/auction-backend/internal/service"
)

// AuctionHandler предоставляет HTTP слой жизненного цикла аукционов.
type AuctionHandler struct {
	auctions *service.AuctionService
}

// NewAuctionHandler создаёт хэндлер.
func NewAuctionHandler(auctions *service.AuctionService) *AuctionHandler {
	return &AuctionHandler{auctions: auctions}
}

// Create обрабатывает POST /api/auctions.
func (h *AuctionHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	role, err := common.CurrentUserRole(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req struct {
		Title         string  `json:"title" binding:"required"`
		Description   string  `json:"description" binding:"required"`
		Budget        float64 `json:"budget" binding:"required"`
		DurationHours int     `json:"duration_hours"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	auction, err := h.auctions.CreateAuction(c.Request.Context(), userID, role, service.CreateAuctionInput{
		Title:         req.Title,
		Description:   req.Description,
		Budget:        req.Budget,
		DurationHours: req.DurationHours,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"auction": auction})
}

// List обрабатывает GET /api/auctions?status=active.
func (h *AuctionHandler) List(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	auctions, err := h.auctions.ListAuctions(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"auctions": auctions})
}

// Get обрабатывает GET /api/auctions/:id.
func (h *AuctionHandler) Get(c *gin.Context) {
	auctionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	auction, err := h.auctions.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"auction": auction})
}

// My обрабатывает GET /api/auctions/my.
func (h *AuctionHandler) My(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	auctions, err := h.auctions.ListMyAuctions(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"auctions": auctions})
}

// Assignments обрабатывает GET /api/auctions/assignments.
func (h *AuctionHandler) Assignments(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	auctions, err := h.auctions.ListAssignments(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"auctions": auctions})
}

// SubmitBid обрабатывает POST /api/auctions/:id/bids.
func (h *AuctionHandler) SubmitBid(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	role, err := common.CurrentUserRole(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	auctionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Amount float64 `json:"amount" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	bid, err := h.auctions.SubmitBid(c.Request.Context(), auctionID, userID, role, req.Amount)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"bid": bid})
}

// ListBids обрабатывает GET /api/auctions/:id/bids.
func (h *AuctionHandler) ListBids(c *gin.Context) {
	auctionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	auction, err := h.auctions.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bids": auction.Bids})
}

// AcceptBid обрабатывает POST /api/auctions/:id/bids/:bidId/accept.
func (h *AuctionHandler) AcceptBid(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	auctionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	bidID, err := common.ParseUUIDParam(c, "bidId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	auction, err := h.auctions.AcceptBid(c.Request.Context(), auctionID, bidID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"auction": auction})
}

// MarkDelivered обрабатывает POST /api/auctions/:id/deliver.
func (h *AuctionHandler) MarkDelivered(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	auctionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	auction, err := h.auctions.MarkDelivered(c.Request.Context(), auctionID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"auction": auction})
}

// SubmitReview обрабатывает POST /api/auctions/:id/review.
func (h *AuctionHandler) SubmitReview(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	auctionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Rating  int     `json:"rating" binding:"required"`
		Comment *string `json:"comment"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	review, err := h.auctions.SubmitReview(c.Request.Context(), auctionID, userID, service.SubmitReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// GetReview обрабатывает GET /api/auctions/:id/review.
func (h *AuctionHandler) GetReview(c *gin.Context) {
	auctionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	review, err := h.auctions.GetReview(c.Request.Context(), auctionID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"review": review})
}
