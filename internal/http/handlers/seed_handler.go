package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elitemarket/auction-backend/internal/http/handlers/common"
	"github.com/elitemarket/auction-backend/internal/service"
)

// SeedHandler генерирует демонстрационные данные. Доступен только в development.
type SeedHandler struct {
	seed *service.SeedService
}

// NewSeedHandler создаёт хэндлер.
func NewSeedHandler(seed *service.SeedService) *SeedHandler {
	return &SeedHandler{seed: seed}
}

// Seed обрабатывает POST /api/dev/seed.
func (h *SeedHandler) Seed(c *gin.Context) {
	numUsers := common.ParseIntQuery(c, "users", 30)
	numAuctions := common.ParseIntQuery(c, "auctions", 20)

	if numUsers < 2 || numUsers > 500 {
		common.RespondBadRequest(c, "параметр users должен быть от 2 до 500")
		return
	}
	if numAuctions < 1 || numAuctions > 500 {
		common.RespondBadRequest(c, "параметр auctions должен быть от 1 до 500")
		return
	}

	if err := h.seed.SeedData(c.Request.Context(), numUsers, numAuctions); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "данные сгенерированы",
		"users":    numUsers,
		"auctions": numAuctions,
	})
}
