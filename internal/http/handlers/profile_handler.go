package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/elitemarket/auction-backend/internal/http/handlers/common"
	"github.com/elitemarket/auction-backend/internal/service"
	"github.com/elitemarket/auction-backend/internal/storage"
)

// Разрешённые типы аватаров.
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ProfileHandler предоставляет HTTP слой профилей и публичного поиска.
type ProfileHandler struct {
	profiles *service.ProfileService
	storage  *storage.PhotoStorage
}

// NewProfileHandler создаёт хэндлер.
func NewProfileHandler(profiles *service.ProfileService, storage *storage.PhotoStorage) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, storage: storage}
}

// GetMe обрабатывает GET /api/profiles/me.
func (h *ProfileHandler) GetMe(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	view, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// UpdateMe обрабатывает PUT /api/profiles/me.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req struct {
		DisplayName     string   `json:"display_name" binding:"required"`
		Bio             *string  `json:"bio"`
		Skills          []string `json:"skills"`
		HourlyRate      float64  `json:"hourly_rate"`
		Availability    string   `json:"availability"`
		Location        *string  `json:"location"`
		Phone           *string  `json:"phone"`
		IDNumber        *string  `json:"id_number"`
		ExperienceYears *int     `json:"experience_years"`
		PhotoURL        *string  `json:"photo_url"`
		BannerURL       *string  `json:"banner_url"`
		Website         *string  `json:"website"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	profile, err := h.profiles.UpdateProfile(c.Request.Context(), userID, service.UpdateProfileInput{
		DisplayName:     req.DisplayName,
		Bio:             req.Bio,
		Skills:          req.Skills,
		HourlyRate:      req.HourlyRate,
		Availability:    req.Availability,
		Location:        req.Location,
		Phone:           req.Phone,
		IDNumber:        req.IDNumber,
		ExperienceYears: req.ExperienceYears,
		PhotoURL:        req.PhotoURL,
		BannerURL:       req.BannerURL,
		Website:         req.Website,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// GetUserProfile обрабатывает GET /api/profiles/:id.
func (h *ProfileHandler) GetUserProfile(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	view, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SearchProviders обрабатывает GET /api/providers?name=...&skill=...
func (h *ProfileHandler) SearchProviders(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	cards, err := h.profiles.SearchProviders(c.Request.Context(), c.Query("name"), c.Query("skill"), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"providers": cards})
}

// UploadPhoto обрабатывает POST /api/profiles/me/photo.
// Тип файла проверяется по магическим байтам, расширение — вторично.
func (h *ProfileHandler) UploadPhoto(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "поле file обязательно")
		return
	}

	if file.Size == 0 {
		common.RespondBadRequest(c, "файл не может быть пустым")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		common.RespondBadRequest(c, "неподдерживаемый формат файла, разрешены jpg, jpeg, png, gif, webp")
		return
	}

	src, err := file.Open()
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer src.Close()

	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown {
		common.RespondBadRequest(c, "не удалось определить тип файла, разрешены только изображения")
		return
	}

	if !allowedMimeTypes[kind.MIME.Value] {
		common.RespondBadRequest(c, fmt.Sprintf("неподдерживаемый тип файла (%s)", kind.MIME.Value))
		return
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		_ = c.Error(err)
		return
	}

	relativePath, size, err := h.storage.SaveAvatar(c.Request.Context(), userID, file.Filename, src)
	if err != nil {
		_ = c.Error(err)
		return
	}

	photoURL := "/media/" + filepath.ToSlash(relativePath)
	if err := h.profiles.SetPhotoURL(c.Request.Context(), userID, photoURL); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"photo_url": photoURL,
		"size":      size,
	})
}
