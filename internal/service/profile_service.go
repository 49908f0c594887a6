package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/elitemarket/auction-backend/internal/logger"
	"github.com/elitemarket/auction-backend/internal/models"
	"github.com/elitemarket/auction-backend/internal/pkg/apperror"
	"github.com/elitemarket/auction-backend/internal/reputation"
	"github.com/elitemarket/auction-backend/internal/repository/common"
	"github.com/elitemarket/auction-backend/internal/validation"
)

// ProfileStore описывает зависимости сервиса от хранилища профилей.
type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	UpdatePhotoURL(ctx context.Context, userID uuid.UUID, photoURL string) error
	SearchProviders(ctx context.Context, nameFilter, skillFilter string, limit, offset int) ([]models.ProviderSearchResult, error)
}

// ProfileReviewStore — отзывы для публичной карточки исполнителя.
type ProfileReviewStore interface {
	ListByWinner(ctx context.Context, winnerID uuid.UUID) ([]models.Review, error)
}

// ProfileService содержит бизнес-логику профилей и публичного поиска.
type ProfileService struct {
	users    ProfileStore
	reviews  ProfileReviewStore
	notifier Notifier
}

// UpdateProfileInput содержит редактируемые поля профиля.
type UpdateProfileInput struct {
	DisplayName     string
	Bio             *string
	Skills          []string
	HourlyRate      float64
	Availability    string
	Location        *string
	Phone           *string
	IDNumber        *string
	ExperienceYears *int
	PhotoURL        *string
	BannerURL       *string
	Website         *string
}

// ProfileView — профиль с вычисленным бейджем репутации.
type ProfileView struct {
	User    *models.User     `json:"user"`
	Profile *models.Profile  `json:"profile"`
	Badge   reputation.Badge `json:"badge"`
	Reviews []models.Review  `json:"reviews,omitempty"`
}

// NewProfileService создаёт сервис профилей.
func NewProfileService(users ProfileStore, reviews ProfileReviewStore) *ProfileService {
	return &ProfileService{
		users:   users,
		reviews: reviews,
	}
}

// SetNotifier подключает рассылку событий.
func (s *ProfileService) SetNotifier(n Notifier) {
	s.notifier = n
}

// GetProfile возвращает профиль пользователя с бейджем репутации.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}

	profile, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrProfileNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}

	view := &ProfileView{
		User:    user,
		Profile: profile,
		Badge:   reputation.Tier(profile.CompletedJobs, profile.Rating),
	}

	// Отзывы показываем только на карточках исполнителей.
	if user.Role == models.RoleProvider {
		reviews, err := s.reviews.ListByWinner(ctx, userID)
		if err != nil {
			return nil, err
		}
		view.Reviews = reviews
	}

	return view, nil
}

// UpdateProfile сохраняет редактируемые поля профиля текущего пользователя.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*models.Profile, error) {
	if err := validation.ValidateDisplayName(in.DisplayName); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateBio(in.Bio); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateSkills(in.Skills); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateHourlyRate(in.HourlyRate); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLocation(in.Location); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateExternalLink(in.Website); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateExternalLink(in.PhotoURL); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateExternalLink(in.BannerURL); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	availability := in.Availability
	if availability == "" {
		availability = models.AvailabilityActive
	}
	if _, ok := models.ValidAvailability[availability]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "доступность должна быть active или away")
	}

	current, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrProfileNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}

	skills := make([]string, 0, len(in.Skills))
	for _, skill := range in.Skills {
		skills = append(skills, strings.TrimSpace(skill))
	}

	current.DisplayName = strings.TrimSpace(in.DisplayName)
	current.Bio = in.Bio
	current.Skills = skills
	current.HourlyRate = in.HourlyRate
	current.Availability = availability
	current.Location = in.Location
	current.Phone = in.Phone
	current.IDNumber = in.IDNumber
	current.ExperienceYears = in.ExperienceYears
	current.PhotoURL = in.PhotoURL
	current.BannerURL = in.BannerURL
	current.Website = in.Website

	if err := s.users.UpdateProfile(ctx, current); err != nil {
		return nil, err
	}

	// Другие сессии пользователя видят изменения без перезагрузки.
	if s.notifier != nil {
		if err := s.notifier.BroadcastToUser(userID, EventProfileUpdated, current); err != nil {
			if logger.Log != nil {
				logger.Log.WithFields(map[string]interface{}{
					"user_id": userID,
					"error":   err.Error(),
				}).Warn("profile service: не удалось отправить событие")
			}
		}
	}

	return current, nil
}

// SetPhotoURL сохраняет ссылку на загруженный аватар.
func (s *ProfileService) SetPhotoURL(ctx context.Context, userID uuid.UUID, photoURL string) error {
	if err := s.users.UpdatePhotoURL(ctx, userID, photoURL); err != nil {
		if errors.Is(err, common.ErrProfileNotFound) {
			return apperror.ErrUserNotFound
		}
		return err
	}
	return nil
}

// SearchProviders возвращает публичные карточки исполнителей с бейджами.
func (s *ProfileService) SearchProviders(ctx context.Context, nameFilter, skillFilter string, limit, offset int) ([]ProviderCard, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	results, err := s.users.SearchProviders(ctx, strings.TrimSpace(nameFilter), strings.TrimSpace(skillFilter), limit, offset)
	if err != nil {
		return nil, err
	}

	cards := make([]ProviderCard, 0, len(results))
	for _, res := range results {
		cards = append(cards, ProviderCard{
			ProviderSearchResult: res,
			Badge:                reputation.Tier(res.CompletedJobs, res.Rating),
		})
	}

	return cards, nil
}

// ProviderCard — карточка исполнителя в поиске вместе с бейджем.
type ProviderCard struct {
	models.ProviderSearchResult
	Badge reputation.Badge `json:"badge"`
}
