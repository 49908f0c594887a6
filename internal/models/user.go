package models

import (
	"time"

	"github.com/google/uuid"
)

// User описывает сущность пользователя маркетплейса.
type User struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	Email            string     `db:"email" json:"email"`
	Username         string     `db:"username" json:"username"`
	PasswordHash     string     `db:"password_hash" json:"-"`
	Role             string     `db:"role" json:"role"`
	SecurityQuestion string     `db:"security_question" json:"security_question,omitempty"`
	SecurityAnswer   string     `db:"security_answer" json:"-"`
	IsActive         bool       `db:"is_active" json:"is_active"`
	LastLoginAt      *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Profile описывает публичный профиль пользователя.
// Rating и CompletedJobs обновляются только жизненным циклом аукционов.
type Profile struct {
	UserID          uuid.UUID `db:"user_id" json:"user_id"`
	DisplayName     string    `db:"display_name" json:"display_name"`
	Bio             *string   `db:"bio" json:"bio,omitempty"`
	Skills          []string  `db:"skills" json:"skills"`
	HourlyRate      float64   `db:"hourly_rate" json:"hourly_rate"`
	Availability    string    `db:"availability" json:"availability"`
	Location        *string   `db:"location" json:"location,omitempty"`
	Phone           *string   `db:"phone" json:"phone,omitempty"`
	IDNumber        *string   `db:"id_number" json:"id_number,omitempty"`
	ExperienceYears *int      `db:"experience_years" json:"experience_years,omitempty"`
	PhotoURL        *string   `db:"photo_url" json:"photo_url,omitempty"`
	BannerURL       *string   `db:"banner_url" json:"banner_url,omitempty"`
	Website         *string   `db:"website" json:"website,omitempty"`
	Rating          float64   `db:"rating" json:"rating"`
	CompletedJobs   int       `db:"completed_jobs" json:"completed_jobs"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Session представляет сохранённую сессию пользователя.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"refresh_token"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ProviderSearchResult — карточка исполнителя в публичном поиске.
type ProviderSearchResult struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"display_name"`
	Bio           *string   `json:"bio,omitempty"`
	Skills        []string  `json:"skills,omitempty"`
	HourlyRate    float64   `json:"hourly_rate"`
	Availability  string    `json:"availability"`
	Location      *string   `json:"location,omitempty"`
	PhotoURL      *string   `json:"photo_url,omitempty"`
	BannerURL     *string   `json:"banner_url,omitempty"`
	Rating        float64   `json:"rating"`
	CompletedJobs int       `json:"completed_jobs"`
}
