package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/elitemarket/auction-backend/internal/models"
	"github.com/elitemarket/auction-backend/internal/repository/common"
)

// UserRepository инкапсулирует работу с пользователями, профилями и сессиями.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// profileRow — строка профиля с pq.StringArray для скана text[].
type profileRow struct {
	UserID          uuid.UUID      `db:"user_id"`
	DisplayName     string         `db:"display_name"`
	Bio             *string        `db:"bio"`
	Skills          pq.StringArray `db:"skills"`
	HourlyRate      float64        `db:"hourly_rate"`
	Availability    string         `db:"availability"`
	Location        *string        `db:"location"`
	Phone           *string        `db:"phone"`
	IDNumber        *string        `db:"id_number"`
	ExperienceYears *int           `db:"experience_years"`
	PhotoURL        *string        `db:"photo_url"`
	BannerURL       *string        `db:"banner_url"`
	Website         *string        `db:"website"`
	Rating          float64        `db:"rating"`
	CompletedJobs   int            `db:"completed_jobs"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r profileRow) toModel() *models.Profile {
	return &models.Profile{
		UserID:          r.UserID,
		DisplayName:     r.DisplayName,
		Bio:             r.Bio,
		Skills:          []string(r.Skills),
		HourlyRate:      r.HourlyRate,
		Availability:    r.Availability,
		Location:        r.Location,
		Phone:           r.Phone,
		IDNumber:        r.IDNumber,
		ExperienceYears: r.ExperienceYears,
		PhotoURL:        r.PhotoURL,
		BannerURL:       r.BannerURL,
		Website:         r.Website,
		Rating:          r.Rating,
		CompletedJobs:   r.CompletedJobs,
		UpdatedAt:       r.UpdatedAt,
	}
}

// Create сохраняет пользователя и стартовый профиль в одной транзакции.
func (r *UserRepository) Create(ctx context.Context, user *models.User, profile *models.Profile) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		userQuery := `
			INSERT INTO users (email, username, password_hash, role, security_question, security_answer)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, is_active, created_at, updated_at
		`
		err := tx.QueryRowxContext(ctx, userQuery,
			user.Email, user.Username, user.PasswordHash, user.Role,
			user.SecurityQuestion, user.SecurityAnswer,
		).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				return common.ErrEmailTaken
			}
			return fmt.Errorf("user repository: не удалось создать пользователя: %w", err)
		}

		profile.UserID = user.ID
		profileQuery := `
			INSERT INTO profiles (user_id, display_name, hourly_rate, availability, rating, completed_jobs)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING updated_at
		`
		err = tx.QueryRowxContext(ctx, profileQuery,
			profile.UserID, profile.DisplayName, profile.HourlyRate,
			profile.Availability, profile.Rating, profile.CompletedJobs,
		).Scan(&profile.UpdatedAt)
		if err != nil {
			return fmt.Errorf("user repository: не удалось создать профиль: %w", err)
		}

		return nil
	})
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT * FROM users WHERE id = $1`
	return common.GetByID[models.User](ctx, r.db, query, id, common.ErrUserNotFound)
}

// GetByEmail возвращает пользователя по email (без учёта регистра).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT * FROM users WHERE LOWER(email) = LOWER($1)`
	return common.GetByField[models.User](ctx, r.db, query, strings.TrimSpace(email), common.ErrUserNotFound)
}

// UpdatePassword обновляет хеш пароля пользователя.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("user repository: не удалось обновить пароль: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: не удалось получить количество строк: %w", err)
	}
	if rows == 0 {
		return common.ErrUserNotFound
	}
	return nil
}

// UpdateLastLoginAt отмечает время последнего входа.
func (r *UserRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE users SET last_login_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("user repository: не удалось обновить last_login_at: %w", err)
	}
	return nil
}

// GetProfile возвращает профиль пользователя.
func (r *UserRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	query := `SELECT * FROM profiles WHERE user_id = $1`
	var row profileRow
	err := r.db.GetContext(ctx, &row, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrProfileNotFound
		}
		return nil, fmt.Errorf("user repository: не удалось получить профиль: %w", err)
	}
	return row.toModel(), nil
}

// UpdateProfile сохраняет редактируемые поля профиля.
// Rating и completed_jobs намеренно не затрагиваются: их меняет только жизненный цикл аукционов.
func (r *UserRepository) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	query := `
		UPDATE profiles SET
			display_name = $2,
			bio = $3,
			skills = $4,
			hourly_rate = $5,
			availability = $6,
			location = $7,
			phone = $8,
			id_number = $9,
			experience_years = $10,
			photo_url = $11,
			banner_url = $12,
			website = $13,
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		profile.UserID, profile.DisplayName, profile.Bio, pq.Array(profile.Skills),
		profile.HourlyRate, profile.Availability, profile.Location, profile.Phone,
		profile.IDNumber, profile.ExperienceYears, profile.PhotoURL,
		profile.BannerURL, profile.Website,
	).Scan(&profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrProfileNotFound
		}
		return fmt.Errorf("user repository: не удалось обновить профиль: %w", err)
	}
	return nil
}

// UpdatePhotoURL обновляет только ссылку на аватар профиля.
func (r *UserRepository) UpdatePhotoURL(ctx context.Context, userID uuid.UUID, photoURL string) error {
	query := `UPDATE profiles SET photo_url = $2, updated_at = NOW() WHERE user_id = $1`
	result, err := r.db.ExecContext(ctx, query, userID, photoURL)
	if err != nil {
		return fmt.Errorf("user repository: не удалось обновить фото профиля: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: не удалось получить количество строк: %w", err)
	}
	if rows == 0 {
		return common.ErrProfileNotFound
	}
	return nil
}

// RecalculateRating пересчитывает рейтинг исполнителя как среднее по отзывам
// о выигранных им аукционах. Если отзывов нет, остаётся дефолтный рейтинг.
func (r *UserRepository) RecalculateRating(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE profiles SET
			rating = COALESCE((
				SELECT AVG(r.rating)::numeric(3,2)
				FROM reviews r
				JOIN auctions a ON a.id = r.auction_id
				WHERE a.winner_id = $1
			), rating),
			updated_at = NOW()
		WHERE user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("user repository: не удалось пересчитать рейтинг: %w", err)
	}
	return nil
}

// SearchProviders возвращает публичные карточки исполнителей с фильтрами
// по имени и навыку.
func (r *UserRepository) SearchProviders(ctx context.Context, nameFilter, skillFilter string, limit, offset int) ([]models.ProviderSearchResult, error) {
	query := `
		SELECT u.id, u.username, p.display_name, p.bio, p.skills, p.hourly_rate,
		       p.availability, p.location, p.photo_url, p.banner_url, p.rating, p.completed_jobs
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		WHERE u.role = 'provider' AND u.is_active = TRUE
	`
	args := []any{}
	argPos := 1

	if nameFilter != "" {
		query += fmt.Sprintf(" AND (p.display_name ILIKE $%d OR u.username ILIKE $%d)", argPos, argPos)
		args = append(args, "%"+nameFilter+"%")
		argPos++
	}
	if skillFilter != "" {
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM unnest(p.skills) s WHERE s ILIKE $%d)", argPos)
		args = append(args, "%"+skillFilter+"%")
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY p.rating DESC, p.completed_jobs DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("user repository: не удалось выполнить поиск исполнителей: %w", err)
	}
	defer rows.Close()

	results := make([]models.ProviderSearchResult, 0)
	for rows.Next() {
		var (
			res    models.ProviderSearchResult
			skills pq.StringArray
		)
		err := rows.Scan(&res.ID, &res.Username, &res.DisplayName, &res.Bio, &skills,
			&res.HourlyRate, &res.Availability, &res.Location, &res.PhotoURL,
			&res.BannerURL, &res.Rating, &res.CompletedJobs)
		if err != nil {
			return nil, fmt.Errorf("user repository: не удалось прочитать строку поиска: %w", err)
		}
		res.Skills = []string(skills)
		results = append(results, res)
	}

	return results, rows.Err()
}

// CreateSession сохраняет refresh-сессию пользователя.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO user_sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		session.UserID, session.RefreshToken, session.UserAgent,
		session.IPAddress, session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return fmt.Errorf("user repository: не удалось создать сессию: %w", err)
	}
	return nil
}

// GetSessionByToken возвращает живую сессию по refresh-токену.
func (r *UserRepository) GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	query := `SELECT * FROM user_sessions WHERE refresh_token = $1 AND expires_at > NOW()`
	return common.GetByField[models.Session](ctx, r.db, query, refreshToken, common.ErrSessionNotFound)
}

// ListSessions возвращает активные сессии пользователя.
func (r *UserRepository) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	query := `
		SELECT * FROM user_sessions
		WHERE user_id = $1 AND expires_at > NOW()
		ORDER BY created_at DESC
	`
	sessions := make([]models.Session, 0)
	if err := r.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, fmt.Errorf("user repository: не удалось получить сессии: %w", err)
	}
	return sessions, nil
}

// DeleteSession удаляет конкретную сессию пользователя.
func (r *UserRepository) DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	query := `DELETE FROM user_sessions WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, sessionID, userID)
	if err != nil {
		return fmt.Errorf("user repository: не удалось удалить сессию: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: не удалось получить количество строк: %w", err)
	}
	if rows == 0 {
		return common.ErrSessionNotFound
	}
	return nil
}

// DeleteSessionByToken удаляет сессию по refresh-токену (выход).
func (r *UserRepository) DeleteSessionByToken(ctx context.Context, refreshToken string) error {
	query := `DELETE FROM user_sessions WHERE refresh_token = $1`
	_, err := r.db.ExecContext(ctx, query, refreshToken)
	if err != nil {
		return fmt.Errorf("user repository: не удалось удалить сессию по токену: %w", err)
	}
	return nil
}

// DeleteAllSessionsExcept удаляет все сессии пользователя, кроме текущей.
func (r *UserRepository) DeleteAllSessionsExcept(ctx context.Context, userID, keepSessionID uuid.UUID) error {
	query := `DELETE FROM user_sessions WHERE user_id = $1 AND id != $2`
	_, err := r.db.ExecContext(ctx, query, userID, keepSessionID)
	if err != nil {
		return fmt.Errorf("user repository: не удалось удалить остальные сессии: %w", err)
	}
	return nil
}

// DeleteExpiredSessions подчищает протухшие сессии.
func (r *UserRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("user repository: не удалось удалить протухшие сессии: %w", err)
	}
	return result.RowsAffected()
}
