package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// GetByID выполняет выборку одной записи по первичному ключу.
// notFoundErr возвращается, если запись отсутствует.
func GetByID[T any](ctx context.Context, db *sqlx.DB, query string, id uuid.UUID, notFoundErr error) (*T, error) {
	var entity T
	err := db.GetContext(ctx, &entity, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundErr
		}
		return nil, fmt.Errorf("repository: ошибка выборки по id: %w", err)
	}
	return &entity, nil
}

// GetByField выполняет выборку одной записи по произвольному значению поля.
func GetByField[T any](ctx context.Context, db *sqlx.DB, query string, value any, notFoundErr error) (*T, error) {
	var entity T
	err := db.GetContext(ctx, &entity, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundErr
		}
		return nil, fmt.Errorf("repository: ошибка выборки по полю: %w", err)
	}
	return &entity, nil
}

// WithTransaction выполняет fn внутри транзакции.
// При ошибке или панике транзакция откатывается, иначе фиксируется.
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("repository: не удалось начать транзакцию: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("repository: ошибка отката транзакции %v после ошибки: %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("repository: не удалось зафиксировать транзакцию: %w", err)
	}

	return nil
}
