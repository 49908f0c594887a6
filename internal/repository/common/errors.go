package common

import "errors"

// Сентинельные ошибки слоя репозиториев.
// Сервисы сравнивают их через errors.Is и преобразуют в доменные ошибки API.
var (
	ErrUserNotFound         = errors.New("пользователь не найден")
	ErrProfileNotFound      = errors.New("профиль не найден")
	ErrSessionNotFound      = errors.New("сессия не найдена")
	ErrAuctionNotFound      = errors.New("аукцион не найден")
	ErrBidNotFound          = errors.New("ставка не найдена")
	ErrReviewNotFound       = errors.New("отзыв не найден")
	ErrReviewExists         = errors.New("отзыв для этого аукциона уже существует")
	ErrNotificationNotFound = errors.New("уведомление не найдено")
	ErrEmailTaken           = errors.New("email уже занят")
	ErrAuctionNotActive     = errors.New("аукцион не находится в активном статусе")
)
