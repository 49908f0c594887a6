package models

// AuctionStatus константы статусов аукционов.
// Допустимые переходы: active -> closed -> completed, без обратных.
const (
	AuctionStatusActive    = "active"
	AuctionStatusClosed    = "closed"
	AuctionStatusCompleted = "completed"
)

// Роли пользователей.
const (
	RoleClient   = "client"
	RoleProvider = "provider"
)

// Статусы доступности исполнителя.
const (
	AvailabilityActive = "active"
	AvailabilityAway   = "away"
)

// ValidAuctionStatuses список валидных статусов аукционов.
var ValidAuctionStatuses = map[string]struct{}{
	AuctionStatusActive:    {},
	AuctionStatusClosed:    {},
	AuctionStatusCompleted: {},
}

// ValidRoles список валидных ролей.
var ValidRoles = map[string]struct{}{
	RoleClient:   {},
	RoleProvider: {},
}

// ValidAvailability список валидных статусов доступности.
var ValidAvailability = map[string]struct{}{
	AvailabilityActive: {},
	AvailabilityAway:   {},
}
