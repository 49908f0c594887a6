package models

import (
	"time"

	"github.com/google/uuid"
)

// Auction описывает проект, выставленный клиентом на обратный аукцион.
type Auction struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	OwnerID     uuid.UUID  `db:"owner_id" json:"owner_id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Budget      float64    `db:"budget" json:"budget"`
	Deadline    time.Time  `db:"deadline" json:"deadline"`
	Status      string     `db:"status" json:"status"`
	WinnerID    *uuid.UUID `db:"winner_id" json:"winner_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	Bids      []Bid   `json:"bids,omitempty"`
	Review    *Review `json:"review,omitempty"`
	BidsCount *int    `db:"bids_count" json:"bids_count,omitempty"`
}

// Bid представляет ставку исполнителя на аукционе.
// Записи только добавляются: повторные ставки одного исполнителя допустимы.
type Bid struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AuctionID uuid.UUID `db:"auction_id" json:"auction_id"`
	BidderID  uuid.UUID `db:"bidder_id" json:"bidder_id"`
	Amount    float64   `db:"amount" json:"amount"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Review — отзыв клиента о выполненном аукционе, не более одного на аукцион.
type Review struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AuctionID uuid.UUID `db:"auction_id" json:"auction_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ChatMessage — сообщение в чате аукциона между клиентом и победителем.
type ChatMessage struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AuctionID uuid.UUID `db:"auction_id" json:"auction_id"`
	SenderID  uuid.UUID `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
