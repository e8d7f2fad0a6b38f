package models

import "time"

// Reservation binds a verified code to the token and prize shown to the player.
// It lives only in the reservation store and is dropped on commit or expiry.
type Reservation struct {
	Code       string    `json:"code"`
	Token      string    `json:"token"`
	PrizeID    int64     `json:"prize_id"`
	WheelIndex int       `json:"wheel_index"`
	PrizeLabel string    `json:"prize_label"`
	Username   string    `json:"username"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (r *Reservation) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
