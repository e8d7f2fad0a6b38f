package models

import "time"

// Spin is the audit record written when a code is committed.
type Spin struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Username  string    `json:"username"`
	PrizeID   int64     `json:"prize_id"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}
