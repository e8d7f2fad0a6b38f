package models

import "time"

// Prize is a slot on the wheel. WheelIndex only drives the client animation.
type Prize struct {
	ID         int64     `json:"id"`
	Label      string    `json:"label"`
	WheelIndex int       `json:"wheel_index"`
	ImageURL   *string   `json:"image_url,omitempty"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// WeightedPrize is a prize together with its basis-point weight in one tier.
type WeightedPrize struct {
	Prize
	WeightBP int `json:"weight_bp"`
}

// TierWeight is one row of a tier distribution.
type TierWeight struct {
	Tier     string `json:"tier"`
	PrizeID  int64  `json:"prize_id"`
	WeightBP int    `json:"weight_bp"`
}

// TierSummary describes a tier for the admin overview.
type TierSummary struct {
	Tier       string `json:"tier"`
	Prizes     int    `json:"prizes"`
	TotalBP    int    `json:"total_bp"`
	IsBalanced bool   `json:"is_balanced"`
}
