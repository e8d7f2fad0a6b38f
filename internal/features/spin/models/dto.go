package models

import "time"

// Public wire contract. Field names are consumed by the wheel frontend as-is.

type VerifyRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

type VerifyResponse struct {
	OK          bool   `json:"ok"`
	TargetIndex int    `json:"targetIndex"`
	PrizeLabel  string `json:"prizeLabel"`
	SpinToken   string `json:"spinToken"`
}

type CommitRequest struct {
	Code      string `json:"code"`
	SpinToken string `json:"spinToken"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// WheelSlot is one enabled prize as rendered on the public wheel.
type WheelSlot struct {
	ID         int64   `json:"id"`
	Label      string  `json:"label"`
	WheelIndex int     `json:"wheelIndex"`
	ImageURL   *string `json:"imageUrl,omitempty"`
}

// Admin API payloads.

type PrizeCreateRequest struct {
	Label      string  `json:"label" binding:"required"`
	WheelIndex *int    `json:"wheel_index" binding:"required,min=0"`
	ImageURL   *string `json:"image_url"`
	Enabled    *bool   `json:"enabled"`
}

type PrizeUpdateRequest struct {
	Label      *string `json:"label"`
	WheelIndex *int    `json:"wheel_index" binding:"omitempty,min=0"`
	ImageURL   *string `json:"image_url"`
	Enabled    *bool   `json:"enabled"`
}

// TierWeightsRequest replaces a whole tier distribution. Keys are prize IDs.
type TierWeightsRequest struct {
	Weights map[string]int `json:"weights" binding:"required"`
}

type TierWeightsResponse struct {
	Tier    string       `json:"tier"`
	Weights []TierWeight `json:"weights"`
	TotalBP int          `json:"total_bp"`
}

type CodeCreateRequest struct {
	Code      string     `json:"code" binding:"required"`
	Username  *string    `json:"username"`
	Mode      CodeMode   `json:"mode" binding:"required,oneof=auto manual"`
	Tier      *string    `json:"tier"`
	PrizeID   *int64     `json:"prize_id"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type CodeBatchRequest struct {
	Count     int        `json:"count" binding:"required,min=1,max=1000"`
	Prefix    string     `json:"prefix" binding:"max=16"`
	Length    int        `json:"length" binding:"omitempty,min=4,max=32"`
	Mode      CodeMode   `json:"mode" binding:"required,oneof=auto manual"`
	Tier      *string    `json:"tier"`
	PrizeID   *int64     `json:"prize_id"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type CodeBatchResponse struct {
	Count int      `json:"count"`
	Codes []string `json:"codes"`
}

type PrizeDeleteResponse struct {
	PrizeID      int64 `json:"prize_id"`
	DeletedCodes int64 `json:"deleted_codes"`
}
