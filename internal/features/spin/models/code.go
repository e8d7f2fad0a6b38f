package models

import "time"

// CodeStatus is the lifecycle state of a redemption code.
type CodeStatus string

const (
	CodeStatusIssued  CodeStatus = "issued"
	CodeStatusUsed    CodeStatus = "used"
	CodeStatusExpired CodeStatus = "expired"
)

// CodeMode selects how the prize behind a code is resolved.
type CodeMode string

const (
	// CodeModeAuto draws a prize from the code's tier distribution at verify time.
	CodeModeAuto CodeMode = "auto"
	// CodeModeManual uses the admin-chosen PrizeID verbatim.
	CodeModeManual CodeMode = "manual"
)

// Code is a single-use redemption code.
type Code struct {
	Code      string     `json:"code"`
	Username  *string    `json:"username,omitempty"`
	Status    CodeStatus `json:"status"`
	Mode      CodeMode   `json:"mode"`
	Tier      *string    `json:"tier,omitempty"`
	PrizeID   *int64     `json:"prize_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

// IsExpired reports whether the code can no longer be verified because of time
// or an explicit expired status.
func (c *Code) IsExpired(now time.Time) bool {
	if c.Status == CodeStatusExpired {
		return true
	}
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// CodeFilter narrows admin code listings.
type CodeFilter struct {
	Status  CodeStatus
	Tier    string
	PrizeID int64
	Limit   int
	Offset  int
}
