package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Kind is the storage discriminator of a content item.
type Kind string

const (
	KindTournament Kind = "tournament"
	KindBonus      Kind = "bonus"
	KindPromoCode  Kind = "promo_code"
	KindBanner     Kind = "banner"
)

var kindSlugs = map[string]Kind{
	"tournaments": KindTournament,
	"bonuses":     KindBonus,
	"promo-codes": KindPromoCode,
	"banners":     KindBanner,
}

// KindFromSlug maps a URL segment such as "promo-codes" to its Kind.
func KindFromSlug(slug string) (Kind, bool) {
	k, ok := kindSlugs[slug]
	return k, ok
}

// Slug is the URL segment for k.
func (k Kind) Slug() string {
	for slug, kind := range kindSlugs {
		if kind == k {
			return slug
		}
	}
	return ""
}

// Item is a CMS entry. Attrs holds the kind-specific fields as validated JSON.
type Item struct {
	ID        int64           `json:"id"`
	Kind      Kind            `json:"kind"`
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	ImageURL  string          `json:"image_url"`
	LinkURL   string          `json:"link_url"`
	SortOrder int             `json:"sort_order"`
	Active    bool            `json:"active"`
	StartsAt  *time.Time      `json:"starts_at,omitempty"`
	EndsAt    *time.Time      `json:"ends_at,omitempty"`
	Attrs     json.RawMessage `json:"attrs" swaggertype:"object"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type TournamentAttrs struct {
	Game       string `json:"game"`
	PrizePool  string `json:"prize_pool"`
	EntryFee   string `json:"entry_fee,omitempty"`
	MaxPlayers int    `json:"max_players,omitempty"`
}

type BonusAttrs struct {
	Amount     string `json:"amount"`
	Wagering   int    `json:"wagering,omitempty"`
	MinDeposit string `json:"min_deposit,omitempty"`
	Terms      string `json:"terms,omitempty"`
}

type PromoCodeAttrs struct {
	Code     string `json:"code"`
	Discount string `json:"discount"`
	MaxUses  int    `json:"max_uses,omitempty"`
}

type BannerAttrs struct {
	Placement string `json:"placement"`
	CTA       string `json:"cta,omitempty"`
}

func (a TournamentAttrs) validate() error {
	if a.Game == "" || a.PrizePool == "" {
		return fmt.Errorf("game and prize_pool are required")
	}
	if a.MaxPlayers < 0 {
		return fmt.Errorf("max_players cannot be negative")
	}
	return nil
}

func (a BonusAttrs) validate() error {
	if a.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	if a.Wagering < 0 {
		return fmt.Errorf("wagering cannot be negative")
	}
	return nil
}

func (a PromoCodeAttrs) validate() error {
	if a.Code == "" || a.Discount == "" {
		return fmt.Errorf("code and discount are required")
	}
	if a.MaxUses < 0 {
		return fmt.Errorf("max_uses cannot be negative")
	}
	return nil
}

func (a BannerAttrs) validate() error {
	switch a.Placement {
	case "hero", "sidebar", "footer":
		return nil
	default:
		return fmt.Errorf("placement must be hero, sidebar or footer")
	}
}

// NormalizeAttrs decodes raw strictly into the attribute type of kind,
// validates it and returns the canonical encoding. Unknown fields are rejected.
func NormalizeAttrs(kind Kind, raw json.RawMessage) (json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}

	var (
		attrs interface{ validate() error }
		err   error
	)
	switch kind {
	case KindTournament:
		var a TournamentAttrs
		err = decodeStrict(raw, &a)
		attrs = a
	case KindBonus:
		var a BonusAttrs
		err = decodeStrict(raw, &a)
		attrs = a
	case KindPromoCode:
		var a PromoCodeAttrs
		err = decodeStrict(raw, &a)
		attrs = a
	case KindBanner:
		var a BannerAttrs
		err = decodeStrict(raw, &a)
		attrs = a
	default:
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s attrs: %w", kind, err)
	}
	if err := attrs.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s attrs: %w", kind, err)
	}

	return json.Marshal(attrs)
}

func decodeStrict(raw json.RawMessage, dest interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

// ItemRequest creates or replaces an item.
type ItemRequest struct {
	Title     string          `json:"title" binding:"required"`
	Body      string          `json:"body"`
	ImageURL  string          `json:"image_url"`
	LinkURL   string          `json:"link_url"`
	SortOrder int             `json:"sort_order"`
	Active    *bool           `json:"active"`
	StartsAt  *time.Time      `json:"starts_at"`
	EndsAt    *time.Time      `json:"ends_at"`
	Attrs     json.RawMessage `json:"attrs" swaggertype:"object"`
}

// Sort orders accepted by public listings.
const (
	SortOrder  = "order"
	SortNewest = "newest"
	SortTitle  = "title"
	SortEnds   = "ends"
)

// ListQuery selects a page of items of one kind.
type ListQuery struct {
	Kind Kind
	Sort string
	// ActiveOnly hides inactive items and those outside their schedule at Now.
	ActiveOnly bool
	Now        time.Time
	Limit      int
	Offset     int
}

type ListResponse struct {
	Items  []*Item `json:"items"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
