package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxTitleLength         = 200
	MaxBodyLength          = 5000
	MaxPlayerNameLength    = 64
	MaxAdminUsernameLength = 32
	MaxLabelLength         = 100

	MinCodeLength     = 3
	MaxCodeLength     = 64
	MinPasswordLength = 8

	// TotalWeightBP is the basis-point total every tier distribution must reach.
	TotalWeightBP = 10000
)

var (
	codeRegex          = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	tierRegex          = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)
	adminUsernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)
)

// ValidateTitle checks content and prize titles.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("title cannot exceed %d characters", MaxTitleLength)
	}
	return nil
}

// ValidateBody checks free-form content text. Empty is allowed.
func ValidateBody(body string) error {
	if utf8.RuneCountInString(body) > MaxBodyLength {
		return fmt.Errorf("body cannot exceed %d characters", MaxBodyLength)
	}
	return nil
}

// ValidateLabel checks a prize label as shown on the wheel.
func ValidateLabel(label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return fmt.Errorf("label cannot be empty")
	}
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return fmt.Errorf("label cannot exceed %d characters", MaxLabelLength)
	}
	return nil
}

// ValidatePlayerName checks the username a player types into the spin form.
// Casino account names are free-form, so only length and control characters are checked.
func ValidatePlayerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxPlayerNameLength {
		return fmt.Errorf("username cannot exceed %d characters", MaxPlayerNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("username contains control characters")
		}
	}
	return nil
}

// ValidateCode checks a redemption code.
func ValidateCode(code string) error {
	if len(code) < MinCodeLength || len(code) > MaxCodeLength {
		return fmt.Errorf("code must be %d-%d characters long", MinCodeLength, MaxCodeLength)
	}
	if !codeRegex.MatchString(code) {
		return fmt.Errorf("code must contain only letters, digits, '-' and '_'")
	}
	return nil
}

// ValidateTier checks a prize tier name (bronze, silver, gold, ...).
func ValidateTier(tier string) error {
	if !tierRegex.MatchString(tier) {
		return fmt.Errorf("tier must match %s", tierRegex.String())
	}
	return nil
}

// ValidateWeightBP checks a single basis-point weight.
func ValidateWeightBP(weight int) error {
	if weight < 0 || weight > TotalWeightBP {
		return fmt.Errorf("weight must be between 0 and %d", TotalWeightBP)
	}
	return nil
}

// SumWeights adds up a tier distribution.
func SumWeights(weights map[int64]int) int {
	sum := 0
	for _, w := range weights {
		sum += w
	}
	return sum
}

// ValidateAdminUsername checks admin panel login names.
func ValidateAdminUsername(username string) error {
	if !adminUsernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-%d characters of letters, digits, '_', '.', '-'", MaxAdminUsernameLength)
	}
	return nil
}

// ValidatePassword checks admin password strength.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	return nil
}

// ValidateOptionalURL accepts empty strings and absolute http(s) URLs.
func ValidateOptionalURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("url must be absolute")
	}
	return nil
}

// ValidatePositiveInt checks that a number is positive.
func ValidatePositiveInt(value int64, fieldName string) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive", fieldName)
	}
	return nil
}
