package dialog

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	numericPattern    = regexp.MustCompile(`^\d+$`)
	cardNumberPattern = regexp.MustCompile(`^\d{16}$`)
	expirationPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2})$`)
	cvvPattern        = regexp.MustCompile(`^\d{3}$`)
)

var affirmatives = map[string]bool{"sim": true, "s": true, "yes": true, "y": true}

// ParseNumericID accepts a positive all-digit identifier.
func ParseNumericID(input string) (int64, bool) {
	input = strings.TrimSpace(input)
	if !numericPattern.MatchString(input) {
		return 0, false
	}
	id, err := strconv.ParseInt(input, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// NormalizeCardNumber drops the spaces users type between digit groups.
func NormalizeCardNumber(input string) string {
	return strings.ReplaceAll(strings.TrimSpace(input), " ", "")
}

func ValidCardNumber(number string) bool {
	return cardNumberPattern.MatchString(number)
}

// ValidExpiration checks MM/YY and that the month is not before now's month.
func ValidExpiration(expiration string, now time.Time) bool {
	m := expirationPattern.FindStringSubmatch(expiration)
	if m == nil {
		return false
	}
	month, _ := strconv.Atoi(m[1])
	yy, _ := strconv.Atoi(m[2])
	year := 2000 + yy

	return year > now.Year() || (year == now.Year() && month >= int(now.Month()))
}

func ValidCVV(cvv string) bool {
	return cvvPattern.MatchString(cvv)
}

// IsAffirmative matches sim/s/yes/y, ignoring case and surrounding space.
func IsAffirmative(answer string) bool {
	return affirmatives[strings.ToLower(strings.TrimSpace(answer))]
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
