package validation

import (
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Has reports whether field already carries a violation.
func (v Violations) Has(field string) bool {
	_, ok := v[field]
	return ok
}

// set records code unless the field was already flagged (first violation wins).
func (v Violations) set(field, code string) {
	if !v.Has(field) {
		v[field] = code
	}
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.set(field, "required")
	}
}

func RangeInt(field string, val, minVal, maxVal int, v Violations) {
	if val < minVal || val > maxVal {
		v.set(field, "out_of_range")
	}
}

// OneOf accepts only the listed values.
func OneOf(field, value string, v Violations, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.set(field, "invalid_choice")
}

// The format validators below skip empty values; pair them with Required.

func Email(field, value string, v Violations) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || !strings.Contains(value[strings.LastIndex(value, "@")+1:], ".") {
		v.set(field, "invalid_email")
	}
}

// Phone accepts 7 to 15 digits with common separators.
func Phone(field, value string, v Violations) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	digits := 0
	for i, r := range value {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			v.set(field, "invalid_phone")
			return
		}
	}
	if digits < 7 || digits > 15 {
		v.set(field, "invalid_phone")
	}
}

// Digits accepts between minLen and maxLen ASCII digits.
func Digits(field, value string, minLen, maxLen int, v Violations) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if len(value) < minLen || len(value) > maxLen || strings.TrimFunc(value, isASCIIDigit) != "" {
		v.set(field, "invalid_format")
	}
}

// CardNumber checks length and the Luhn checksum; spaces and dashes are ignored.
func CardNumber(field, value string, v Violations) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	num := strings.NewReplacer(" ", "", "-", "").Replace(value)
	if len(num) < 12 || len(num) > 19 || strings.TrimFunc(num, isASCIIDigit) != "" || !luhn(num) {
		v.set(field, "invalid_card_number")
	}
}

// Expiry checks an MM/YY date that is not before the month of now.
func Expiry(field, value string, now time.Time, v Violations) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	mm, yy, ok := strings.Cut(value, "/")
	if !ok || len(mm) != 2 || len(yy) != 2 {
		v.set(field, "invalid_expiration")
		return
	}
	month, err1 := strconv.Atoi(mm)
	year, err2 := strconv.Atoi(yy)
	if err1 != nil || err2 != nil || month < 1 || month > 12 {
		v.set(field, "invalid_expiration")
		return
	}
	year += 2000
	if year < now.Year() || (year == now.Year() && time.Month(month) < now.Month()) {
		v.set(field, "card_expired")
	}
}

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }

func luhn(num string) bool {
	sum := 0
	double := false
	for i := len(num) - 1; i >= 0; i-- {
		d := int(num[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
