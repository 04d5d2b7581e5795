package validator

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// PhoneRX accepts an optional leading plus followed by 7 to 15 digits.
	PhoneRX = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	DateRX  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

type Validator struct {
	Errors map[string]string
}

func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError keeps the first message recorded for a key.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

func In(value string, list ...string) bool {
	for i := range list {
		if value == list[i] {
			return true
		}
	}
	return false
}

func Matches(value string, rx *regexp.Regexp) bool {
	return rx.MatchString(value)
}

func Unique(values []string) bool {
	uniqueValues := make(map[string]bool)

	for _, value := range values {
		uniqueValues[value] = true
	}

	return len(values) == len(uniqueValues)
}

// PositiveInt reports whether s is a whole number greater than zero. Integral
// decimal and exponent forms such as "2.0" and "1e1" are accepted.
func PositiveInt(s string) (int, bool) {
	s = strings.TrimSpace(s)

	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, false
		}
		return n, true
	}

	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() || !d.IsPositive() || d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, false
	}

	return int(d.IntPart()), true
}
