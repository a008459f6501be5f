package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in minor units (cents).
type Money int64

// MoneyFromFloat rounds a decimal amount to the nearest cent.
func MoneyFromFloat(amount float64) Money {
	return Money(math.Round(amount * 100))
}

var ErrMoneyOutOfRange = errors.New("money: amount out of range")

// ParseMoney reads "150", "-150", "150.5", "150.50" or ".5". Only ASCII
// digits and a single leading minus are accepted. More than two decimals is
// an error rather than a silent rounding.
func ParseMoney(s string) (Money, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, fmt.Errorf("parse money: empty amount")
	}

	digits, negative := strings.CutPrefix(raw, "-")
	whole, frac, _ := strings.Cut(digits, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("parse money %q: no digits", raw)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("parse money %q: invalid amount", raw)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("parse money %q: more than two decimals", raw)
	}
	if whole == "" {
		whole = "0"
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > (math.MaxInt64-99)/100 {
		return 0, fmt.Errorf("parse money %q: %w", raw, ErrMoneyOutOfRange)
	}
	cents, _ := strconv.ParseInt(frac, 10, 64)

	m := Money(units*100 + cents)
	if negative {
		m = -m
	}
	return m, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Mul wraps on overflow; use MulChecked for amounts that are not validated.
func (m Money) Mul(n int) Money {
	return m * Money(n)
}

func (m Money) MulChecked(n int) (Money, error) {
	if m == 0 || n == 0 {
		return 0, nil
	}
	product := m * Money(n)
	if product/Money(n) != m || (n == -1 && m == math.MinInt64) {
		return 0, ErrMoneyOutOfRange
	}
	return product, nil
}

func (m Money) AddChecked(o Money) (Money, error) {
	if (o > 0 && m > math.MaxInt64-o) || (o < 0 && m < math.MinInt64-o) {
		return 0, ErrMoneyOutOfRange
	}
	return m + o, nil
}

func (m Money) Float64() float64 {
	return float64(m) / 100
}

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
