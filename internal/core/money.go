// Package core provides money parsing and handling utilities.
//
// This file contains the codec that converts user-entered decimal strings into
// integer minor units and back into display strings for a given Currency.
package core

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money is a signed count of a currency's smallest unit (cents, paise, yen).
type Money int64

// ErrInvalidAmountFormat is returned when a numeral cannot be parsed.
var ErrInvalidAmountFormat = errors.New("invalid amount format")

// groupingTag selects the thousands separator used by Format. Its separator
// must not be '.', otherwise Parse could not read Format's output back.
var groupingTag = language.English

// Parse converts a decimal string to minor units of c.
//
// Parsing is permissive: non-digit characters in the whole part are dropped,
// excess fractional digits are truncated (never rounded) and anything after a
// second '.' is ignored. Input without a single digit is rejected.
//
// Examples with a 2-decimal currency:
//
//	Parse("12.34")   -> 1234
//	Parse("10.999")  -> 1099
//	Parse("1,234.5") -> 123450
//	Parse("-50.25")  -> -5025
func Parse(text string, c Currency) (Money, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, fmt.Errorf("%w: empty amount", ErrInvalidAmountFormat)
	}

	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	wholeRaw, fracRaw, hasFrac := strings.Cut(s, ".")
	if hasFrac {
		fracRaw, _, _ = strings.Cut(fracRaw, ".")
	}

	whole := digitsOnly(wholeRaw)
	if whole == "" && !containsDigit(fracRaw) {
		return 0, fmt.Errorf("%w: %q has no digits", ErrInvalidAmountFormat, text)
	}
	if whole == "" {
		whole = "0"
	}

	wv, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: whole part %q", ErrInvalidAmountFormat, whole)
	}

	mult, err := pow10(c.DecimalPlaces)
	if err != nil {
		return 0, err
	}

	var fv int64
	if c.DecimalPlaces > 0 {
		fv, err = parseMinorDigits(fracRaw, c.DecimalPlaces)
		if err != nil {
			return 0, err
		}
	}

	if wv > (math.MaxInt64-fv)/mult {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidAmountFormat, text)
	}

	amount := wv*mult + fv
	if negative {
		amount = -amount
	}
	return Money(amount), nil
}

// IsValid reports whether Parse accepts text.
func IsValid(text string, c Currency) bool {
	_, err := Parse(text, c)
	return err == nil
}

// Format renders amount with thousands grouping, the minor part padded to
// c.DecimalPlaces and the symbol placed according to c.SymbolPosition.
// Negative amounts carry a leading '-' before the symbol.
func Format(amount Money, c Currency) string {
	abs := absMinor(amount)
	mult := uint64(mustPow10(c.DecimalPlaces))

	num := message.NewPrinter(groupingTag).Sprintf("%d", abs/mult)
	if c.DecimalPlaces > 0 {
		num += "." + fmt.Sprintf("%0*d", c.DecimalPlaces, abs%mult)
	}

	sign := ""
	if amount < 0 {
		sign = "-"
	}
	if c.SymbolPosition == SymbolAfter {
		return sign + num + c.Symbol
	}
	return sign + c.Symbol + num
}

// FormatCompact abbreviates large amounts for list display: "1.5M", "12.3K".
// Amounts below one thousand whole units fall back to Format.
func FormatCompact(amount Money, c Currency) string {
	abs := absMinor(amount)
	whole := abs / uint64(mustPow10(c.DecimalPlaces))

	var s string
	switch {
	case whole >= 1_000_000:
		s = oneDecimal(whole, 1_000_000) + "M"
	case whole >= 1_000:
		s = oneDecimal(whole, 1_000) + "K"
	default:
		// whole < 1000 so abs always fits in Money here
		s = Format(Money(abs), c)
	}

	if amount < 0 {
		return "-" + s
	}
	return s
}

// Percent renders a percentage with one decimal, rounding half away from zero.
func Percent(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(1) + "%"
}

func oneDecimal(v uint64, unit int64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0).
		Div(decimal.NewFromInt(unit)).
		StringFixed(1)
}

func parseMinorDigits(raw string, places int) (int64, error) {
	digits := []rune(raw)
	if len(digits) > places {
		digits = digits[:places]
	}
	for len(digits) < places {
		digits = append(digits, '0')
	}
	var v int64
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: fractional part %q", ErrInvalidAmountFormat, raw)
		}
		v = v*10 + int64(r-'0')
	}
	return v, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func containsDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}

func absMinor(m Money) uint64 {
	if m < 0 {
		return uint64(-(m + 1)) + 1
	}
	return uint64(m)
}

// maxDecimalPlaces keeps 10^places inside int64.
const maxDecimalPlaces = 18

func pow10(places int) (int64, error) {
	if places < 0 || places > maxDecimalPlaces {
		return 0, fmt.Errorf("%w: unsupported decimal places %d", ErrInvalidAmountFormat, places)
	}
	v := int64(1)
	for range places {
		v *= 10
	}
	return v, nil
}

func mustPow10(places int) int64 {
	v, err := pow10(places)
	if err != nil {
		panic(err)
	}
	return v
}
