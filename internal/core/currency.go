package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SymbolPosition says where the currency symbol goes relative to the numeral.
type SymbolPosition int

const (
	SymbolBefore SymbolPosition = iota // $100
	SymbolAfter                        // 100kr
)

// Currency describes how amounts of one currency are parsed and displayed.
type Currency struct {
	Code           string         `json:"code"`
	Symbol         string         `json:"symbol"`
	Name           string         `json:"name"`
	DecimalPlaces  int            `json:"decimal_places"`
	SymbolPosition SymbolPosition `json:"symbol_position"`
}

func (p SymbolPosition) String() string {
	if p == SymbolAfter {
		return "after"
	}
	return "before"
}

// MarshalText implements encoding.TextMarshaler.
func (p SymbolPosition) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *SymbolPosition) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "before":
		*p = SymbolBefore
	case "after":
		*p = SymbolAfter
	default:
		return fmt.Errorf("invalid symbol position %q", b)
	}
	return nil
}

var (
	USD = Currency{Code: "USD", Symbol: "$", Name: "US Dollar", DecimalPlaces: 2}
	EUR = Currency{Code: "EUR", Symbol: "€", Name: "Euro", DecimalPlaces: 2}
	GBP = Currency{Code: "GBP", Symbol: "£", Name: "British Pound", DecimalPlaces: 2}
	INR = Currency{Code: "INR", Symbol: "₹", Name: "Indian Rupee", DecimalPlaces: 2}
	JPY = Currency{Code: "JPY", Symbol: "¥", Name: "Japanese Yen", DecimalPlaces: 0}
	CNY = Currency{Code: "CNY", Symbol: "¥", Name: "Chinese Yuan", DecimalPlaces: 2}
	CAD = Currency{Code: "CAD", Symbol: "C$", Name: "Canadian Dollar", DecimalPlaces: 2}
	AUD = Currency{Code: "AUD", Symbol: "A$", Name: "Australian Dollar", DecimalPlaces: 2}
	CHF = Currency{Code: "CHF", Symbol: "Fr", Name: "Swiss Franc", DecimalPlaces: 2}
	SGD = Currency{Code: "SGD", Symbol: "S$", Name: "Singapore Dollar", DecimalPlaces: 2}
	HKD = Currency{Code: "HKD", Symbol: "HK$", Name: "Hong Kong Dollar", DecimalPlaces: 2}
	NOK = Currency{Code: "NOK", Symbol: "kr", Name: "Norwegian Krone", DecimalPlaces: 2, SymbolPosition: SymbolAfter}
	SEK = Currency{Code: "SEK", Symbol: "kr", Name: "Swedish Krona", DecimalPlaces: 2, SymbolPosition: SymbolAfter}
	DKK = Currency{Code: "DKK", Symbol: "kr", Name: "Danish Krone", DecimalPlaces: 2, SymbolPosition: SymbolAfter}
	NZD = Currency{Code: "NZD", Symbol: "NZ$", Name: "New Zealand Dollar", DecimalPlaces: 2}
	ZAR = Currency{Code: "ZAR", Symbol: "R", Name: "South African Rand", DecimalPlaces: 2}
	BRL = Currency{Code: "BRL", Symbol: "R$", Name: "Brazilian Real", DecimalPlaces: 2}
	RUB = Currency{Code: "RUB", Symbol: "₽", Name: "Russian Ruble", DecimalPlaces: 2, SymbolPosition: SymbolAfter}
	KRW = Currency{Code: "KRW", Symbol: "₩", Name: "South Korean Won", DecimalPlaces: 0}
	MXN = Currency{Code: "MXN", Symbol: "$", Name: "Mexican Peso", DecimalPlaces: 2}
	AED = Currency{Code: "AED", Symbol: "د.إ", Name: "UAE Dirham", DecimalPlaces: 2, SymbolPosition: SymbolAfter}
)

// DefaultCurrency is used when no currency is configured or a code is unknown.
var DefaultCurrency = INR

// Ordered by popularity.
var currencies = []Currency{
	USD, EUR, GBP, INR, JPY, CNY, CAD, AUD, CHF, SGD,
	HKD, NOK, SEK, DKK, NZD, ZAR, BRL, RUB, KRW, MXN, AED,
}

var currencyByCode = func() map[string]Currency {
	m := make(map[string]Currency, len(currencies))
	for _, c := range currencies {
		m[c.Code] = c
	}
	return m
}()

var euroCountries = map[string]struct{}{
	"DE": {}, "FR": {}, "IT": {}, "ES": {}, "NL": {}, "BE": {}, "AT": {}, "PT": {}, "IE": {}, "FI": {},
	"GR": {}, "LU": {}, "SI": {}, "SK": {}, "EE": {}, "LV": {}, "LT": {}, "CY": {}, "MT": {},
}

var currencyByCountry = map[string]Currency{
	"US": USD, "GB": GBP, "IN": INR, "JP": JPY, "CN": CNY, "CA": CAD, "AU": AUD,
	"CH": CHF, "SG": SGD, "HK": HKD, "NO": NOK, "SE": SEK, "DK": DKK, "NZ": NZD,
	"ZA": ZAR, "BR": BRL, "RU": RUB, "KR": KRW, "MX": MXN, "AE": AED,
}

// Currencies returns every supported currency ordered by popularity.
func Currencies() []Currency {
	return append([]Currency(nil), currencies...)
}

// PopularCurrencies returns the currencies offered for quick selection.
func PopularCurrencies() []Currency {
	return append([]Currency(nil), currencies[:8]...)
}

// LookupCurrency finds a currency by ISO code, ignoring case.
func LookupCurrency(code string) (Currency, bool) {
	c, ok := currencyByCode[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// CurrencyOrDefault returns the currency for code or DefaultCurrency.
func CurrencyOrDefault(code string) Currency {
	if c, ok := LookupCurrency(code); ok {
		return c
	}
	return DefaultCurrency
}

// CurrencyForCountry maps an ISO 3166 country code to its currency.
func CurrencyForCountry(country string) Currency {
	cc := strings.ToUpper(strings.TrimSpace(country))
	if c, ok := currencyByCountry[cc]; ok {
		return c
	}
	if _, ok := euroCountries[cc]; ok {
		return EUR
	}
	return DefaultCurrency
}

// Convert applies a fixed exchange rate. There is no rate source yet, callers
// supply the rate. The result is rescaled to the target's decimal places and
// truncated toward zero.
func Convert(amount Money, from, to Currency, rate float64) Money {
	v := decimal.NewFromInt(int64(amount)).
		Mul(decimal.NewFromFloat(rate)).
		Shift(int32(to.DecimalPlaces - from.DecimalPlaces))
	return Money(v.IntPart())
}
