package view

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrUnknownCurrency = errors.New("unknown currency code")

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"INR": "₹",
	"JPY": "¥",
	"CNY": "CN¥",
	"KRW": "₩",
	"BRL": "R$",
	"CAD": "CA$",
	"AUD": "A$",
	"CHF": "CHF ",
}

// Money formats amounts in one currency for one locale.
type Money struct {
	code    string
	symbol  string
	scale   int
	layout  string
	printer *message.Printer
}

// ParseCurrency normalises an ISO 4217 code, rejecting unknown ones.
func ParseCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", ErrUnknownCurrency
	}
	return unit.String(), nil
}

// NewMoney builds a formatter. Unknown currency codes fall back to USD,
// unknown locales to English.
func NewMoney(code, locale string) Money {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		unit = currency.USD
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}

	scale, _ := currency.Standard.Rounding(unit)

	symbol, ok := symbols[unit.String()]
	if !ok {
		symbol = unit.String() + " "
	}

	return Money{
		code:    unit.String(),
		symbol:  symbol,
		scale:   scale,
		layout:  fmt.Sprintf("%%.%df", scale),
		printer: message.NewPrinter(tag),
	}
}

func (m Money) Code() string {
	return m.code
}

// Format renders e.g. "$1,234.50" or "-$300.00".
func (m Money) Format(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	d := decimal.NewFromFloat(amount).Round(int32(m.scale))

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	f, _ := d.Float64()
	return sign + m.symbol + m.printer.Sprintf(m.layout, f)
}
