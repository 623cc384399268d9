// Package currency formats amounts for people. Amounts themselves stay currency-less
// decimals everywhere else.
package currency

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Validate reports whether code is an ISO 4217 code go-money knows about.
func Validate(code string) error {
	if money.GetCurrency(strings.ToUpper(code)) == nil {
		return fmt.Errorf("unknown currency %q", code)
	}
	return nil
}

// Format renders amount in code's conventions, e.g. "1 000,50 ₽" or "$12.34".
// At least the currency's minor unit digits are shown; extra digits are kept as they are.
// An unknown code falls back to the plain decimal followed by the code.
func Format(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(code)
	cur := money.GetCurrency(code)
	if cur == nil {
		return strings.TrimSpace(amount.String() + " " + code)
	}

	places := int32(cur.Fraction)
	if exp := -amount.Exponent(); exp > places {
		places = exp
	}
	digits := amount.Abs().StringFixed(places)
	intPart, fracPart, _ := strings.Cut(digits, ".")

	number := group(intPart, cur.Thousand)
	if fracPart != "" {
		number += cur.Decimal + fracPart
	}

	// same substitution go-money's formatter does
	s := strings.Replace(cur.Template, "1", number, 1)
	s = strings.Replace(s, "$", cur.Grapheme, 1)
	if amount.IsNegative() {
		s = "-" + s
	}
	return s
}

// group inserts sep between every three digits, counting from the right.
func group(digits, sep string) string {
	if len(digits) <= 3 || sep == "" {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteString(sep)
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
