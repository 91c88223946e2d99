// README: Common money value object used across modules.
package types

import "github.com/shopspring/decimal"

// MinorUnits is the number of decimal places kept for every charged amount.
const MinorUnits = 2

type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: RoundAmount(amount), Currency: currency}
}

// RoundAmount rounds half away from zero to MinorUnits places.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(MinorUnits)
}

func (m Money) Add(o Money) Money {
	return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency}
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}
