package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// MarshalJSON renders {"amount":"12.34","currency":"USD"}; currency.Unit has
// no JSON representation of its own.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.Amount, Currency: m.Currency.String()})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	unit, err := currency.ParseISO(raw.Currency)
	if err != nil {
		return fmt.Errorf("currency[%s] is not valid: %w", raw.Currency, err)
	}

	m.Amount = raw.Amount
	m.Currency = unit
	return nil
}

func NewMoney(amount decimal.Decimal, unit currency.Unit) Money {
	return Money{Amount: amount, Currency: unit}
}

// Mul multiplies the amount by an integer quantity, keeping the currency.
func (m Money) Mul(qty int) Money {
	return Money{
		Amount:   m.Amount.Mul(decimal.NewFromInt(int64(qty))),
		Currency: m.Currency,
	}
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Round2 rounds to two decimal places. Intermediate calculations keep full
// precision; rounding happens only at the point of output.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
