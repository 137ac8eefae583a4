package domain

import (
	"fmt"
	"math"
)

// Money is an amount of currency in nano-units. Integer arithmetic keeps
// accumulated spend exact regardless of the order amounts are added in.
type Money int64

const moneyScale = 1_000_000_000

func MoneyFromFloat(value float64) Money {
	return Money(math.Round(value * moneyScale))
}

func (m Money) Float() float64 {
	return float64(m) / moneyScale
}

func (m Money) String() string {
	return fmt.Sprintf("$%.4f", m.Float())
}
