package coerce

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// USD formats d as dollars, e.g. "$1,234.56".
func USD(d decimal.Decimal) string {
	cents := d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}
