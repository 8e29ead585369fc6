package hedging

import "github.com/shopspring/decimal"

var decimalHundred = decimal.NewFromInt(100)
