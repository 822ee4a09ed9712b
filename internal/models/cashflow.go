package models

import "time"

// CashFlow is a dated, signed amount: investments are negative, the terminal
// valuation is positive.
type CashFlow struct {
	Date   time.Time
	Amount float64
}
