package models

import "time"

// EODBar represents a single day's price data
type EODBar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adjusted_close"`
	Volume   int64     `json:"volume"`
}

// EODResponse holds end-of-day bars in provider order
type EODResponse struct {
	Data []EODBar `json:"data"`
}

// Instrument is the general description of a listed equity
type Instrument struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Exchange     string `json:"exchange"`
	Type         string `json:"type"`
	CurrencyCode string `json:"currency_code"`
}

// Scheme is one entry of the mutual fund catalog
type Scheme struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// NAVPoint is a fund's net asset value on one date
type NAVPoint struct {
	Date time.Time `json:"date"`
	NAV  float64   `json:"nav"`
}
