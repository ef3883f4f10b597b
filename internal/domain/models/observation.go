package models

import "time"

// Observation is a single daily closing price.
type Observation struct {
	Date  time.Time `json:"date"` // truncated to UTC day
	Value float64   `json:"value"`
}

// ForecastResult is the outcome of one forecast call.
type ForecastResult struct {
	TargetDate    time.Time
	LastKnownDate time.Time
	HorizonDays   int
	Price         float64
}

// PriceQuote is the latest traded price for a symbol.
type PriceQuote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	UpdatedAt time.Time `json:"updated_at"`
	Source    string    `json:"source"` // "stream" | "poll"
}

// HistorySummary describes the frozen history a forecaster runs over.
type HistorySummary struct {
	Symbol        string
	LastKnownDate time.Time
	Observations  int
	Window        int
	ScalerMin     float64
	ScalerMax     float64
}
