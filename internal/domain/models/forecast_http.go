package models

// Requests and responses for the forecast HTTP endpoints.

type ForecastRequest struct {
	Date string `query:"date" json:"date" form:"date" validate:"required"`
}

type ForecastResponse struct {
	Date           string  `json:"date"`
	PredictedPrice float64 `json:"predicted_price"`
	HorizonDays    int     `json:"horizon_days"`
	LastKnownDate  string  `json:"last_known_date"`
}

type HistorySummaryResponse struct {
	Symbol        string  `json:"symbol"`
	LastKnownDate string  `json:"last_known_date"`
	Observations  int     `json:"observations"`
	Window        int     `json:"window"`
	ScalerMin     float64 `json:"scaler_min"`
	ScalerMax     float64 `json:"scaler_max"`
}

type PriceResponse struct {
	Symbol     string  `json:"symbol"`
	Price      float64 `json:"price"`
	LastUpdate string  `json:"last_update"`
}
