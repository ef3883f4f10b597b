package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/service/ratelimit"
	"PriceCast/internal/services/forecast"
	xhttp "PriceCast/pkg/http"
	xlogger "PriceCast/pkg/logger"
	xutil "PriceCast/pkg/util"

	"github.com/labstack/echo/v4"
)

const (
	lastUpdateLayout = "2006-01-02 15:04:05"
	noPriceMessage   = "Failed to fetch price"
)

// Forecaster is the forecasting use case as seen by the HTTP layer.
type Forecaster interface {
	Forecast(ctx context.Context, target time.Time) (models.ForecastResult, error)
	Summary() models.HistorySummary
}

// PriceSource returns the latest tracked quote.
type PriceSource interface {
	Latest(ctx context.Context) (models.PriceQuote, bool)
}

// ForecastEchoHandler serves forecasts, the history summary and the live price.
type ForecastEchoHandler struct {
	logger *xlogger.Logger
	fc     Forecaster
	prices PriceSource
	rl     *ratelimit.Limiter
	symbol string
}

func NewForecastEchoHandler(logger *xlogger.Logger, fc Forecaster, prices PriceSource, rl *ratelimit.Limiter) *ForecastEchoHandler {
	return &ForecastEchoHandler{logger: logger, fc: fc, prices: prices, rl: rl, symbol: fc.Summary().Symbol}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/forecast", h.Forecast)
	g.POST("/forecast", h.Forecast)
	g.GET("/history/summary", h.HistorySummary)
	g.GET("/price", h.Price)
}

func (h *ForecastEchoHandler) Forecast(c echo.Context) error {
	if h.rl != nil && !h.rl.Allow(c.RealIP()) {
		h.logger.Warn("forecast rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.TooManyRequestsResponse(c)
	}

	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	target, err := xutil.ParseDate(req.Date)
	if err != nil {
		appErr := xhttp.BadRequestError(err.Error())
		appErr.Field = "date"
		return xhttp.AppErrorResponse(c, appErr)
	}

	res, err := h.fc.Forecast(c.Request().Context(), target)
	if err != nil {
		appErr := forecastAppError(err)
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error("forecast usecase error", xlogger.Date("target", target), xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, appErr)
	}

	return xhttp.SuccessResponse(c, models.ForecastResponse{
		Date:           xutil.FormatDate(res.TargetDate),
		PredictedPrice: res.Price,
		HorizonDays:    res.HorizonDays,
		LastKnownDate:  xutil.FormatDate(res.LastKnownDate),
	})
}

// forecastAppError maps forecast failures to API errors. The message is the
// error text, which for a non-future target is exactly the sentinel text.
func forecastAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.Is(err, forecast.ErrTargetNotInFuture):
		appErr = xhttp.NewAppError("ERR_TARGET_NOT_IN_FUTURE", "date", forecast.ErrTargetNotInFuture.Error(), http.StatusBadRequest)
	case errors.Is(err, forecast.ErrEmptyHistory):
		appErr = xhttp.ServiceUnavailableError("ERR_EMPTY_HISTORY", err.Error())
	case errors.Is(err, forecast.ErrInsufficientHistory):
		appErr = xhttp.ServiceUnavailableError("ERR_INSUFFICIENT_HISTORY", err.Error())
	case errors.Is(err, forecast.ErrInvalidPrediction):
		appErr = xhttp.BadGatewayError("ERR_INVALID_PREDICTION", err.Error())
	case errors.Is(err, forecast.ErrModelInvocation):
		appErr = xhttp.BadGatewayError("ERR_MODEL_INVOCATION", err.Error())
	default:
		appErr = xhttp.InternalError(err.Error())
	}
	return appErr.WithError(err)
}

func (h *ForecastEchoHandler) HistorySummary(c echo.Context) error {
	s := h.fc.Summary()
	res := models.HistorySummaryResponse{
		Symbol:       s.Symbol,
		Observations: s.Observations,
		Window:       s.Window,
		ScalerMin:    s.ScalerMin,
		ScalerMax:    s.ScalerMax,
	}
	if !s.LastKnownDate.IsZero() {
		res.LastKnownDate = xutil.FormatDate(s.LastKnownDate)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Price(c echo.Context) error {
	res := models.PriceResponse{Symbol: h.symbol, LastUpdate: noPriceMessage}
	if h.prices != nil {
		if q, ok := h.prices.Latest(c.Request().Context()); ok {
			res.Price = q.Price
			res.LastUpdate = q.UpdatedAt.UTC().Format(lastUpdateLayout)
		}
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, "ok")
}
