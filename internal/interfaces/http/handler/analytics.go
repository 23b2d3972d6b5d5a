package handler

import (
	"time"

	analyticsapp "github.com/erp/muhasebe/internal/application/analytics"
	"github.com/gin-gonic/gin"
)

// AnalyticsHandler serves cash-flow forecasts and anomaly detection
type AnalyticsHandler struct {
	BaseHandler
	forecastService *analyticsapp.ForecastService
	anomalyService  *analyticsapp.AnomalyService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(forecastService *analyticsapp.ForecastService, anomalyService *analyticsapp.AnomalyService) *AnalyticsHandler {
	return &AnalyticsHandler{
		forecastService: forecastService,
		anomalyService:  anomalyService,
	}
}

type scanQuery struct {
	StartDate *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"end_date" time_format:"2006-01-02"`
}

// bindScan accepts the scan window either as a JSON body or as query
// parameters
func (h *AnalyticsHandler) bindScan(c *gin.Context) (analyticsapp.ScanRequest, bool) {
	var req analyticsapp.ScanRequest
	if c.Request.ContentLength > 0 {
		return req, h.BindJSON(c, &req)
	}
	var q scanQuery
	if !h.BindQuery(c, &q) {
		return req, false
	}
	req.StartDate, req.EndDate = q.StartDate, q.EndDate
	return req, true
}

// Forecast handles POST /analytics/forecast
func (h *AnalyticsHandler) Forecast(c *gin.Context) {
	var req analyticsapp.ForecastRequest
	if !h.BindJSON(c, &req) {
		return
	}

	forecast, err := h.forecastService.Forecast(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, forecast)
}

// TrainForecast handles POST /analytics/forecast/train
func (h *AnalyticsHandler) TrainForecast(c *gin.Context) {
	var req analyticsapp.TrainRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	result, err := h.forecastService.Train(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ForecastAlerts handles GET /analytics/forecast/alerts
func (h *AnalyticsHandler) ForecastAlerts(c *gin.Context) {
	alerts, err := h.forecastService.Alerts(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, alerts)
}

// RuleScan handles POST /analytics/anomalies/rule-scan
func (h *AnalyticsHandler) RuleScan(c *gin.Context) {
	req, ok := h.bindScan(c)
	if !ok {
		return
	}

	result, err := h.anomalyService.RuleScan(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// TrainAnomalyModel handles POST /analytics/anomalies/train
func (h *AnalyticsHandler) TrainAnomalyModel(c *gin.Context) {
	req, ok := h.bindScan(c)
	if !ok {
		return
	}

	result, err := h.anomalyService.TrainModel(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ModelScan handles POST /analytics/anomalies/model-scan. An untrained
// model answers 503 ESTIMATOR_UNAVAILABLE.
func (h *AnalyticsHandler) ModelScan(c *gin.Context) {
	req, ok := h.bindScan(c)
	if !ok {
		return
	}

	result, err := h.anomalyService.ModelScan(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Duplicates handles GET /analytics/anomalies/duplicates
func (h *AnalyticsHandler) Duplicates(c *gin.Context) {
	req, ok := h.bindScan(c)
	if !ok {
		return
	}

	groups, err := h.anomalyService.Duplicates(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, groups)
}

// ListFindings handles GET /analytics/anomalies
func (h *AnalyticsHandler) ListFindings(c *gin.Context) {
	var filter analyticsapp.FindingListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	findings, total, err := h.anomalyService.ListFindings(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, findings, total, filter.Page, filter.PageSize)
}

// ResolveFinding handles POST /analytics/anomalies/:id/resolve
func (h *AnalyticsHandler) ResolveFinding(c *gin.Context) {
	id, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req analyticsapp.ResolveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	finding, err := h.anomalyService.Resolve(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, finding)
}
