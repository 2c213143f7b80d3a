package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/libs/telemetry/models"
	"fleetconsole/backend/services/telemetry-service/internal/export"
	"fleetconsole/backend/services/telemetry-service/internal/service"
)

// AlertQuerier exposes derived alerts.
type AlertQuerier interface {
	ListAlerts(ctx context.Context, viewer identity.Identity, filter service.AlertFilter) ([]models.Alert, error)
	Summary(ctx context.Context, viewer identity.Identity) (*service.AlertSummary, error)
}

// AlertsHandler serves alert lists, the dashboard summary and exports.
type AlertsHandler struct {
	alerts AlertQuerier
	logger *zap.Logger
	now    func() time.Time
}

// NewAlertsHandler returns handler.
func NewAlertsHandler(alerts AlertQuerier, logger *zap.Logger) *AlertsHandler {
	return &AlertsHandler{alerts: alerts, logger: logger, now: time.Now}
}

// List handles GET /api/alerts?type=&q=.
func (h *AlertsHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	alerts, err := h.alerts.ListAlerts(r.Context(), id, filter)
	if err != nil {
		h.logger.Error("failed to list alerts", zap.String("user_id", id.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

// Summary handles GET /api/alerts/summary.
func (h *AlertsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	summary, err := h.alerts.Summary(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to summarize alerts", zap.String("user_id", id.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to summarize alerts")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Export handles GET /api/alerts/export, honoring the list filters.
func (h *AlertsHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	alerts, err := h.alerts.ListAlerts(r.Context(), id, filter)
	if err != nil {
		h.logger.Error("failed to list alerts for export", zap.String("user_id", id.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to export alerts")
		return
	}
	data, err := export.AlertsWorkbook(alerts)
	if err != nil {
		h.logger.Error("failed to render alerts workbook", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to export alerts")
		return
	}

	filename := fmt.Sprintf("alerts-%s.xlsx", h.now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func parseFilter(r *http.Request) (service.AlertFilter, error) {
	query := r.URL.Query()
	filter := service.AlertFilter{Search: strings.TrimSpace(query.Get("q"))}

	raw := strings.TrimSpace(query.Get("type"))
	if raw == "" || strings.EqualFold(raw, "all") {
		return filter, nil
	}
	severity, ok := models.ParseSeverity(raw)
	if !ok {
		return filter, fmt.Errorf("unknown alert type %q", raw)
	}
	filter.Type = severity
	return filter, nil
}
