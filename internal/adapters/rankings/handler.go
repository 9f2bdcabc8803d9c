// Package rankings exposes the comparative ranking service over HTTP. All
// endpoints are read-only snapshots of the loaded tables except refresh,
// which queues a reload through the Refresher.
package rankings

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rankcore/internal/core"
	"rankcore/pkg/rankings"
)

// Handler provides HTTP access to the ranking comparison operations.
type Handler struct {
	Rankings  *core.Service
	Refreshes RefreshScheduler
}

// NewHandler constructs a rankings HTTP handler.
func NewHandler(svc *core.Service) *Handler {
	return &Handler{Rankings: svc}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Rankings == nil {
		writeError(w, http.StatusInternalServerError, "ranking service not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	if strings.HasPrefix(path, "/api/v1/rankings/refresh") {
		if h.Refreshes == nil {
			http.NotFound(w, r)
			return
		}
		h.handleRefresh(w, r, path)
		return
	}

	handle := h.routeFor(path)
	if handle == nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.notModified(w, r) {
		return
	}
	handle(w, r)
}

// routeFor maps a data endpoint path to its handler, nil when unknown. All
// data endpoints are GET-only snapshot reads.
func (h *Handler) routeFor(path string) http.HandlerFunc {
	switch path {
	case "/api/v1/rankings/sources":
		return h.handleSources
	case "/api/v1/rankings/common":
		return h.handleCommon
	case "/api/v1/rankings/extras":
		return h.handleExtras
	case "/api/v1/rankings/periods":
		return h.handlePeriods
	case "/api/v1/rankings/view":
		return h.handleView
	case "/api/v1/rankings/ranks":
		return h.handleRanks
	case "/api/v1/rankings/metric":
		return h.handleMetric
	case "/api/v1/rankings/kpis":
		return h.handleKPIs
	case "/api/v1/rankings/overview":
		return h.handleOverview
	case "/api/v1/rankings/trend":
		return h.handleTrend
	case "/api/v1/rankings/peers":
		return h.handlePeers
	case "/api/v1/rankings/stats":
		return h.handleStats
	}
	return nil
}

// notModified stamps the snapshot fingerprint as the ETag and short-
// circuits conditional requests. Every data endpoint derives from the same
// snapshot, so one validator covers them all.
func (h *Handler) notModified(w http.ResponseWriter, r *http.Request) bool {
	etag := fmt.Sprintf("%q", h.Rankings.Fingerprint())
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

func (h *Handler) handleSources(w http.ResponseWriter, _ *http.Request) {
	out := make([]rankings.Profile, 0, len(rankings.Sources()))
	for _, src := range rankings.Sources() {
		if profile, ok := h.Rankings.Profile(src); ok {
			out = append(out, profile)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"anchor": h.Rankings.Anchor(), "sources": out})
}

func (h *Handler) handleCommon(w http.ResponseWriter, r *http.Request) {
	region, err := rankings.ParseRegionFilter(r.URL.Query().Get("region"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"anchor":       h.Rankings.Anchor(),
		"region":       region,
		"institutions": h.Rankings.CommonInstitutionsFiltered(r.Context(), region),
	})
}

func (h *Handler) handleExtras(w http.ResponseWriter, r *http.Request) {
	src, ok := h.sourceParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"source": src,
		"extras": h.Rankings.Extras(r.Context(), src),
	})
}

func (h *Handler) handlePeriods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"periods": h.Rankings.Periods(r.Context())})
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	src, ok := h.sourceParam(w, r)
	if !ok {
		return
	}
	sel, ok := h.selectionParams(w, r)
	if !ok {
		return
	}
	view := h.Rankings.FilterSource(r.Context(), src, sel)

	if negotiateFormat(r) == "csv" {
		table, _ := h.Rankings.Table(src)
		streamViewCSV(w, src, table.Columns(), view)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"source":    src,
		"selection": sel,
		"rows":      view.Records(),
	})
}

func (h *Handler) handleRanks(w http.ResponseWriter, r *http.Request) {
	src, ok := h.sourceParam(w, r)
	if !ok {
		return
	}
	sel, ok := h.selectionParams(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"source": src,
		"rows":   h.Rankings.BuildSourceRankRanges(r.Context(), src, sel),
	})
}

// metricResponse renders a resolved metric pair. The display strings are
// the only place the service emits the "N/A" sentinel; everywhere else
// absent values stay null.
type metricResponse struct {
	Pair              core.MetricPair `json:"pair"`
	AnchorDisplay     string          `json:"anchor_display"`
	ComparatorDisplay string          `json:"comparator_display"`
}

func (h *Handler) handleMetric(w http.ResponseWriter, r *http.Request) {
	src, ok := h.sourceParam(w, r)
	if !ok {
		return
	}
	metric := strings.TrimSpace(r.URL.Query().Get("metric"))
	if metric == "" {
		writeError(w, http.StatusBadRequest, "metric parameter required")
		return
	}
	sel, ok := h.selectionParams(w, r)
	if !ok {
		return
	}
	pair, err := h.Rankings.LookupMetricPair(r.Context(), src, metric, sel)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metricResponse{
		Pair:              pair,
		AnchorDisplay:     displayValue(pair.Anchor),
		ComparatorDisplay: displayValue(pair.Comparator),
	})
}

func (h *Handler) handleKPIs(w http.ResponseWriter, r *http.Request) {
	src, ok := h.sourceParam(w, r)
	if !ok {
		return
	}
	sel, ok := h.selectionParams(w, r)
	if !ok {
		return
	}
	report, err := h.Rankings.KPIPanel(r.Context(), src, sel)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": report})
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selectionParams(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"selection": sel,
		"entries":   h.Rankings.OverviewRanks(r.Context(), sel),
	})
}

func (h *Handler) handleTrend(w http.ResponseWriter, r *http.Request) {
	src, ok := h.sourceParam(w, r)
	if !ok {
		return
	}
	metric := strings.TrimSpace(r.URL.Query().Get("metric"))
	if metric == "" {
		writeError(w, http.StatusBadRequest, "metric parameter required")
		return
	}
	sel, ok := h.selectionParams(w, r)
	if !ok {
		return
	}
	lines, err := h.Rankings.TrendSeries(r.Context(), src, metric, sel)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"source": src,
		"metric": metric,
		"lines":  lines,
	})
}

func (h *Handler) handlePeers(w http.ResponseWriter, r *http.Request) {
	group := strings.TrimSpace(r.URL.Query().Get("group"))
	if group == "" {
		writeJSON(w, http.StatusOK, map[string]any{"groups": h.Rankings.PeerGroups(r.Context())})
		return
	}
	members, ok := h.Rankings.PeerGroupMembers(r.Context(), group)
	if !ok {
		writeError(w, http.StatusNotFound, "peer group not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"group": group, "members": members})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"stats": h.Rankings.Stats(r.Context())})
}

type refreshRequest struct {
	RequestedBy string `json:"requested_by"`
	Reason      string `json:"reason"`
}

const emptyBodySentinel = "EOF"

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request, path string) {
	if path == "/api/v1/rankings/refresh" {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != emptyBodySentinel {
			writeError(w, http.StatusBadRequest, "invalid refresh request payload")
			return
		}
		record, err := h.Refreshes.EnqueueRefresh(r.Context(), RefreshInput{
			RequestedBy: req.RequestedBy,
			Reason:      req.Reason,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"refresh": record})
		return
	}

	if !strings.HasPrefix(path, "/api/v1/rankings/refresh/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(path, "/api/v1/rankings/refresh/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	record, ok := h.Refreshes.GetRefresh(id)
	if !ok {
		writeError(w, http.StatusNotFound, "refresh job not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"refresh": record})
}

// sourceParam resolves the required source query parameter, writing the
// HTTP error itself when the token is absent or unknown.
func (h *Handler) sourceParam(w http.ResponseWriter, r *http.Request) (rankings.Source, bool) {
	raw := r.URL.Query().Get("source")
	if strings.TrimSpace(raw) == "" {
		writeError(w, http.StatusBadRequest, "source parameter required")
		return "", false
	}
	src, err := rankings.ParseSource(raw)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return "", false
	}
	return src, true
}

// selectionParams builds the period/comparator selection from the query.
// Absent periods mean every known period; an absent comparator falls back
// to the default pairing.
func (h *Handler) selectionParams(w http.ResponseWriter, r *http.Request) (rankings.Selection, bool) {
	sel := rankings.Selection{Comparator: strings.TrimSpace(r.URL.Query().Get("comparator"))}
	if sel.Comparator == "" {
		sel.Comparator = rankings.DefaultComparator
	}

	raw := strings.TrimSpace(r.URL.Query().Get("periods"))
	if raw == "" {
		sel.Periods = h.Rankings.Periods(r.Context())
		return sel, true
	}
	for _, token := range strings.Split(raw, ",") {
		period, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid period %q", token))
			return rankings.Selection{}, false
		}
		sel.Periods = append(sel.Periods, period)
	}
	return sel, true
}

func writeLookupError(w http.ResponseWriter, err error) {
	var unknownSource rankings.UnknownSourceError
	var unknownMetric core.UnknownMetricError
	switch {
	case errors.As(err, &unknownSource), errors.As(err, &unknownMetric):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// displayValue renders a value for human-facing fields. Absent data shows
// as "N/A" here and nowhere else.
func displayValue(v rankings.Value) string {
	s, ok := v.AsString()
	if !ok {
		return "N/A"
	}
	return s
}

func negotiateFormat(r *http.Request) string {
	wanted := strings.ToLower(r.URL.Query().Get("format"))
	if wanted == "" {
		if strings.Contains(r.Header.Get("Accept"), "text/csv") {
			wanted = "csv"
		} else {
			wanted = "json"
		}
	}
	return wanted
}

// streamViewCSV writes a filtered view in the source-file column layout:
// the shared columns first, then the table's physical columns. Missing
// values render as empty cells, matching the upstream spreadsheets.
func streamViewCSV(w http.ResponseWriter, src rankings.Source, columns []string, view rankings.View) {
	filename := fmt.Sprintf("%s-%s.csv", src, time.Now().UTC().Format("20060102T150405Z"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	headers := append([]string{rankings.ColumnInstitution, rankings.ColumnPeriod}, columns...)
	if err := writer.Write(headers); err != nil {
		return
	}
	for i := 0; i < view.Len(); i++ {
		record := make([]string, 0, len(headers))
		record = append(record, view.Institution(i), strconv.Itoa(view.Period(i)))
		for _, column := range columns {
			cell, _ := view.Value(i, column).AsString()
			record = append(record, cell)
		}
		if err := writer.Write(record); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
