package handlers

import (
	"html/template"
	"net/http"

	"climate-api/pkg/logging"
)

var indexTemplate = template.Must(template.New("index").Parse(`<h2>Available Routes on this Portal:</h2>` +
	`<table border='1' style='width:100%; text-align:left;'>` +
	`<tr><th>Description (Dataset's Date range {{.Start}} to {{.End}})</th><th>Clickable links</th></tr>` +
	`{{range .Routes}}<tr><td>{{.Description}}</td><td><a href='{{.Path}}'>{{.Path}}</a></td></tr>{{end}}` +
	`</table>`))

type indexRoute struct {
	Description string
	Path        string
}

type indexPage struct {
	Start  string
	End    string
	Routes []indexRoute
}

// Index handles GET / by listing every API route with links built from the
// live dataset date range.
func (h *ClimateHandler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dr, err := h.climateService.GetDateRange(ctx)
	if err != nil {
		h.metrics.RecordAPIError("date_range_unavailable", routeTemplate(r))
		h.logger.Error(ctx, "[INDEX_ERROR] Date range unavailable", logging.Fields{}, err)
		h.sendError(w, msgDateRangeUnavailable, http.StatusInternalServerError)
		return
	}

	span := dr.Min + "/" + dr.Max
	page := indexPage{
		Start: dr.Min,
		End:   dr.Max,
		Routes: []indexRoute{
			{"To Get all the precipitation measurements data", apiPrefix + "/measurements"},
			{"To Get all the station data", apiPrefix + "/stations"},
			{"To Get all the measurements with stations data", apiPrefix + "/measurements_Stations"},
			{"To Get all the measurements with stations data within a date range", apiPrefix + "/measurements_StationsInRange/" + span},
			{"To Get temperature statistics (min, avg, max) for a given date range", apiPrefix + "/temp_stats/" + span},
			{"To Get temperature statistics (min, avg, max) for a specific station within a date range", apiPrefix + "/temp_stats_station/" + h.exampleStation + "/" + span},
		},
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := indexTemplate.Execute(w, page); err != nil {
		h.logger.Warn(ctx, "[INDEX_ERROR] Failed to render index", logging.Fields{
			"error": err.Error(),
		})
	}
}
