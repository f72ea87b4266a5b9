package httpapi

import "net/http"

// route registers fn and records the matched pattern for request logs and metrics.
func route(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		setRoute(r.Context(), pattern)
		fn(w, r)
	})
}

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metricsHandler http.Handler, swaggerEnabled bool) {
	route(mux, "GET /healthz", handler.Healthz)
	if metricsHandler != nil {
		route(mux, "GET /metrics", metricsHandler.ServeHTTP)
	}
	if !swaggerEnabled {
		return
	}

	route(mux, "GET /openapi.yaml", handler.OpenAPI)
	route(mux, "GET /docs", handler.SwaggerUI)
	route(mux, "GET /docs/", handler.SwaggerUI)
}

func registerRosterRoutes(mux *http.ServeMux, handler *Handler) {
	route(mux, "GET /v1/roster", handler.GetRoster)
	route(mux, "POST /v1/roster/refresh", handler.RefreshRoster)
	route(mux, "GET /v1/roster/export.csv", handler.ExportRosterCSV)
	route(mux, "GET /v1/roster/export.xlsx", handler.ExportRosterXLSX)

	route(mux, "POST /v1/roster/students", handler.CreateStudent)
	route(mux, "PUT /v1/roster/students/{studentID}", handler.UpdateStudent)
	route(mux, "DELETE /v1/roster/students/{studentID}", handler.DeleteStudent)
	route(mux, "POST /v1/roster/students/{studentID}/sync", handler.SyncStudent)
	route(mux, "POST /v1/roster/students/{studentID}/toggle-reminder", handler.ToggleStudentReminder)

	route(mux, "POST /v1/roster/forms/create/open", handler.OpenCreateForm)
	route(mux, "POST /v1/roster/forms/create/close", handler.CloseCreateForm)
	route(mux, "POST /v1/roster/forms/edit/{studentID}/open", handler.OpenEditForm)
	route(mux, "POST /v1/roster/forms/edit/close", handler.CloseEditForm)
}

func registerProfileRoutes(mux *http.ServeMux, handler *Handler) {
	route(mux, "GET /v1/students/{studentID}/profile", handler.GetProfile)
}
