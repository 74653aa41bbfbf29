package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/govmetrics/govdash/pkg/auth"
	"github.com/govmetrics/govdash/pkg/query"
)

const pathParamID = "id"

// Handler serves the record resources over HTTP.
type Handler struct {
	store     *Store
	builder   *query.Builder
	resources map[string]Resource
	mw        *auth.Middleware
}

// NewHandler creates the records HTTP handler.
func NewHandler(store *Store, builder *query.Builder, mw *auth.Middleware) *Handler {
	return &Handler{
		store:     store,
		builder:   builder,
		resources: Resources(),
		mw:        mw,
	}
}

// Register registers all record routes. Read routes are public; mutations
// sit under /api/admin and require the admin role.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/dashboard/summary", h.Summary)
	mux.HandleFunc("GET /api/{resource}", h.List)
	mux.HandleFunc("GET /api/{resource}/{id}", h.Get)
	mux.HandleFunc("GET /api/{resource}/export", h.Export)

	admin := h.mw.RequireAdmin
	mux.Handle("POST /api/admin/{resource}", admin(http.HandlerFunc(h.Create)))
	mux.Handle("PUT /api/admin/{resource}/{id}", admin(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/admin/{resource}/{id}", admin(http.HandlerFunc(h.Delete)))
	mux.Handle("POST /api/admin/{resource}/import", admin(http.HandlerFunc(h.Import)))
}

// resource resolves the {resource} path segment.
func (h *Handler) resource(w http.ResponseWriter, r *http.Request) (Resource, bool) {
	res, ok := h.resources[r.PathValue("resource")]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown resource")
	}
	return res, ok
}

// pathID resolves the {id} path segment.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(pathParamID), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// List handles GET /api/{resource}. With any advanced query parameter it
// compiles and runs the dynamic query; otherwise it falls back to the
// resource's fixed legacy query. Parse failures return 500 with the
// parser's message verbatim; that contract predates this server and is
// asserted by existing clients.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	if !query.HasAdvanced(q) {
		rows, err := h.store.ListLegacy(r.Context(), res)
		if err != nil {
			slog.Error("legacy list failed", "resource", res.Name, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rows)
		return
	}

	opts, err := query.ParseRequest(q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := h.builder.Build(r.Context(), res.Table, opts)
	if err != nil {
		slog.Error("advanced query failed", "resource", res.Name, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	slog.Debug("advanced query served",
		"resource", res.Name, "sql", result.SQL, "params", result.Params, "rows", len(result.Rows))
	writeJSON(w, http.StatusOK, result.Rows)
}

// Get handles GET /api/{resource}/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	row, err := h.store.GetByID(r.Context(), res, id)
	if err != nil {
		slog.Error("get failed", "resource", res.Name, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if row == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// Export handles GET /api/{resource}/export, streaming the advanced
// query's result set as an XLSX workbook.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}

	opts, err := query.ParseRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := h.builder.Build(r.Context(), res.Table, opts)
	if err != nil {
		slog.Error("export query failed", "resource", res.Name, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Name+".xlsx"))
	if err := WriteXLSX(w, res.Table, result); err != nil {
		// Headers are already out; log and abandon the response.
		slog.Error("xlsx export failed", "resource", res.Name, "error", err)
	}
}

// Summary handles GET /api/dashboard/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.Summary(r.Context())
	if err != nil {
		slog.Error("summary failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// decodePayload reads a JSON object body.
func decodePayload(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	return fields, true
}

// validateRequired checks the resource's required create fields.
func validateRequired(w http.ResponseWriter, res Resource, fields map[string]any) bool {
	for _, name := range res.Required {
		value, ok := fields[name]
		if !ok || value == nil || value == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("missing required field: %s", name))
			return false
		}
	}
	return true
}

// Create handles POST /api/admin/{resource}.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	fields, ok := decodePayload(w, r)
	if !ok {
		return
	}
	if !validateRequired(w, res, fields) {
		return
	}

	id, err := h.store.Insert(r.Context(), res, fields)
	if errors.Is(err, ErrNoValidColumns) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("create failed", "resource", res.Name, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	slog.Info("record created", "resource", res.Name, "id", id)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// Update handles PUT /api/admin/{resource}/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	fields, ok := decodePayload(w, r)
	if !ok {
		return
	}
	if len(fields) == 0 {
		writeError(w, http.StatusBadRequest, "empty payload")
		return
	}

	found, err := h.store.Update(r.Context(), res, id, fields)
	if errors.Is(err, ErrNoValidColumns) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("update failed", "resource", res.Name, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	slog.Info("record updated", "resource", res.Name, "id", id)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Delete handles DELETE /api/admin/{resource}/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	found, err := h.store.Delete(r.Context(), res, id)
	if err != nil {
		slog.Error("delete failed", "resource", res.Name, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	slog.Info("record deleted", "resource", res.Name, "id", id)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Import handles POST /api/admin/{resource}/import with a CSV body.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}

	count, err := h.store.ImportCSV(r.Context(), res, r.Body)
	if errors.Is(err, ErrNoImportableColumns) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("import failed", "resource", res.Name, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	slog.Info("csv imported", "resource", res.Name, "rows", count)
	writeJSON(w, http.StatusOK, map[string]int{"imported": count})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
