package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"survey-forms/internal/survey/loader"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// ReadJSON serves the form builder read endpoint from the public directory,
// falling back to the bundled definitions. refresh=1 also evicts the cached
// copy used by survey opens.
func (h *Handler) ReadJSON(w http.ResponseWriter, r *http.Request) {
	fileName := strings.TrimSpace(r.URL.Query().Get("fileName"))
	if fileName == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, loader.ReadJSONResponse{Message: "fileName is required"})
		return
	}

	if h.cache != nil && r.URL.Query().Get("refresh") == "1" {
		if err := h.cache.Invalidate(r.Context(), fileName); err != nil {
			h.logger.Warn("schema cache invalidation failed", map[string]interface{}{"fileName": fileName, "error": err.Error()})
		} else {
			h.logger.Info("schema cache invalidated", map[string]interface{}{"fileName": fileName})
		}
	}

	doc, err := h.readDefinition(r, fileName)
	if err != nil {
		h.logger.Debug("read-json miss", map[string]interface{}{"fileName": fileName, "error": err.Error()})
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, loader.ReadJSONResponse{Message: "File not found"})
		return
	}
	render.JSON(w, r, loader.ReadJSONResponse{Data: doc})
}

// PublicFile serves /data/<fileName> as raw JSON.
func (h *Handler) PublicFile(w http.ResponseWriter, r *http.Request) {
	fileName := chi.URLParam(r, "fileName")
	if h.publicDir == "" {
		http.NotFound(w, r)
		return
	}
	data, err := loader.ReadPublicFile(h.publicDir, fileName)
	if err != nil {
		if !errors.Is(err, loader.ErrNotFound) {
			h.logger.Warn("public file read failed", map[string]interface{}{"fileName": fileName, "error": err.Error()})
		}
		http.NotFound(w, r)
		return
	}
	if !json.Valid(data) {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, errorBody{Code: "SCHEMA_INVALID", Message: "file is not valid JSON"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (h *Handler) readDefinition(r *http.Request, fileName string) (interface{}, error) {
	if h.publicDir != "" {
		if doc, err := loader.NewPublicSource(nil, "", h.publicDir).Load(r.Context(), fileName); err == nil {
			return doc, nil
		}
	}
	return loader.NewBundledSource(nil).Load(r.Context(), fileName)
}
