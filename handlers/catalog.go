package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	apperrors "corecatalog/internal/errors"
)

// defaultFailureLimit bounds GET /failures when no limit is given
const defaultFailureLimit = 50

// CatalogHandlers serves the core image catalog over HTTP
type CatalogHandlers struct {
	container *Container
}

// NewCatalogHandlers creates a new CatalogHandlers instance
func NewCatalogHandlers(container *Container) *CatalogHandlers {
	return &CatalogHandlers{container: container}
}

// RemotesResponse lists the configured remotes of the host
type RemotesResponse struct {
	Arch    string   `json:"arch"`
	Remotes []string `json:"remotes"`
}

// ListRemotes returns the configured remote names
func (h *CatalogHandlers) ListRemotes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.container.Logger, http.StatusOK, RemotesResponse{
		Arch:    h.container.Host.Arch(),
		Remotes: h.container.Host.Remotes(),
	})
}

// ListImages returns every record of a remote
func (h *CatalogHandlers) ListImages(w http.ResponseWriter, r *http.Request) {
	allowUnsupported, err := GetBoolParam(r, "allow_unsupported")
	if err != nil {
		apperrors.HandleHTTPError(w, h.container.Logger, apperrors.NewValidationError("list images", err))
		return
	}

	images, err := h.container.Host.ListAll(r.URL.Query().Get("remote"), allowUnsupported)
	if err != nil {
		apperrors.HandleHTTPError(w, h.container.Logger, apperrors.Wrap(err, "list images"))
		return
	}

	writeJSON(w, h.container.Logger, http.StatusOK, images)
}

// GetImage returns the record for a release identifier or alias
func (h *CatalogHandlers) GetImage(w http.ResponseWriter, r *http.Request) {
	alias := mux.Vars(r)["alias"]
	remote := r.URL.Query().Get("remote")

	record, err := h.container.Host.Lookup(alias, remote)
	if err != nil {
		apperrors.HandleHTTPError(w, h.container.Logger, apperrors.Wrap(err, "lookup image"))
		return
	}
	if record == nil {
		http.Error(w, fmt.Sprintf("Image %q not found", alias), http.StatusNotFound)
		return
	}

	writeJSON(w, h.container.Logger, http.StatusOK, record)
}

// GetImageByHash returns the cached record with the given full hash
func (h *CatalogHandlers) GetImageByHash(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]

	record, err := h.container.Host.LookupByHash(hash)
	if err != nil {
		apperrors.HandleHTTPError(w, h.container.Logger, err)
		return
	}
	if record == nil {
		http.Error(w, fmt.Sprintf("No image with hash %q", hash), http.StatusNotFound)
		return
	}

	writeJSON(w, h.container.Logger, http.StatusOK, record)
}

// ListFailures returns the most recent manifest update failures
func (h *CatalogHandlers) ListFailures(w http.ResponseWriter, r *http.Request) {
	limit := defaultFailureLimit
	if value := r.URL.Query().Get("limit"); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			apperrors.HandleHTTPError(w, h.container.Logger,
				apperrors.NewValidationError("list failures", fmt.Errorf("invalid limit parameter: %q", value)))
			return
		}
		limit = n
	}

	events, err := h.container.Failures.Recent(r.Context(), limit)
	if err != nil {
		apperrors.HandleHTTPError(w, h.container.Logger, apperrors.NewDatabaseError("list failures", err))
		return
	}

	writeJSON(w, h.container.Logger, http.StatusOK, events)
}

// Refresh updates the manifests, unconditionally when force is set
func (h *CatalogHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	force, err := GetBoolParam(r, "force")
	if err != nil {
		apperrors.HandleHTTPError(w, h.container.Logger, apperrors.NewValidationError("refresh", err))
		return
	}

	h.container.Host.UpdateManifests(r.Context(), force)
	w.WriteHeader(http.StatusNoContent)
}

// Clear drops every cached manifest
func (h *CatalogHandlers) Clear(w http.ResponseWriter, r *http.Request) {
	h.container.Host.Clear()
	w.WriteHeader(http.StatusNoContent)
}
