package handlers

import (
	"net/http"
	"time"
)

// RemoteStatus reports whether a remote currently has a manifest
type RemoteStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Images int    `json:"images"`
	Error  string `json:"error,omitempty"`
}

// SystemStatus represents the overall service status
type SystemStatus struct {
	Arch          string         `json:"arch"`
	LastCheck     time.Time      `json:"last_check"`
	Remotes       []RemoteStatus `json:"remotes"`
	OverallStatus string         `json:"overall_status"`
}

// StatusHandlers handles status-related requests
type StatusHandlers struct {
	container *Container
}

// NewStatusHandlers creates a new StatusHandlers instance
func NewStatusHandlers(container *Container) *StatusHandlers {
	return &StatusHandlers{container: container}
}

// Health reports per-remote cache state. The response is 503 until at
// least one remote has a manifest.
func (h *StatusHandlers) Health(w http.ResponseWriter, r *http.Request) {
	status := h.getSystemStatus()

	code := http.StatusOK
	if status.OverallStatus != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, h.container.Logger, code, status)
}

func (h *StatusHandlers) getSystemStatus() SystemStatus {
	host := h.container.Host
	status := SystemStatus{
		Arch:          host.Arch(),
		LastCheck:     time.Now(),
		Remotes:       []RemoteStatus{},
		OverallStatus: "unavailable",
	}

	for _, remote := range host.Remotes() {
		images, err := host.ListAll(remote, true)
		if err != nil {
			status.Remotes = append(status.Remotes, RemoteStatus{
				Name:   remote,
				Status: "unavailable",
				Error:  err.Error(),
			})
			continue
		}

		status.Remotes = append(status.Remotes, RemoteStatus{
			Name:   remote,
			Status: "ok",
			Images: len(images),
		})
		status.OverallStatus = "ok"
	}

	return status
}
