package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphummel/crowpanel/internal/models"
	"github.com/tphummel/crowpanel/internal/profiles"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping() error
}

// SlotReader is the read side of the profile store.
type SlotReader interface {
	LoadAll() (profiles.Slots, error)
	Slot(i int) (models.MachineProfile, error)
	SelectedIndex() (int, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	DB      Pinger
	Store   SlotReader
	Version string
	Commit  string
	// Gatherer backs /metrics. Nil serves the default registry.
	Gatherer prometheus.Gatherer
}

// SlotView is the public form of one slot. The password is never returned.
type SlotView struct {
	Slot           int    `json:"slot"`
	Configured     bool   `json:"configured"`
	Name           string `json:"name"`
	ConnectionType string `json:"connection_type"`
	SSID           string `json:"ssid"`
	HasPassword    bool   `json:"has_password"`
	RemoteHost     string `json:"remote_host"`
	RemotePort     uint16 `json:"remote_port"`
	Selected       bool   `json:"selected"`
}

// NewSlotView builds the view of slot i given the current selection.
func NewSlotView(i int, p models.MachineProfile, selected int) SlotView {
	return SlotView{
		Slot:           i,
		Configured:     p.Configured,
		Name:           p.Name,
		ConnectionType: p.Connection.String(),
		SSID:           p.SSID,
		HasPassword:    p.Password != "",
		RemoteHost:     p.RemoteHost,
		RemotePort:     p.RemotePort,
		Selected:       i == selected,
	}
}

// SelectionView is the response of GET /api/v1/selection. Slot is nil when
// nothing is selected or the index is out of range.
type SelectionView struct {
	Index int       `json:"index"`
	Slot  *SlotView `json:"slot"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Health handles GET /healthz. No auth required.
// Returns 503 if the database is unreachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.Version,
		"commit":  h.Commit,
	})
}

// ListSlots handles GET /api/v1/slots.
func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.Store.LoadAll()
	if err != nil {
		slog.Error("failed to load slots", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load slots")
		return
	}
	selected, err := h.Store.SelectedIndex()
	if err != nil {
		slog.Error("failed to load selection", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load selection")
		return
	}

	views := make([]SlotView, 0, len(slots))
	for i, p := range slots {
		views = append(views, NewSlotView(i, p, selected))
	}
	writeJSON(w, http.StatusOK, views)
}

// GetSlot handles GET /api/v1/slots/{slot}.
func (h *Handler) GetSlot(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(r.PathValue("slot"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "slot must be an integer")
		return
	}
	p, err := h.Store.Slot(i)
	if errors.Is(err, profiles.ErrSlotOutOfRange) {
		writeError(w, http.StatusNotFound, "slot not found")
		return
	}
	if err != nil {
		slog.Error("failed to load slot", "slot", i, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load slot")
		return
	}
	selected, err := h.Store.SelectedIndex()
	if err != nil {
		slog.Error("failed to load selection", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load selection")
		return
	}
	writeJSON(w, http.StatusOK, NewSlotView(i, p, selected))
}

// GetSelection handles GET /api/v1/selection. A stale selection is returned
// with its unconfigured slot.
func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	selected, err := h.Store.SelectedIndex()
	if err != nil {
		slog.Error("failed to load selection", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load selection")
		return
	}
	resp := SelectionView{Index: selected}
	if models.ValidSlot(selected) {
		p, err := h.Store.Slot(selected)
		if err != nil {
			slog.Error("failed to load slot", "slot", selected, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load slot")
			return
		}
		v := NewSlotView(selected, p, selected)
		resp.Slot = &v
	}
	writeJSON(w, http.StatusOK, resp)
}
