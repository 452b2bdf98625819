package bms

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kilianp07/bms12v/core/advisory"
	"github.com/kilianp07/bms12v/core/events"
	"github.com/kilianp07/bms12v/core/model"
	"github.com/kilianp07/bms12v/core/session"
)

// Controller is the session surface used by the API.
type Controller interface {
	ID() string
	Snapshot() model.Snapshot
	State() session.State
	Log() []model.RationaleEntry
	Samples() []model.Sample
	Apply(u session.Update) ([]session.Change, error)
}

// Publisher receives the events raised by API requests.
type Publisher interface {
	Publish(ev events.Event)
}

// Handler serves the BMS endpoints.
type Handler struct {
	ctrl Controller
	adv  advisory.Advisor
	pub  Publisher
	now  func() time.Time
}

// NewHandler returns a Handler. adv and pub may be nil.
func NewHandler(ctrl Controller, adv advisory.Advisor, pub Publisher) *Handler {
	if adv == nil {
		adv = advisory.Disabled{}
	}
	return &Handler{ctrl: ctrl, adv: adv, pub: pub, now: time.Now}
}

// Register mounts the routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	api := r.PathPrefix("/api/bms").Subrouter()
	api.HandleFunc("/snapshot", h.snapshot).Methods(http.MethodGet)
	api.HandleFunc("/state", h.state).Methods(http.MethodGet)
	api.HandleFunc("/log", h.log).Methods(http.MethodGet)
	api.HandleFunc("/samples", h.samples).Methods(http.MethodGet)
	api.HandleFunc("/samples/summary", h.summary).Methods(http.MethodGet)
	api.HandleFunc("/telemetry", h.patchTelemetry).Methods(http.MethodPatch)
	api.HandleFunc("/vehicle-mode", h.putVehicleMode).Methods(http.MethodPut)
	api.HandleFunc("/faults/{name}", h.putFault).Methods(http.MethodPut)
	api.HandleFunc("/advisory", h.postAdvisory).Methods(http.MethodPost)
}

type errorResponse struct {
	Error string `json:"error"`
}

type changesResponse struct {
	Changes []session.Change `json:"changes"`
}

type analysisResponse struct {
	Status string           `json:"status"`
	Reason string           `json:"reason"`
	Action string           `json:"action"`
	Fields []advisory.Field `json:"fields"`
	Raw    string           `json:"raw"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) snapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

func (h *Handler) state(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.State())
}

func (h *Handler) log(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Log())
}

func (h *Handler) samples(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Samples())
}

func (h *Handler) summary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, session.Summarize(h.ctrl.Samples()))
}

type telemetryRequest struct {
	SOC           *float64 `json:"soc"`
	Temperature   *float64 `json:"temperature"`
	AccessoryLoad *float64 `json:"accessory_load"`
	SOH           *float64 `json:"soh"`
}

func (h *Handler) patchTelemetry(w http.ResponseWriter, r *http.Request) {
	var req telemetryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.apply(w, session.Update{
		SOC:           req.SOC,
		Temperature:   req.Temperature,
		AccessoryLoad: req.AccessoryLoad,
		SOH:           req.SOH,
	})
}

type vehicleModeRequest struct {
	VehicleMode string `json:"vehicle_mode"`
}

func (h *Handler) putVehicleMode(w http.ResponseWriter, r *http.Request) {
	var req vehicleModeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	m, err := model.ParseVehicleMode(req.VehicleMode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.apply(w, session.Update{VehicleMode: &m})
}

type faultRequest struct {
	Active *bool `json:"active"`
}

func (h *Handler) putFault(w http.ResponseWriter, r *http.Request) {
	f, err := model.ParseFault(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req faultRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Active == nil {
		writeError(w, http.StatusBadRequest, errors.New("active is required"))
		return
	}
	h.apply(w, session.Update{Faults: map[model.Fault]bool{f: *req.Active}})
}

func (h *Handler) apply(w http.ResponseWriter, u session.Update) {
	if u.Empty() {
		writeError(w, http.StatusBadRequest, errors.New("empty update"))
		return
	}
	changes, err := h.ctrl.Apply(u)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if h.pub != nil {
		for _, ev := range events.InputEvents(h.ctrl.ID(), "api", changes, h.now()) {
			h.pub.Publish(ev)
		}
	}
	writeJSON(w, http.StatusOK, changesResponse{Changes: changes})
}

func (h *Handler) postAdvisory(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	a, err := h.adv.Analyze(r.Context(), h.ctrl.Snapshot())
	if h.pub != nil {
		h.pub.Publish(events.AdvisoryEvent{
			SessionID: h.ctrl.ID(),
			Outcome:   advisory.Outcome(err),
			Latency:   h.now().Sub(start),
			Err:       err,
		})
	}
	if err != nil {
		writeError(w, advisoryStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse{
		Status: a.Status(),
		Reason: a.Reason(),
		Action: a.Action(),
		Fields: a.Fields,
		Raw:    a.Raw,
	})
}

func advisoryStatus(err error) int {
	switch {
	case errors.Is(err, advisory.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, advisory.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	return nil
}
