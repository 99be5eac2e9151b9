/*
handlers.go - HTTP handlers for the installment engine

PURPOSE:
  Thin translation layer: decode request, call the engine, encode snapshot.
  All business rules live in the plan package; handlers only map engine
  errors onto HTTP status codes.

ERROR MAPPING:
  plan.IsNotFound     -> 404
  plan.IsClientError  -> 400 / 409 (transitions)
  plan.IsRetryable    -> 409
  anything else       -> 500
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/warp/installment-engine/factory"
	"github.com/warp/installment-engine/plan"
)

// SweepRunStore is the optional store capability for sweep audit records.
// The SQLite store implements it; the memory store does not need to.
type SweepRunStore interface {
	SaveSweepRun(ctx context.Context, report plan.SweepReport) error
}

// SweepRunLister is the optional store capability for reading sweep audit
// records back.
type SweepRunLister interface {
	ListSweepRuns(ctx context.Context, limit int) ([]plan.SweepRun, error)
}

// Handler bundles the engine and its collaborators for HTTP serving.
type Handler struct {
	Engine  *plan.Engine
	Sweep   *plan.LateFeeSweep
	Factory *factory.PlanFactory
	Log     *logrus.Logger
}

func NewHandler(engine *plan.Engine) *Handler {
	return &Handler{
		Engine:  engine,
		Sweep:   plan.NewLateFeeSweep(engine),
		Factory: factory.NewPlanFactory(),
		Log:     logrus.StandardLogger(),
	}
}

// =============================================================================
// PLAN CRUD
// =============================================================================

func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	spec, err := req.ToSpec()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := h.Engine.CreatePlan(r.Context(), spec)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, p.Snapshot())
}

func (h *Handler) CreatePlanFromTemplate(w http.ResponseWriter, r *http.Request) {
	var req CreateFromTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	tj, err := h.Factory.ParseTemplate(req.Template)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	startDate, err := plan.ParseDate(req.StartDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	total, err := parseMoney(req.TotalAmount, "total_amount")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	down, err := parseMoneyOrZero(req.DownPayment, "down_payment")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	spec, err := h.Factory.Spec(tj, factory.Sale{
		PlanNumber:  req.PlanNumber,
		CustomerRef: req.CustomerRef,
		InvoiceRef:  req.InvoiceRef,
		StartDate:   startDate,
		TotalAmount: total,
		DownPayment: down,
	})
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.Engine.CreatePlan(r.Context(), spec)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, p.Snapshot())
}

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Engine.Store.ListPlans(r.Context())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	snapshots := make([]plan.PlanSnapshot, 0, len(plans))
	for _, p := range plans {
		snapshots = append(snapshots, p.Snapshot())
	}
	h.writeJSON(w, http.StatusOK, snapshots)
}

func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	p, err := h.Engine.GetPlan(r.Context(), planID(r))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, p.Snapshot())
}

// =============================================================================
// LIFECYCLE OPERATIONS
// =============================================================================

func (h *Handler) ActivatePlan(w http.ResponseWriter, r *http.Request) {
	h.lifecycleOp(w, r, h.Engine.Activate)
}

func (h *Handler) CancelPlan(w http.ResponseWriter, r *http.Request) {
	h.lifecycleOp(w, r, h.Engine.Cancel)
}

func (h *Handler) HoldPlan(w http.ResponseWriter, r *http.Request) {
	h.lifecycleOp(w, r, h.Engine.Hold)
}

func (h *Handler) ResumePlan(w http.ResponseWriter, r *http.Request) {
	h.lifecycleOp(w, r, h.Engine.Resume)
}

func (h *Handler) DefaultPlan(w http.ResponseWriter, r *http.Request) {
	h.lifecycleOp(w, r, h.Engine.MarkDefaulted)
}

func (h *Handler) lifecycleOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id plan.PlanID) error) {
	id := planID(r)
	if err := op(r.Context(), id); err != nil {
		h.writeEngineError(w, err)
		return
	}
	p, err := h.Engine.GetPlan(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, p.Snapshot())
}

// =============================================================================
// PAYMENTS AND WAIVERS
// =============================================================================

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id := planID(r)
	number, err := installmentNumber(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := parseMoney(req.Amount, "amount")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	method := plan.PaymentMethod(req.Method)
	if method == "" {
		method = plan.PaymentOther
	}

	result, err := h.Engine.RecordPayment(r.Context(), id, number, amount, method, req.Reference)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	p, err := h.Engine.GetPlan(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, PaymentResponse{
		InstallmentNumber: result.Number,
		Applied:           result.Applied,
		ExcessAbsorbed:    result.ExcessAbsorbed,
		Remaining:         result.Remaining,
		Status:            result.Status,
		Plan:              p.Snapshot(),
	})
}

func (h *Handler) WaiveInstallment(w http.ResponseWriter, r *http.Request) {
	id := planID(r)
	number, err := installmentNumber(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Engine.WaiveInstallment(r.Context(), id, number); err != nil {
		h.writeEngineError(w, err)
		return
	}
	p, err := h.Engine.GetPlan(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, p.Snapshot())
}

// =============================================================================
// SWEEP
// =============================================================================

func (h *Handler) RunSweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.Sweep.Run(r.Context())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// ListSweepRuns returns recent sweep audit records. Stores without audit
// support (the memory store) report an empty list.
func (h *Handler) ListSweepRuns(w http.ResponseWriter, r *http.Request) {
	lister, ok := h.Engine.Store.(SweepRunLister)
	if !ok {
		h.writeJSON(w, http.StatusOK, []plan.SweepRun{})
		return
	}
	runs, err := lister.ListSweepRuns(r.Context(), 20)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	if runs == nil {
		runs = []plan.SweepRun{}
	}
	h.writeJSON(w, http.StatusOK, runs)
}

// =============================================================================
// HELPERS
// =============================================================================

func planID(r *http.Request) plan.PlanID {
	return plan.PlanID(chi.URLParam(r, "id"))
}

func installmentNumber(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "number"))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.WithError(err).Error("failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case plan.IsNotFound(err):
		h.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, plan.ErrInvalidTransition), plan.IsRetryable(err):
		h.writeError(w, http.StatusConflict, err)
	case plan.IsClientError(err):
		h.writeError(w, http.StatusBadRequest, err)
	default:
		h.Log.WithError(err).Error("internal error")
		h.writeError(w, http.StatusInternalServerError, err)
	}
}
