package handlers

import (
	"net/http"
	"strconv"

	"github.com/classpoints/backend/internal/middleware"
	"github.com/classpoints/backend/internal/services"
	"github.com/go-chi/chi/v5"
)

type BalanceResponse struct {
	StudentID string `json:"student_id"`
	Balance   int64  `json:"balance"`
}

type PointsHandler struct {
	ledger  *services.LedgerService
	gateway *services.Gateway
}

func NewPointsHandler(ledgerService *services.LedgerService, gateway *services.Gateway) *PointsHandler {
	return &PointsHandler{
		ledger:  ledgerService,
		gateway: gateway,
	}
}

func (h *PointsHandler) Routes(r chi.Router) {
	r.Route("/students/{studentID}", func(r chi.Router) {
		r.Get("/balance", h.GetBalance)
		r.Get("/history", h.GetHistory)
		r.Get("/reconcile", h.Reconcile)
		r.Post("/account", h.OpenAccount)
		r.Post("/adjustments", h.Adjust)
		r.With(middleware.RequireRole(middleware.RoleAdmin)).Post("/archive", h.ArchiveAccount)
	})
}

// GetBalance returns a student's current balance
// @Summary Get balance
// @Tags Points
// @Produce json
// @Security BearerAuth
// @Param studentID path string true "Student ID"
// @Success 200 {object} BalanceResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /students/{studentID}/balance [get]
func (h *PointsHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")
	balance, err := h.ledger.GetBalance(r.Context(), studentID)
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{StudentID: studentID, Balance: balance})
}

// Adjust submits a grading, attendance, remark or manual event
// @Summary Submit adjustment event
// @Description Routes a tagged event through the rule engine. Manual adjustments need the admin role.
// @Tags Points
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentID path string true "Student ID"
// @Param request body services.AdjustRequest true "Adjustment event"
// @Success 200 {object} services.AdjustResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /students/{studentID}/adjustments [post]
func (h *PointsHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req services.AdjustRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Kind == services.KindManual && middleware.RoleFromContext(r.Context()) != middleware.RoleAdmin {
		services.SendErrorResponse(w, "Manual adjustments require the admin role", http.StatusForbidden, nil)
		return
	}

	resp, err := h.gateway.Submit(r.Context(), chi.URLParam(r, "studentID"), req)
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetHistory returns the adjustment log in creation order
// @Summary Adjustment history
// @Tags Points
// @Produce json
// @Security BearerAuth
// @Param studentID path string true "Student ID"
// @Param limit query int false "Newest records to return"
// @Success 200 {array} models.AdjustmentRecord
// @Failure 404 {object} services.ErrorResponse
// @Router /students/{studentID}/history [get]
func (h *PointsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			services.SendErrorResponse(w, "limit must be a non-negative integer", http.StatusBadRequest, nil)
			return
		}
		limit = n
	}

	records, err := h.ledger.History(r.Context(), chi.URLParam(r, "studentID"), limit)
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Reconcile compares the stored balance with a replay of the log
// @Summary Reconcile balance
// @Tags Points
// @Produce json
// @Security BearerAuth
// @Param studentID path string true "Student ID"
// @Success 200 {object} services.ReconcileReport
// @Failure 404 {object} services.ErrorResponse
// @Router /students/{studentID}/reconcile [get]
func (h *PointsHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledger.Reconcile(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// OpenAccount creates the points account for a student if it does not exist
// @Summary Open account
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param studentID path string true "Student ID"
// @Success 200 {object} models.Account
// @Router /students/{studentID}/account [post]
func (h *PointsHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.ledger.OpenAccount(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// ArchiveAccount freezes a student's account
// @Summary Archive account
// @Tags Accounts
// @Security BearerAuth
// @Param studentID path string true "Student ID"
// @Success 204
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /students/{studentID}/archive [post]
func (h *PointsHandler) ArchiveAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.ArchiveAccount(r.Context(), chi.URLParam(r, "studentID")); err != nil {
		services.SendLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
