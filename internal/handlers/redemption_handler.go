package handlers

import (
	"net/http"

	"github.com/classpoints/backend/internal/services"
	"github.com/go-chi/chi/v5"
)

type RedeemRequest struct {
	PrizeID string `json:"prize_id" validate:"required,max=128"`
}

type RedemptionHandler struct {
	ledger      *services.LedgerService
	redemptions *services.RedemptionService
	vouchers    *services.VoucherService
	validator   *services.ValidationHelper
}

func NewRedemptionHandler(ledgerService *services.LedgerService, redemptions *services.RedemptionService, vouchers *services.VoucherService) *RedemptionHandler {
	return &RedemptionHandler{
		ledger:      ledgerService,
		redemptions: redemptions,
		vouchers:    vouchers,
		validator:   services.NewValidationHelper(),
	}
}

func (h *RedemptionHandler) Routes(r chi.Router) {
	r.Post("/students/{studentID}/redemptions", h.Redeem)
	r.Get("/students/{studentID}/redemptions", h.ListRedemptions)
	r.Get("/redemptions/{redemptionID}", h.GetRedemption)
	r.Get("/redemptions/{redemptionID}/voucher", h.GetVoucher)
	r.Get("/prizes", h.ListPrizes)
}

// Redeem exchanges points for a prize
// @Summary Redeem prize
// @Tags Redemptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentID path string true "Student ID"
// @Param request body RedeemRequest true "Prize to redeem"
// @Success 201 {object} models.RedemptionRecord
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /students/{studentID}/redemptions [post]
func (h *RedemptionHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	rec, err := h.redemptions.Redeem(r.Context(), chi.URLParam(r, "studentID"), req.PrizeID)
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// ListRedemptions lists a student's redemptions
// @Summary List redemptions
// @Tags Redemptions
// @Produce json
// @Security BearerAuth
// @Param studentID path string true "Student ID"
// @Success 200 {array} models.RedemptionRecord
// @Router /students/{studentID}/redemptions [get]
func (h *RedemptionHandler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	recs, err := h.ledger.ListRedemptions(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// GetRedemption returns one redemption
// @Summary Get redemption
// @Tags Redemptions
// @Produce json
// @Security BearerAuth
// @Param redemptionID path string true "Redemption ID"
// @Success 200 {object} models.RedemptionRecord
// @Failure 404 {object} services.ErrorResponse
// @Router /redemptions/{redemptionID} [get]
func (h *RedemptionHandler) GetRedemption(w http.ResponseWriter, r *http.Request) {
	rec, err := h.ledger.GetRedemption(r.Context(), chi.URLParam(r, "redemptionID"))
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GetVoucher renders the redemption voucher as a QR code
// @Summary Redemption voucher
// @Tags Redemptions
// @Produce png
// @Security BearerAuth
// @Param redemptionID path string true "Redemption ID"
// @Success 200 {file} binary
// @Failure 404 {object} services.ErrorResponse
// @Router /redemptions/{redemptionID}/voucher [get]
func (h *RedemptionHandler) GetVoucher(w http.ResponseWriter, r *http.Request) {
	png, err := h.vouchers.Voucher(r.Context(), chi.URLParam(r, "redemptionID"))
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.Write(png)
}

// ListPrizes lists the active prizes
// @Summary List prizes
// @Tags Redemptions
// @Produce json
// @Success 200 {array} models.Prize
// @Router /prizes [get]
func (h *RedemptionHandler) ListPrizes(w http.ResponseWriter, r *http.Request) {
	prizes, err := h.redemptions.ListPrizes(r.Context())
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prizes)
}
