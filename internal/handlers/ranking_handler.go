package handlers

import (
	"net/http"
	"strconv"

	"github.com/classpoints/backend/internal/models"
	"github.com/classpoints/backend/internal/services"
	"github.com/go-chi/chi/v5"
)

type RankingHandler struct {
	ranking *services.RankingService
}

func NewRankingHandler(ranking *services.RankingService) *RankingHandler {
	return &RankingHandler{ranking: ranking}
}

func (h *RankingHandler) Routes(r chi.Router) {
	r.Get("/rankings", h.Rank)
}

// Rank returns the leaderboard
// @Summary Leaderboard
// @Description Ordered by value descending, ties broken by ascending student id
// @Tags Rankings
// @Produce json
// @Security BearerAuth
// @Param criterion query string false "points, avg_grade or attendance_rate" default(points)
// @Param limit query int false "Maximum entries"
// @Success 200 {array} models.RankEntry
// @Failure 400 {object} services.ErrorResponse
// @Router /rankings [get]
func (h *RankingHandler) Rank(w http.ResponseWriter, r *http.Request) {
	criterion := models.CriterionPoints
	if raw := r.URL.Query().Get("criterion"); raw != "" {
		criterion = models.Criterion(raw)
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			services.SendErrorResponse(w, "limit must be an integer", http.StatusBadRequest, nil)
			return
		}
		limit = n
	}

	entries, err := h.ranking.Rank(r.Context(), criterion, limit)
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
