package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bridgeofhope/internal/model"
	"bridgeofhope/internal/ranking"
	"bridgeofhope/internal/service"
)

type leaderboardService interface {
	Leaderboard(ctx context.Context, q service.LeaderboardQuery) (service.Leaderboard, error)
}

type donorService interface {
	Summary(ctx context.Context, donorID, item string) (model.DonorSummary, error)
}

func LeaderboardHandler(leaderboardSvc leaderboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := service.LeaderboardQuery{
			Search: r.URL.Query().Get("q"),
			SortBy: r.URL.Query().Get("sort"),
		}

		board, err := leaderboardSvc.Leaderboard(r.Context(), q)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, board)
	}
}

func TiersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ranking.Tiers)
	}
}

func DonorSummaryHandler(donorSvc donorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		donorID := chi.URLParam(r, "donorID")
		if donorID == "" {
			http.Error(w, "donor id required", http.StatusBadRequest)
			return
		}

		summary, err := donorSvc.Summary(r.Context(), donorID, r.URL.Query().Get("item"))
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}
