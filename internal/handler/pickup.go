package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bridgeofhope/internal/lifecycle"
	"bridgeofhope/internal/model"
	"bridgeofhope/internal/mw"
	"bridgeofhope/internal/service"
)

type pickupService interface {
	Board(ctx context.Context, orgID string) (service.Board, error)
	Refresh(ctx context.Context, orgID string) (service.Board, error)
	Accept(ctx context.Context, orgID, donorID, date, slot string) (service.Result, error)
	Decline(ctx context.Context, orgID, donorID string) (service.Result, error)
}

type pickupItem struct {
	model.PickupRequest
	DonorName    string `json:"donor_name,omitempty"`
	DonorAddress string `json:"donor_address,omitempty"`
}

type pickupsResponse struct {
	Tab      lifecycle.Tab    `json:"tab"`
	Version  uint64           `json:"version"`
	Counts   lifecycle.Counts `json:"counts"`
	Requests []pickupItem     `json:"requests"`
}

// decisionResponse carries the decided request and the active tab after
// the commit.
type decisionResponse struct {
	Request model.PickupRequest `json:"request"`
	pickupsResponse
}

type acceptRequest struct {
	PickupDate string `json:"pickup_date" validate:"required"`
	PickupTime string `json:"pickup_time" validate:"required"`
}

func ListPickupsHandler(pickupSvc pickupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, ok := mw.OrganizationID(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		tab, err := lifecycle.ParseTab(r.URL.Query().Get("tab"))
		if err != nil {
			writeError(w, err)
			return
		}

		board, err := pickupSvc.Board(r.Context(), orgID)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, boardResponse(board, tab))
	}
}

func RefreshPickupsHandler(pickupSvc pickupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, ok := mw.OrganizationID(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		board, err := pickupSvc.Refresh(r.Context(), orgID)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, boardResponse(board, lifecycle.TabActive))
	}
}

func AcceptPickupHandler(pickupSvc pickupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, ok := mw.OrganizationID(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req acceptRequest
		if !decodeBody(w, r, &req) {
			return
		}

		res, err := pickupSvc.Accept(r.Context(), orgID, chi.URLParam(r, "donorID"), req.PickupDate, req.PickupTime)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, decisionResponse{Request: res.Request, pickupsResponse: boardResponse(res.Board, lifecycle.TabActive)})
	}
}

func DeclinePickupHandler(pickupSvc pickupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, ok := mw.OrganizationID(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		res, err := pickupSvc.Decline(r.Context(), orgID, chi.URLParam(r, "donorID"))
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, decisionResponse{Request: res.Request, pickupsResponse: boardResponse(res.Board, lifecycle.TabActive)})
	}
}

func boardResponse(board service.Board, tab lifecycle.Tab) pickupsResponse {
	selected := board.View.Select(tab)
	items := make([]pickupItem, 0, len(selected))
	for _, req := range selected {
		d := board.Donors[req.DonorID]
		items = append(items, pickupItem{PickupRequest: req, DonorName: d.Name, DonorAddress: d.Address})
	}
	return pickupsResponse{
		Tab:      tab,
		Version:  board.View.Version,
		Counts:   board.View.Counts(),
		Requests: items,
	}
}
