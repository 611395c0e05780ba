package handler

import (
	"context"
	"net/http"

	"bridgeofhope/internal/model"
	"bridgeofhope/internal/mw"
)

type decisionLister interface {
	ListByOrganization(ctx context.Context, orgID string) ([]model.Decision, error)
}

func ListDecisionsHandler(decisions decisionLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, ok := mw.OrganizationID(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		list, err := decisions.ListByOrganization(r.Context(), orgID)
		if err != nil {
			writeError(w, err)
			return
		}

		if len(list) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		writeJSON(w, http.StatusOK, list)
	}
}
