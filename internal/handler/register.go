package handler

import (
	"context"
	"errors"
	"net/http"

	"bridgeofhope/internal/model"
	"bridgeofhope/internal/mw"
	"bridgeofhope/internal/service"
)

type authService interface {
	Register(ctx context.Context, login, name, password string) (*model.Organization, error)
	Authenticate(ctx context.Context, login, password string) (*model.Organization, error)
}

type registerRequest struct {
	Login    string `json:"login" validate:"required,min=3,max=64"`
	Name     string `json:"name" validate:"required,max=200"`
	Password string `json:"password" validate:"required,min=8"`
}

func RegisterHandler(authSvc authService, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !decodeBody(w, r, &req) {
			return
		}

		org, err := authSvc.Register(r.Context(), req.Login, req.Name, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrLoginExists):
				http.Error(w, "login already exists", http.StatusConflict)
			default:
				writeError(w, err)
			}
			return
		}

		tokenString, err := mw.NewToken(secret, org.ID)
		if err != nil {
			http.Error(w, "token generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Authorization", "Bearer "+tokenString)
		writeJSON(w, http.StatusOK, org)
	}
}
