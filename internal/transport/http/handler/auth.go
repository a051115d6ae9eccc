package handler

import (
	"net/http"

	"github.com/onlinestore-api/internal/application/auth"
	"github.com/onlinestore-api/internal/domain"
)

// AuthHandler handles registration, email verification and login.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler { return &AuthHandler{svc: svc} }

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.svc.Register(r.Context(), req); err != nil {
		httpError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.svc.Verify(r.Context(), req); err != nil {
		httpError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeValid(w, r, &req) {
		return
	}
	tok, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}
