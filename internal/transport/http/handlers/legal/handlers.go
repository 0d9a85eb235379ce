package legalhandler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hrpayroll/internal/domain/apperr"
	"hrpayroll/internal/domain/legal"
	"hrpayroll/internal/transport/http/api"
	"hrpayroll/internal/transport/http/middleware"
	"hrpayroll/internal/transport/http/shared"
)

// Registry is the read and publish surface of the legal parameter store.
type Registry interface {
	legal.StoreAPI
	Activate(ctx context.Context, year int) error
}

type Handler struct {
	Store Registry
}

func NewHandler(store Registry) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/legal", func(r chi.Router) {
		r.Get("/configurations", h.handleList)
		r.Post("/configurations", h.handlePublish)
		r.Get("/configurations/effective", h.handleEffective)
		r.Get("/configurations/{year}", h.handleGetYear)
		r.Post("/configurations/{year}/activate", h.handleActivate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	configs, err := h.Store.List(r.Context())
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if configs == nil {
		configs = []legal.Configuration{}
	}
	api.Success(w, configs, reqID)
}

func (h *Handler) handleEffective(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	cfg, err := h.Store.GetEffective(r.Context())
	if err != nil {
		api.FailError(w, legal.Failure(err), reqID)
		return
	}
	api.Success(w, cfg, reqID)
}

func yearParam(w http.ResponseWriter, r *http.Request, reqID string) (int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		v := shared.NewValidator()
		v.Add("year", "must be a four digit year")
		v.Reject(w, reqID)
		return 0, false
	}
	return year, true
}

func (h *Handler) handleGetYear(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	year, ok := yearParam(w, r, reqID)
	if !ok {
		return
	}
	cfg, err := h.Store.GetByYear(r.Context(), year)
	if errors.Is(err, apperr.ErrNotFound) {
		err = apperr.Newf(apperr.KindNotFound, "legal configuration for %d not found", year)
	}
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, cfg, reqID)
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var cfg legal.Configuration
	if !shared.DecodeJSON(w, r, &cfg, reqID) {
		return
	}
	if err := cfg.Validate(); err != nil {
		api.FailError(w, apperr.New(apperr.KindInvalidInput, err.Error()), reqID)
		return
	}
	if err := h.Store.Publish(r.Context(), cfg); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, cfg, reqID)
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	year, ok := yearParam(w, r, reqID)
	if !ok {
		return
	}
	err := h.Store.Activate(r.Context(), year)
	if errors.Is(err, apperr.ErrNotFound) {
		err = apperr.Newf(apperr.KindNotFound, "legal configuration for %d not found", year)
	}
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"effective": fmt.Sprint(year)}, reqID)
}
