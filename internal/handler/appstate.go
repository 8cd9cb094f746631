package handler

import (
	"encoding/json"
	"net/http"

	"loyaltypush/internal/appstate"
	"loyaltypush/internal/httputil"
	"loyaltypush/internal/transport/http/middleware"
)

type AppStateHandler struct {
	store *appstate.Store
}

func NewAppStateHandler(store *appstate.Store) *AppStateHandler {
	return &AppStateHandler{store: store}
}

// Get handles GET /state
func (h *AppStateHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.store.Get(userID))
}

// SetLanguage handles PUT /state/language
func (h *AppStateHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req struct {
		Language appstate.Language `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	state, err := h.store.Apply(userID, func(s appstate.State) (appstate.State, error) {
		return appstate.SetLanguage(s, req.Language)
	})
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, state)
}

// ToggleTheme handles POST /state/theme/toggle
func (h *AppStateHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	state, _ := h.store.Apply(userID, func(s appstate.State) (appstate.State, error) {
		return appstate.ToggleTheme(s), nil
	})
	httputil.WriteJSON(w, http.StatusOK, state)
}

// UpdatePoints handles PUT /state/points
func (h *AppStateHandler) UpdatePoints(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req struct {
		Points *int `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Points == nil {
		httputil.WriteBadRequest(w, "points is required")
		return
	}

	state, err := h.store.Apply(userID, func(s appstate.State) (appstate.State, error) {
		return appstate.UpdatePoints(s, *req.Points)
	})
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, state)
}
