package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"loyaltypush/internal/httputil"
	"loyaltypush/internal/model"
	"loyaltypush/internal/service"
	"loyaltypush/internal/transport/http/middleware"
)

// TokenSaver is satisfied by *service.TokenRegistry.
type TokenSaver interface {
	SavePushToken(ctx context.Context, userID string, p service.NotificationPlatform) model.TokenSaveResult
	ClearPushToken(ctx context.Context, userID string) error
}

type DeviceHandler struct {
	registry TokenSaver
}

func NewDeviceHandler(registry TokenSaver) *DeviceHandler {
	return &DeviceHandler{registry: registry}
}

// RegisterTokenResponse tells the client what was stored and which
// channels it must ensure locally.
type RegisterTokenResponse struct {
	Status   model.TokenStatus           `json:"status"`
	Channels []model.NotificationChannel `json:"channels,omitempty"`
}

// RegisterToken handles POST /devices/token
// Called once per app session with what the device reported.
func (h *DeviceHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Platform != model.PlatformIOS && req.Platform != model.PlatformAndroid {
		httputil.WriteBadRequest(w, "platform must be ios or android")
		return
	}

	device := service.NewReportedDevice(req)
	result := h.registry.SavePushToken(r.Context(), userID, device)
	if result.Status == model.TokenFailed {
		log.Printf("[ERROR] Register device token: user=%s err=%v", userID, result.Failure)
		httputil.WriteInternalError(w, "Failed to register device token")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, RegisterTokenResponse{
		Status:   result.Status,
		Channels: device.Channels(),
	})
}

// RemoveToken handles DELETE /devices/token
// Clears the stored token, e.g. on logout.
func (h *DeviceHandler) RemoveToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.registry.ClearPushToken(r.Context(), userID); err != nil {
		log.Printf("[ERROR] Remove device token: user=%s err=%v", userID, err)
		writeFailure(w, err, "Failed to remove device token")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Device token removed",
	})
}
