package model

// TokenStatus is the outcome of saving a device's push token.
type TokenStatus string

const (
	TokenUpdated     TokenStatus = "updated"
	TokenUnchanged   TokenStatus = "unchanged"
	TokenUnsupported TokenStatus = "unsupported"
	TokenFailed      TokenStatus = "failed"
)

// TokenSaveResult is returned by the token registry. Failure is nil unless
// Status is TokenFailed.
type TokenSaveResult struct {
	Status  TokenStatus
	Token   string
	Failure *Failure
}

// Permission states reported by the device's notification service.
const (
	PermissionGranted      = "granted"
	PermissionDenied       = "denied"
	PermissionUndetermined = "undetermined"
)

// Platform constants
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
)

// AndroidImportanceMax mirrors the highest Android notification importance.
const AndroidImportanceMax = 5

// NotificationChannel is an Android notification channel definition.
type NotificationChannel struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Importance       int    `json:"importance"`
	VibrationPattern []int  `json:"vibration_pattern"`
	LightColor       string `json:"light_color"`
}

// RegisterTokenRequest is the request body for registering a device token.
// The client reports what the platform told it; the server cannot prompt.
type RegisterTokenRequest struct {
	Token      string `json:"token"`
	Platform   string `json:"platform"` // "ios" or "android"
	IsDevice   bool   `json:"is_device"`
	Permission string `json:"permission"`
}
