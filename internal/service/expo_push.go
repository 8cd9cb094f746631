package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"loyaltypush/internal/model"
)

// PushGateway delivers one push message to one device token.
// Implementations make at most one outbound call per Send and never retry.
type PushGateway interface {
	Send(ctx context.Context, msg model.PushMessage) error
}

// ExpoPushClient sends push notifications via Expo's Push API.
//
// The mobile app obtains an Expo push token ("ExponentPushToken[xxx]"),
// reports it to POST /devices/token, and we store it on the profile. Sending
// is a single JSON POST per token; the response body is not inspected beyond
// the HTTP status.
type ExpoPushClient struct {
	httpClient  *http.Client
	url         string
	accessToken string
}

// NewExpoPushClient creates an Expo client posting to pushURL. accessToken is
// optional and only needed when the Expo project enforces push security.
func NewExpoPushClient(pushURL, accessToken string) *ExpoPushClient {
	return &ExpoPushClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		url:         pushURL,
		accessToken: accessToken,
	}
}

// IsExpoPushToken reports whether token has the shape Expo issues.
func IsExpoPushToken(token string) bool {
	return strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")
}

// Send posts msg to the Expo Push API. Tokens are opaque: an unfamiliar
// shape is only logged and Expo's HTTP status decides the outcome.
func (c *ExpoPushClient) Send(ctx context.Context, msg model.PushMessage) error {
	if !IsExpoPushToken(msg.To) {
		log.Printf("[ExpoPush] Unexpected token format, sending anyway: %.20s", msg.To)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return model.NewFailure(model.FailureGateway, "expo push", fmt.Errorf("marshal message: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return model.NewFailure(model.FailureGateway, "expo push", fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewFailure(model.FailureGateway, "expo push", fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.NewFailure(model.FailureGateway, "expo push", fmt.Errorf("expo api error: status=%d", resp.StatusCode))
	}

	return nil
}
