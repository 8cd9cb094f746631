package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"loyaltypush/internal/model"
)

// FCMGateway delivers pushes through Firebase Cloud Messaging instead of Expo.
// Selected with PUSH_PROVIDER=fcm; tokens are then native FCM registration tokens.
type FCMGateway struct {
	client *messaging.Client
}

// NewFCMGateway builds a messaging client from service-account fields.
// The private key in .env has literal "\n" sequences which are expanded here.
func NewFCMGateway(ctx context.Context, projectID, clientEmail, privateKey string) (*FCMGateway, error) {
	privateKey = strings.ReplaceAll(privateKey, "\\n", "\n")

	credsJSON := fmt.Sprintf(`{
		"type": "service_account",
		"project_id": %q,
		"private_key": %q,
		"client_email": %q,
		"token_uri": "https://oauth2.googleapis.com/token"
	}`, projectID, privateKey, clientEmail)

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsJSON([]byte(credsJSON)))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}

	log.Printf("[FCM] Initialized for project: %s", projectID)
	return &FCMGateway{client: client}, nil
}

// Send delivers msg to a single registration token.
func (g *FCMGateway) Send(ctx context.Context, msg model.PushMessage) error {
	if msg.To == "" {
		return model.NewFailure(model.FailureInvalidInput, "fcm push", fmt.Errorf("empty token"))
	}

	message := &messaging.Message{
		Token: msg.To,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: fcmData(msg.Data),
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     msg.Sound,
				ChannelID: DefaultChannelID,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: msg.Sound,
				},
			},
		},
	}

	id, err := g.client.Send(ctx, message)
	if err != nil {
		return model.NewFailure(model.FailureGateway, "fcm push", err)
	}

	log.Printf("[FCM] Sent message id=%s", id)
	return nil
}

// FCM data values must all be strings.
func fcmData(d model.PushData) map[string]string {
	return map[string]string{
		"chat_id":    d.ChatID,
		"user_id":    d.UserID,
		"friend_id":  d.FriendID,
		"user_name":  d.UserName,
		"is_group":   strconv.FormatBool(d.IsGroup),
		"avatar_url": d.AvatarURL,
	}
}
