package service

import (
	"context"
	"errors"

	"loyaltypush/internal/model"
)

var errNoToken = errors.New("device reported no push token")

// ReportedDevice adapts a client's registration request to NotificationPlatform.
// The server cannot prompt the user, so RequestPermission returns what the
// client already reported.
type ReportedDevice struct {
	req      model.RegisterTokenRequest
	channels []model.NotificationChannel
}

func NewReportedDevice(req model.RegisterTokenRequest) *ReportedDevice {
	return &ReportedDevice{req: req}
}

func (d *ReportedDevice) OS() string { return d.req.Platform }

func (d *ReportedDevice) IsDevice() bool { return d.req.IsDevice }

func (d *ReportedDevice) PermissionStatus(ctx context.Context) string {
	if d.req.Permission == "" {
		return model.PermissionUndetermined
	}
	return d.req.Permission
}

func (d *ReportedDevice) RequestPermission(ctx context.Context) string {
	return d.PermissionStatus(ctx)
}

// SetNotificationChannel records the channel; the client creates it locally.
func (d *ReportedDevice) SetNotificationChannel(ctx context.Context, ch model.NotificationChannel) error {
	for _, existing := range d.channels {
		if existing.ID == ch.ID {
			return nil
		}
	}
	d.channels = append(d.channels, ch)
	return nil
}

// Channels returns the channels the client is expected to ensure.
func (d *ReportedDevice) Channels() []model.NotificationChannel {
	return d.channels
}

func (d *ReportedDevice) ExpoPushToken(ctx context.Context, projectID string) (string, error) {
	if d.req.Token == "" {
		return "", errNoToken
	}
	return d.req.Token, nil
}
