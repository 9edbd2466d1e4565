package services

import (
	"context"
	"log/slog"
	"strings"
)

// Notification is one best-effort push. Data rides along as the opaque
// payload shown to the client app.
type Notification struct {
	UserID      string
	Title       string
	Body        string
	Data        map[string]interface{}
	DeviceToken string
	DeviceType  string
}

// Notifier is the capability the ticket service is constructed with. The
// bool reports whether a provider accepted the push; errors never mean the
// triggering operation failed.
type Notifier interface {
	Send(ctx context.Context, n Notification) (bool, error)
}

// PushProvider is one concrete transport (FCM-shaped, APNs-shaped).
type PushProvider interface {
	Push(ctx context.Context, deviceToken string, n Notification) error
}

// Dispatcher routes a notification to the provider matching the device type.
// Missing tokens and unknown device types are logged no-ops, not errors.
type Dispatcher struct {
	logger *slog.Logger
	fcm    PushProvider
	apns   PushProvider
}

func NewDispatcher(logger *slog.Logger, fcm, apns PushProvider) *Dispatcher {
	return &Dispatcher{logger: logger, fcm: fcm, apns: apns}
}

func (d *Dispatcher) Send(ctx context.Context, n Notification) (bool, error) {
	if n.DeviceToken == "" {
		d.logger.Warn("No device token available", "user_id", n.UserID)
		return false, nil
	}

	switch strings.ToLower(n.DeviceType) {
	case "ios":
		if err := d.apns.Push(ctx, n.DeviceToken, n); err != nil {
			return false, err
		}
		return true, nil
	case "android":
		if err := d.fcm.Push(ctx, n.DeviceToken, n); err != nil {
			return false, err
		}
		return true, nil
	default:
		d.logger.Warn("Unknown device type, skipping push", "user_id", n.UserID, "device_type", n.DeviceType)
		return false, nil
	}
}
