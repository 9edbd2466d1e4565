package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubProvider struct {
	pushed []string
	err    error
}

func (p *stubProvider) Push(ctx context.Context, deviceToken string, n Notification) error {
	p.pushed = append(p.pushed, deviceToken)
	return p.err
}

func TestDispatcher(t *testing.T) {
	t.Run("Routes ios to APNs", func(t *testing.T) {
		fcm := &stubProvider{}
		apns := &stubProvider{}
		d := NewDispatcher(testLogger(), fcm, apns)

		delivered, err := d.Send(context.Background(), Notification{DeviceToken: "tok", DeviceType: "iOS"})

		assert.NoError(t, err)
		assert.True(t, delivered)
		assert.Equal(t, []string{"tok"}, apns.pushed)
		assert.Empty(t, fcm.pushed)
	})

	t.Run("Routes android to FCM", func(t *testing.T) {
		fcm := &stubProvider{}
		apns := &stubProvider{}
		d := NewDispatcher(testLogger(), fcm, apns)

		delivered, err := d.Send(context.Background(), Notification{DeviceToken: "tok", DeviceType: "android"})

		assert.NoError(t, err)
		assert.True(t, delivered)
		assert.Equal(t, []string{"tok"}, fcm.pushed)
		assert.Empty(t, apns.pushed)
	})

	t.Run("Missing token is an undelivered no-op", func(t *testing.T) {
		fcm := &stubProvider{}
		apns := &stubProvider{}
		d := NewDispatcher(testLogger(), fcm, apns)

		delivered, err := d.Send(context.Background(), Notification{DeviceType: "android"})

		assert.NoError(t, err)
		assert.False(t, delivered)
		assert.Empty(t, fcm.pushed)
		assert.Empty(t, apns.pushed)
	})

	t.Run("Unknown device type is an undelivered no-op", func(t *testing.T) {
		d := NewDispatcher(testLogger(), &stubProvider{}, &stubProvider{})

		delivered, err := d.Send(context.Background(), Notification{DeviceToken: "tok", DeviceType: "Web"})

		assert.NoError(t, err)
		assert.False(t, delivered)
	})

	t.Run("Provider error propagates as undelivered", func(t *testing.T) {
		fcm := &stubProvider{err: errors.New("gateway timeout")}
		d := NewDispatcher(testLogger(), fcm, &stubProvider{})

		delivered, err := d.Send(context.Background(), Notification{DeviceToken: "tok", DeviceType: "android"})

		assert.Error(t, err)
		assert.False(t, delivered)
	})
}

func TestFCMProvider(t *testing.T) {
	newProvider := func(srv *httptest.Server, key string) *FCMProvider {
		return &FCMProvider{
			serverKey: key,
			endpoint:  srv.URL,
			client:    &http.Client{Timeout: time.Second},
			logger:    testLogger(),
		}
	}

	t.Run("Posts the payload with the server key", func(t *testing.T) {
		var gotAuth, gotContentType string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotContentType = r.Header.Get("Content-Type")
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		err := newProvider(srv, "secret").Push(context.Background(), "tok", Notification{Title: "Item found!"})

		assert.NoError(t, err)
		assert.Equal(t, "key=secret", gotAuth)
		assert.Equal(t, "application/json", gotContentType)
	})

	t.Run("Non-200 response is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}))
		defer srv.Close()

		err := newProvider(srv, "secret").Push(context.Background(), "tok", Notification{})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("Missing key fails before any request", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		}))
		defer srv.Close()

		err := newProvider(srv, "").Push(context.Background(), "tok", Notification{})
		assert.Error(t, err)
	})
}

func TestAPNSProvider(t *testing.T) {
	t.Run("Missing credentials fail", func(t *testing.T) {
		p := &APNSProvider{logger: testLogger()}
		assert.Error(t, p.Push(context.Background(), "tok", Notification{}))
	})

	t.Run("Configured credentials accept the push", func(t *testing.T) {
		p := &APNSProvider{keyID: "k", teamID: "t", logger: testLogger()}
		assert.NoError(t, p.Push(context.Background(), "tok", Notification{}))
	})
}
