package mqttconn

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClientOptions(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		wantPrefix string
		wantUser   string
	}{
		{
			name:       "explicit client id",
			opts:       Options{Broker: "tcp://broker:1883", ClientID: "gateway", Username: "rfx", Password: "secret"},
			wantPrefix: "gateway",
			wantUser:   "rfx",
		},
		{
			name:       "generated client id",
			opts:       Options{Broker: "tcp://broker:1883"},
			wantPrefix: "rfxweather-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := ClientOptions(tt.opts, zap.NewNop().Sugar())
			require.Len(t, o.Servers, 1)
			assert.Equal(t, "broker:1883", o.Servers[0].Host)
			assert.True(t, strings.HasPrefix(o.ClientID, tt.wantPrefix), o.ClientID)
			assert.Equal(t, tt.wantUser, o.Username)
			assert.True(t, o.AutoReconnect)
			assert.True(t, o.ConnectRetry)
			assert.Equal(t, int64(30), o.KeepAlive)
		})
	}

	a := ClientOptions(Options{Broker: "tcp://broker:1883"}, zap.NewNop().Sugar())
	b := ClientOptions(Options{Broker: "tcp://broker:1883"}, zap.NewNop().Sugar())
	assert.NotEqual(t, a.ClientID, b.ClientID)
}

func TestConnect(t *testing.T) {
	refused := errors.New("connection refused")

	tests := []struct {
		name    string
		client  *FakeClient
		wantErr error
	}{
		{name: "connected", client: NewFakeClient()},
		{name: "broker error", client: &FakeClient{ConnectErr: refused}, wantErr: refused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Connect(context.Background(), tt.client)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, tt.client.IsConnected())
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.client.IsConnected())
		})
	}
}

func TestConnectGivesUpWhenContextEnds(t *testing.T) {
	client := NewFakeClient()
	client.ConnectPending = true

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := Connect(ctx, client)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1, client.Disconnects)
	assert.False(t, client.IsConnected())
}

func TestWait(t *testing.T) {
	failed := errors.New("not authorized")

	err := Wait(&fakeToken{}, time.Second, "subscribe")
	assert.NoError(t, err)

	err = Wait(&fakeToken{err: failed}, time.Second, "subscribe")
	assert.ErrorIs(t, err, failed)
	assert.ErrorContains(t, err, "subscribe: not authorized")

	err = Wait(pendingToken{}, 20*time.Millisecond, "publish")
	assert.EqualError(t, err, "publish: timed out after 20ms")
}
