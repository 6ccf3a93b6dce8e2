package responseformat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestWriteResponse(t *testing.T) {
	f := NewFormatter()

	tests := []struct {
		name        string
		url         string
		contentType string
		decode      func([]byte, any) error
	}{
		{"json default", "/x", "application/json", json.Unmarshal},
		{"json explicit", "/x?format=json", "application/json", json.Unmarshal},
		{"msgpack", "/x?format=msgpack", "application/x-msgpack", msgpack.Unmarshal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)

			body := ErrorBody{Error: "bad frame", Kind: "too_short", PacketType: "0x4F"}
			require.NoError(t, f.WriteError(rec, req, http.StatusUnprocessableEntity, body))

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

			var got map[string]any
			require.NoError(t, tt.decode(rec.Body.Bytes(), &got))
			assert.Equal(t, "too_short", got["kind"])
			assert.Equal(t, "0x4F", got["packet_type"])
		})
	}
}

func TestWriteResponseHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	require.NoError(t, NewFormatter().WriteResponse(rec, req, map[string]int{"n": 1}, map[string]string{"Cache-Control": "no-store"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}
