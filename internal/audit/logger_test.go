package audit

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLogWritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	logger.Log(Entry{
		Action:  "event.create",
		UserID:  "user-1",
		EventID: "ev-1",
		Status:  "success",
	})

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "audit", record["component"])
	require.Equal(t, "event.create", record["action"])
	require.Equal(t, "user-1", record["user_id"])
	require.Equal(t, "ev-1", record["event_id"])
	require.Equal(t, "success", record["status"])
	require.Equal(t, "info", record["level"])
}

func TestFailureLogsAtWarnWithDetail(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	r := httptest.NewRequest(http.MethodDelete, "/api/events/ev-2", nil)
	r.RemoteAddr = "10.0.0.7:1234"
	logger.Failure(r, "event.delete", "user-2", "ev-2", http.ErrBodyNotAllowed)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "warn", record["level"])
	require.Equal(t, "failure", record["status"])
	require.Equal(t, "10.0.0.7", record["ip"])
	require.NotEmpty(t, record["detail"])
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Log(Entry{Action: "event.create"})
	logger.Success(nil, "event.create", "", "")
}
