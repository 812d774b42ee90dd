package echoapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/bitbox360/backend/core"
	"github.com/bitbox360/backend/core/scheduler"
)

func newTestServer(t *testing.T) (Server, *scheduler.ReminderRegistry) {
	t.Helper()

	registry := scheduler.NewReminderRegistry()
	t.Cleanup(registry.CancelAll)

	srv := NewServer(ServerDeps{
		Conf:     core.NewTestConfig(),
		Registry: registry,
	})
	return srv, registry
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "TEST", body["env"])
}

func TestReminders(t *testing.T) {
	srv, registry := newTestServer(t)

	projectID := uuid.New()
	at := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	registry.Replace(projectID, []time.Time{at}, func(time.Time) {})

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/reminders", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	if assert.Contains(t, body, projectID.String()) {
		assert.Equal(t, []string{at.Format(time.RFC3339)}, body[projectID.String()])
	}
}
