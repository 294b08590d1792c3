package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodega-api/internal/domain/entity"
	"github.com/jhoicas/bodega-api/internal/infrastructure/notify"
	"github.com/jhoicas/bodega-api/pkg/logger"
)

var sample = entity.Notification{
	Event:           entity.EventCompleted,
	Kind:            entity.KindIssue,
	DocumentID:      12,
	Number:          "GI-20250314-000012",
	Status:          entity.StatusCompleted,
	RecipientUserID: 2,
	ActorUserID:     1,
	OccurredAt:      time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
}

func TestNewMessage_JSON(t *testing.T) {
	msg := notify.NewMessage(sample)
	require.NotEmpty(t, msg.ID)

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "movement.completed", body["event"])
	assert.Equal(t, "ISSUE", body["kind"])
	assert.Equal(t, float64(2), body["recipient_user_id"])
	assert.NotContains(t, body, "notes")
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewLogNotifier(logger.New(logger.Config{Env: "production", Level: "info", Out: &buf}))

	require.NoError(t, n.Notify(context.Background(), sample))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "notify", entry["component"])
	assert.Equal(t, "GI-20250314-000012", entry["number"])
}
