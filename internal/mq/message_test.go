package mq

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Appo/internal/execution"
	"github.com/shaiso/Appo/internal/protocol"
)

func TestTaskReady_RoundTrip(t *testing.T) {
	ec := execution.New()
	ec.Set(execution.KeyTenantID, "t1")
	ec.Set(execution.KeyApplcmPort, 30204)

	msg, err := NewMessage(MessageTypeTaskReady, TaskReadyPayload{
		RunID:    "run-1",
		TaskType: "appo.db",
		Context:  ec,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	decoded, err := DecodeMessage(body)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeTaskReady, decoded.Type)

	payload, err := ParsePayload[TaskReadyPayload](decoded)
	require.NoError(t, err)
	assert.Equal(t, "run-1", payload.RunID)
	assert.Equal(t, "appo.db", payload.TaskType)
	require.NotNil(t, payload.Context)

	port, ok := payload.Context.Int(execution.KeyApplcmPort)
	require.True(t, ok)
	assert.Equal(t, 30204, port)
}

func TestTaskCompleted_Encoding(t *testing.T) {
	msg, err := NewMessage(MessageTypeTaskCompleted, TaskCompletedPayload{
		RunID:    "run-1",
		TaskType: "appo.apm",
		Outcome:  protocol.Outcome{Code: protocol.CodeSuccess, Message: protocol.MsgSuccess},
		Context:  execution.New(),
	})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(msg.Payload, &raw))
	assert.Equal(t, "appo.apm", raw["task_type"])
	assert.NotContains(t, raw, "error")
}

func TestDecodeMessage_Invalid(t *testing.T) {
	_, err := DecodeMessage([]byte("not json"))
	assert.Error(t, err)

	_, err = DecodeMessage([]byte(`{"id":"1","payload":{}}`))
	assert.Error(t, err)
}

func TestParsePayload_UnknownContextKey(t *testing.T) {
	msg := &Message{
		ID:      "1",
		Type:    MessageTypeTaskReady,
		Payload: json.RawMessage(`{"run_id":"r","task_type":"appo.db","context":{"bogus":1}}`),
	}
	_, err := ParsePayload[TaskReadyPayload](msg)
	assert.ErrorIs(t, err, execution.ErrUnknownKey)
}
