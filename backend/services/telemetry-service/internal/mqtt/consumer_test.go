package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fleetconsole/backend/libs/telemetry/models"
	"fleetconsole/backend/services/telemetry-service/internal/service"
)

type recordingAcceptor struct {
	bound  string
	inputs []service.PositionInput
}

func (r *recordingAcceptor) Accept(boundDevice string, inputs []service.PositionInput) ([]models.PositionSample, error) {
	r.bound = boundDevice
	r.inputs = inputs
	return nil, nil
}

func TestDeviceFromTopic(t *testing.T) {
	id, ok := DeviceFromTopic("fleet/devices/dev-a/positions")
	assert.True(t, ok)
	assert.Equal(t, "dev-a", id)

	for _, topic := range []string{
		"fleet/devices//positions",
		"fleet/devices/dev-a/status",
		"fleet/devices/dev-a/positions/extra",
		"other/devices/dev-a/positions",
	} {
		_, ok := DeviceFromTopic(topic)
		assert.False(t, ok, topic)
	}
}

func TestHandleMessage_TopicDeviceWins(t *testing.T) {
	acceptor := &recordingAcceptor{}
	c := NewConsumer(Options{Broker: "tcp://localhost:1883"}, acceptor, zap.NewNop())

	err := c.HandleMessage("fleet/devices/dev-a/positions", []byte(`[{"device_id":"spoofed","latitude":1,"longitude":2},{"latitude":3,"longitude":4}]`))
	require.NoError(t, err)

	assert.Equal(t, "dev-a", acceptor.bound)
	require.Len(t, acceptor.inputs, 2)
	assert.Equal(t, "dev-a", acceptor.inputs[0].DeviceID)
	assert.Equal(t, "dev-a", acceptor.inputs[1].DeviceID)
}

func TestHandleMessage_Rejects(t *testing.T) {
	c := NewConsumer(Options{}, &recordingAcceptor{}, zap.NewNop())

	assert.Error(t, c.HandleMessage("fleet/devices/x/status", []byte(`{}`)))
	assert.ErrorIs(t, c.HandleMessage("fleet/devices/x/positions", []byte(`not json`)), service.ErrValidation)
}
