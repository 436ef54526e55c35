package rabbitmq

import (
	"testing"
	"time"

	"stockswap/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	event := models.ExportEvent{
		Type:       "export_request.accepted",
		RequestID:  "req-1",
		ProductID:  "prod-1",
		FromShopID: "shop-a",
		ToShopID:   "shop-b",
		Quantity:   3,
		Status:     models.ExportStatusAccepted,
		OccurredAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := Encode(event)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"requestId":"req-1"`)

	decoded, err := Decode(body)
	require.NoError(t, err)
	assert.Equal(t, event, decoded)
}

func TestDecodeRejectsBadMessages(t *testing.T) {
	for name, body := range map[string]string{
		"not json":     `{"type":`,
		"missing type": `{"requestId":"req-1"}`,
		"missing id":   `{"type":"export_request.created"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestClosedClientIsUnhealthy(t *testing.T) {
	var c *Client
	assert.False(t, c.Healthy())
	assert.False(t, (&Client{}).Healthy())
	assert.NoError(t, (&Client{}).Close())
}
