package rabbit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyQueueName(t *testing.T) {
	var prv ChannelProvider
	assert.Equal(t, "", prv.QueueName(""))
}

func TestNoPrefix(t *testing.T) {
	var prv ChannelProvider
	assert.Equal(t, "olia", prv.QueueName("olia"))
}

func TestPrefix(t *testing.T) {
	var prv ChannelProvider
	prv.qPrefix = "prefix"
	assert.Equal(t, "prefix_olia", prv.QueueName("olia"))
}

func TestNewChannelProvider(t *testing.T) {
	prv, err := NewChannelProvider(Config{URL: "rabbit:5672", User: "u", Pass: "p", QueuePrefix: "portal"})
	assert.Nil(t, err)
	assert.Equal(t, "amqp://u:p@rabbit:5672", prv.url)
	assert.Equal(t, "portal_Transcribe", prv.QueueName("Transcribe"))

	prv, err = NewChannelProvider(Config{URL: "rabbit:5672"})
	assert.Nil(t, err)
	assert.Equal(t, "amqp://rabbit:5672", prv.url)
}

func TestNewChannelProvider_Fails(t *testing.T) {
	_, err := NewChannelProvider(Config{})
	assert.NotNil(t, err)
	_, err = NewChannelProvider(Config{URL: "rabbit:5672", User: "u"})
	assert.NotNil(t, err)
}

func TestHealthy_NoConnection(t *testing.T) {
	var prv ChannelProvider
	assert.NotNil(t, prv.Healthy())
}
