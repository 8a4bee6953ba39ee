package rabbit

import (
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestReadConfigNilWhenUnconfigured(t *testing.T) {
	viper.Reset()
	assert.Nil(t, ReadConfig())
}

func TestUnconfiguredBrokerIsDummy(t *testing.T) {
	broker := New(nil)
	assert.IsType(t, &Dummy{}, broker)
	assert.NoError(t, broker.Publish(context.Background(), []byte(`{"event":"session.started"}`)))
}
