package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func valid() *Config {
	return &Config{
		BaseURL:   DefaultBaseURL,
		APIKey:    "k",
		SignalNum: -1,
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, valid().Validate())

	c := valid()
	c.APIKey = ""
	assert.ErrorIs(t, c.Validate(), ErrNoAPIKey)

	c = valid()
	c.SignalNum = 8
	assert.ErrorIs(t, c.Validate(), ErrNoSignalFile)

	c = valid()
	c.SignalNum = 8
	c.SignalPIDFile = "/run/waybar.pid"
	assert.NoError(t, c.Validate())

	c = valid()
	c.BackoffFloor = 10 * time.Second
	c.BackoffCap = 1 * time.Second
	assert.Error(t, c.Validate())
}

func TestValidate_DefaultsBaseURL(t *testing.T) {
	c := &Config{APIKey: "k", SignalNum: -1}
	assert.NoError(t, c.Validate())
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
}
