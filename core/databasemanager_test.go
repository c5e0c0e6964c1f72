package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shiftreport.com/shiftreport/core"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want core.LogLevel
	}{
		{"silent", core.LogLevelSilent},
		{"ERROR", core.LogLevelError},
		{"warn", core.LogLevelWarn},
		{"info", core.LogLevelInfo},
		{"", core.LogLevelError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, core.ParseLogLevel(tt.in), tt.in)
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := core.New("oracle", "dsn", 1, core.LogLevelSilent)
	assert.Error(t, err)
}
