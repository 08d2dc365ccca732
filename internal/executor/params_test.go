package executor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reqlgate/internal/failure"
)

func TestSecretNeverRenders(t *testing.T) {
	p := testParams()

	rendered := []string{
		fmt.Sprint(p.Password),
		fmt.Sprintf("%v %s %+v %#v", p, p, p, p),
		fmt.Sprintf("%#v", p.Password),
		p.String(),
	}
	for _, s := range rendered {
		assert.NotContains(t, s, testPassword)
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(data), testPassword)
	assert.Contains(t, string(data), failure.Mask)

	var logs bytes.Buffer
	slog.New(slog.NewJSONHandler(&logs, nil)).Info("connecting", slog.Any("params", p))
	assert.NotContains(t, logs.String(), testPassword)

	assert.Equal(t, testPassword, p.Password.Reveal())
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "db:28015", ConnectionParams{Host: "db"}.Address())
	assert.Equal(t, "db:29015", ConnectionParams{Host: "db", Port: 29015}.Address())
	assert.Equal(t, "[::1]:28015", ConnectionParams{Host: "::1"}.Address())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, testParams().Validate())

	tests := []struct {
		name   string
		mutate func(*ConnectionParams)
	}{
		{"missing host", func(p *ConnectionParams) { p.Host = " " }},
		{"missing user", func(p *ConnectionParams) { p.User = "" }},
		{"port too large", func(p *ConnectionParams) { p.Port = 70000 }},
		{"negative port", func(p *ConnectionParams) { p.Port = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.Equal(t, failure.KindConnectionFailed, failure.KindOf(err))
		})
	}
}
