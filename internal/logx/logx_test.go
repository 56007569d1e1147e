package logx_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/steppin/internal/logx"
)

func TestParseEnvironment(t *testing.T) {
	assert.Equal(t, logx.Production, logx.ParseEnvironment("PRODUCTION"))
	assert.Equal(t, logx.Development, logx.ParseEnvironment("staging"))
	assert.Equal(t, logx.Development, logx.ParseEnvironment(""))
}

func TestInit_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos.log")

	logx.Init(logx.Options{Environment: logx.Production, File: path, MaxSizeMB: 1, MaxBackups: 1})
	t.Cleanup(func() { logx.Init(logx.Options{Environment: logx.Development}) })

	logx.Debug().Msg("hidden at info level")
	logx.Error().Str("sale_id", "s-1").Msg("partial commit")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"sale_id":"s-1"`)
	assert.Contains(t, string(raw), `"level":"error"`)
	assert.NotContains(t, string(raw), "hidden at info level")
}
