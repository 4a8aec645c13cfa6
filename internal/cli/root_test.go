package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallkit/recall/internal/tracing"
)

func TestRootCommand(t *testing.T) {
	t.Run("version flag", func(t *testing.T) {
		cmd := GetRootCmd()
		cmd.SetArgs([]string{"--version"})

		output := &bytes.Buffer{}
		cmd.SetOut(output)

		err := cmd.Execute()
		require.NoError(t, err)

		assert.Contains(t, output.String(), "recall version")
		assert.Contains(t, output.String(), GetVersion())
	})

	t.Run("help flag", func(t *testing.T) {
		cmd := GetRootCmd()
		cmd.SetArgs([]string{"--help"})

		output := &bytes.Buffer{}
		cmd.SetOut(output)

		err := cmd.Execute()
		require.NoError(t, err)

		helpText := output.String()
		assert.Contains(t, helpText, "hybrid")
		for _, sub := range []string{"put", "get", "search", "deactivate", "stats", "maintain"} {
			assert.Contains(t, helpText, sub)
		}
	})

	t.Run("global flags", func(t *testing.T) {
		cmd := GetRootCmd()

		configFlag := cmd.PersistentFlags().Lookup("config")
		require.NotNil(t, configFlag)
		assert.Equal(t, "", configFlag.DefValue)

		logLevelFlag := cmd.PersistentFlags().Lookup("log-level")
		require.NotNil(t, logLevelFlag)
		assert.Equal(t, "info", logLevelFlag.DefValue)
	})
}

func TestSetupTracing(t *testing.T) {
	cmd := GetRootCmd()
	require.NotNil(t, cmd.PersistentPreRunE, "every command run must initialize tracing")

	cmd.SetContext(context.Background())
	require.NoError(t, setupTracing(cmd, nil))

	// the invocation context carries a request id for log correlation
	assert.NotEmpty(t, tracing.GetRequestID(cmd.Context()))

	// spans started after setup are recorded, not no-ops
	_, span := tracing.StartSpan(cmd.Context(), "recall", "cli.test")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
}

func TestGetVersion(t *testing.T) {
	version := GetVersion()
	assert.NotEmpty(t, version)
	assert.True(t, strings.HasPrefix(version, "0."))
}

func TestParseKeywords(t *testing.T) {
	keywords, err := parseKeywords([]string{"mysql=0.9", "config =0.5"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"mysql": 0.9, "config": 0.5}, keywords)

	keywords, err = parseKeywords(nil)
	require.NoError(t, err)
	assert.Nil(t, keywords)

	_, err = parseKeywords([]string{"missing-weight"})
	assert.Error(t, err)

	_, err = parseKeywords([]string{"bad=notanumber"})
	assert.Error(t, err)
}
