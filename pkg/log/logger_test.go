package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svmerrors "github.com/YuminosukeSato/svmkit/pkg/errors"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestZerologProvider_Fields(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewZerologProvider(buf, LevelDebug)

	logger := p.GetLoggerWithName("svm").With(ModelNameKey, "SVM")
	logger.Info("training started", SamplesKey, 12, FeaturesKey, 3)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "training started", lines[0]["message"])
	assert.Equal(t, "svm", lines[0][ComponentKey])
	assert.Equal(t, "SVM", lines[0][ModelNameKey])
	assert.Equal(t, 12.0, lines[0][SamplesKey])
	assert.Contains(t, lines[0], "time")
}

func TestZerologProvider_ErrorCarriesStacktrace(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewZerologProvider(buf, LevelDebug)

	err := svmerrors.NewValidationError("c", "must be positive", -1.0)
	p.GetLogger().Error("invalid params", err, OperationKey, OperationTrain)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0][ErrAttrKey], "must be positive")
	assert.Equal(t, OperationTrain, lines[0][OperationKey])
	assert.NotEmpty(t, lines[0][StacktraceKey])
}

func TestZerologProvider_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewZerologProvider(buf, LevelWarn)
	logger := p.GetLogger()
	ctx := context.Background()

	assert.False(t, logger.Enabled(ctx, LevelInfo))
	assert.True(t, logger.Enabled(ctx, LevelWarn))

	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")

	p.SetLevel(LevelDebug)
	p.GetLogger().Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestZerologProvider_SetOutput(t *testing.T) {
	first, second := &bytes.Buffer{}, &bytes.Buffer{}
	p := NewZerologProvider(first, LevelInfo)
	p.SetOutput(second)

	p.GetLogger().Info("redirected")
	assert.Empty(t, first.String())
	assert.Contains(t, second.String(), "redirected")
}

func TestZerologProvider_WarnFunc(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewZerologProvider(buf, LevelInfo)

	svmerrors.SetZerologWarnFunc(p.WarnFunc())
	defer svmerrors.SetZerologWarnFunc(nil)

	svmerrors.Warn(svmerrors.NewConvergenceWarning("SMO", 100, "final fit"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "warn", lines[0]["level"])
	assert.Equal(t, "warnings", lines[0][ComponentKey])
	detail, ok := lines[0][ErrAttrKey+".detail"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "SMO", detail["algorithm"])
}

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ToLogLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, svmerrors.Is(err, svmerrors.ErrInvalidArgument))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupLogger_InvalidLevel(t *testing.T) {
	err := SetupLogger("loud")
	require.Error(t, err)
}
