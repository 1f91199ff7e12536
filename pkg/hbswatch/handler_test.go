package hbswatch

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ReloadLogsWalkError(t *testing.T) {
	var buf bytes.Buffer

	o := buildOptions([]Option{WithLogger(slog.New(slog.NewTextHandler(&buf, nil)))})

	r, _, err := newRunner("/nonexistent/project/12345", o)
	require.NoError(t, err)

	handler{r: r, logger: o.logger}.Reload(context.Background())

	assert.Contains(t, buf.String(), "reload failed")
	assert.Contains(t, buf.String(), "listing templates in /nonexistent/project/12345")
}

func TestHandler_ReloadSuccessLogsNoError(t *testing.T) {
	var buf bytes.Buffer

	o := buildOptions([]Option{WithLogger(slog.New(slog.NewTextHandler(&buf, nil)))})

	r, _, err := newRunner(t.TempDir(), o)
	require.NoError(t, err)

	handler{r: r, logger: o.logger}.Reload(context.Background())

	assert.NotContains(t, buf.String(), "reload failed")
}
