package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext_Default(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithLogger(context.Background(), base)
	ctx = With(ctx, "command", "incidentctl incidents list")
	FromContext(ctx).Info("listing")

	assert.Contains(t, buf.String(), `command="incidentctl incidents list"`)
	assert.Contains(t, buf.String(), "msg=listing")
}
