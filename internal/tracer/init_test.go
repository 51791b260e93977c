package tracer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitTracer_DisabledByDefault(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")

	shutdown := InitTracer()

	assert.NoError(t, shutdown(context.Background()))
}
