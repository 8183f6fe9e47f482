package mcp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/tempo/adapter/cli"
)

func TestNewCmd(t *testing.T) {
	cmd := NewCmd()

	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	assert.Equal(t, "serve", serve.Name())
	assert.NotEmpty(t, serve.Annotations[cli.AnnotationNoApp], "serve builds its own container")
	assert.NotNil(t, serve.Flags().Lookup("addr"))
}

func TestNewServerLogger(t *testing.T) {
	var buf bytes.Buffer

	newServerLogger(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	newServerLogger(&buf, true).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "service=tempo-mcp")
}
