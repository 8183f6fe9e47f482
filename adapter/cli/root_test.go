package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/pkg/observability"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{domain.NewValidationError("bad"), ExitValidation},
		{domain.NewNotFoundError("gone"), ExitNotFound},
		{domain.NewConflictError("busy"), ExitConflict},
		{domain.NewInternalError(errors.New("disk")), ExitInternal},
		{errors.New("unclassified"), ExitInternal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}

func TestVersionCmd(t *testing.T) {
	SetApp(nil)

	out, err := runRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tempo dev")

	out, err = runRoot(t, "version", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "version: dev")
	assert.Contains(t, out, "buildDate: unknown")
}

func TestCommandsWithoutApp(t *testing.T) {
	SetApp(nil)
	SetBootstrap(nil)

	_, err := runRoot(t, "stats")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Equal(t, ExitInternal, ExitCode(err))
}

func TestBootstrapFailure(t *testing.T) {
	SetApp(nil)
	SetBootstrap(func(context.Context, string) (*App, func(), error) {
		return nil, nil, domain.NewValidationError("TEMPO_USER_ID is not a uuid")
	})
	t.Cleanup(func() { SetBootstrap(nil) })

	_, err := runRoot(t, "migrate")
	assert.Equal(t, ExitValidation, ExitCode(err))

	_, err = runRoot(t, "version")
	assert.NoError(t, err, "version runs without storage")
}

func TestUsageErrors(t *testing.T) {
	_, err := runRoot(t, "version", "--nope")
	assert.Equal(t, ExitValidation, ExitCode(err))

	_, err = runRoot(t, "version", "-o", "xml")
	assert.Equal(t, ExitValidation, ExitCode(err))
}

func TestRenderAs(t *testing.T) {
	v := map[string]int{"points": 90}
	var buf bytes.Buffer

	require.NoError(t, RenderAs(&buf, FormatJSON, v, nil))
	assert.JSONEq(t, `{"points":90}`, buf.String())

	buf.Reset()
	require.NoError(t, RenderAs(&buf, FormatYAML, v, nil))
	assert.Equal(t, "points: 90\n", buf.String())

	buf.Reset()
	require.NoError(t, RenderAs(&buf, FormatText, v, func(w io.Writer) error {
		_, err := io.WriteString(w, "90 points")
		return err
	}))
	assert.Equal(t, "90 points", buf.String())
}

type fakeHealth struct {
	report observability.HealthReport
}

func (f fakeHealth) Check(context.Context) observability.HealthReport { return f.report }

func TestHealthCmd(t *testing.T) {
	t.Cleanup(func() { SetApp(nil) })

	SetApp(&App{Health: fakeHealth{report: observability.HealthReport{
		Status: observability.HealthStatusDegraded,
		Checks: map[string]observability.CheckResult{
			"database": {Status: observability.HealthStatusHealthy},
			"redis":    {Status: observability.HealthStatusUnhealthy, Error: "connection refused"},
		},
	}}})

	out, err := runRoot(t, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "status: degraded")
	assert.Contains(t, out, "connection refused")

	SetApp(&App{Health: fakeHealth{report: observability.HealthReport{Status: observability.HealthStatusUnhealthy}}})
	_, err = runRoot(t, "health")
	assert.Equal(t, ExitInternal, ExitCode(err))
}
