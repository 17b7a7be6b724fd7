package facade

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockside/supervisor/internal/errs"
	"github.com/dockside/supervisor/internal/health"
	"github.com/dockside/supervisor/internal/metrics"
	"github.com/dockside/supervisor/internal/process"
	"github.com/dockside/supervisor/internal/pty"
	"github.com/dockside/supervisor/internal/sampler"
	"github.com/dockside/supervisor/internal/supervisor"
)

func newTestFacade() *Facade {
	sup := supervisor.New(nil, nil)
	ptySup := pty.New(pty.SinkFunc(func(pty.Event) {}), nil)
	smp := sampler.New()
	h := health.New(sup, nil)
	m := metrics.New()
	return New(sup, ptySup, smp, h, m, nil)
}

func TestStartOneAndStopOne(t *testing.T) {
	f := newTestFacade()

	info, err := f.StartOne(process.Config{Name: "sleeper", Command: "sleep 5"})
	require.NoError(t, err)
	assert.Equal(t, process.Running, info.State.Kind)

	require.NoError(t, f.StopOne("sleeper"))

	got, err := f.GetByName("sleeper")
	require.NoError(t, err)
	assert.NotEqual(t, process.Running, got.State.Kind)
}

func TestGetByNameUnknownReturnsNotFound(t *testing.T) {
	f := newTestFacade()
	_, err := f.GetByName("ghost")
	assert.Equal(t, errs.KindProcessNotFound, errs.KindOf(err))
}

func TestRestartOneAndList(t *testing.T) {
	f := newTestFacade()
	_, err := f.StartOne(process.Config{Name: "echoer", Command: "/bin/sleep 5"})
	require.NoError(t, err)
	defer func() { _ = f.StopOne("echoer") }()

	_, err = f.RestartOne("echoer")
	require.NoError(t, err)

	list := f.List()
	require.Len(t, list, 1)
	assert.Equal(t, "echoer", list[0].Name)
}

func TestStopAllCollectsResults(t *testing.T) {
	f := newTestFacade()
	_, err := f.StartOne(process.Config{Name: "a", Command: "sleep 5"})
	require.NoError(t, err)
	_, err = f.StartOne(process.Config{Name: "b", Command: "sleep 5"})
	require.NoError(t, err)

	failures := f.StopAll()
	assert.Empty(t, failures)
}

func TestTailAndSearchLogs(t *testing.T) {
	f := newTestFacade()
	_, err := f.StartOne(process.Config{Name: "echoer", Command: "/bin/echo hello-facade"})
	require.NoError(t, err)
	time.Sleep(200 * time.Millisecond)

	lines, err := f.TailLogs("echoer", 10)
	require.NoError(t, err)

	found := false
	for _, l := range lines {
		if l.Text == "hello-facade" {
			found = true
		}
	}
	assert.True(t, found, "expected tail logs to contain the echoed line, got %+v", lines)

	matches, err := f.SearchLogs("echoer", "facade")
	require.NoError(t, err)
	assert.NotEmpty(t, matches)
}

func TestGetSystemStats(t *testing.T) {
	f := newTestFacade()
	stats, err := f.GetSystemStats(context.Background())
	require.NoError(t, err)
	assert.False(t, stats.Timestamp.IsZero())
}

func TestGetProcessStatsUnknownPID(t *testing.T) {
	f := newTestFacade()
	require.NoError(t, f.sampler.Refresh(context.Background()))

	_, err := f.GetProcessStats(1 << 30)
	assert.Equal(t, errs.KindProcessNotFound, errs.KindOf(err))
}

func TestCheckHealthWithNoCrashesReturnsEmpty(t *testing.T) {
	f := newTestFacade()
	_, err := f.StartOne(process.Config{Name: "steady", Command: "sleep 5"})
	require.NoError(t, err)
	defer func() { _ = f.StopOne("steady") }()

	assert.Empty(t, f.CheckHealth())
}

func TestPTYSpawnListKillRestart(t *testing.T) {
	f := newTestFacade()

	pid, err := f.PTYSpawn(pty.SpawnConfig{ID: "term-1", Program: "/bin/sleep", Argv: []string{"5"}})
	require.NoError(t, err)
	assert.NotZero(t, pid)

	assert.Equal(t, []string{"term-1"}, f.PTYList())

	_, err = f.PTYRestart("term-1")
	require.NoError(t, err)

	require.NoError(t, f.PTYKill("term-1"))
}

func TestFacadeWithoutPTYOrSamplerReturnsOtherError(t *testing.T) {
	sup := supervisor.New(nil, nil)
	f := New(sup, nil, nil, nil, nil, nil)

	_, err := f.PTYSpawn(pty.SpawnConfig{Program: "/bin/sleep"})
	assert.Equal(t, errs.KindOther, errs.KindOf(err))

	_, err = f.GetSystemStats(context.Background())
	assert.Equal(t, errs.KindOther, errs.KindOf(err))

	assert.Nil(t, f.CheckHealth())
	assert.Nil(t, f.MetricsHandler())
}

func TestStartOneRecordsPrometheusMetrics(t *testing.T) {
	f := newTestFacade()
	_, err := f.StartOne(process.Config{Name: "metered", Command: "sleep 5"})
	require.NoError(t, err)
	defer func() { _ = f.StopOne("metered") }()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	f.MetricsHandler().ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "supervisor_process_starts_total")
	assert.Contains(t, body, `name="metered"`)
}
