package exportpprof_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/deallocprof/deallocz"
	"github.com/coral-mesh/deallocprof/exportpprof"
)

type stubEnv struct {
	now time.Time
}

func (e *stubEnv) CurrentCPU() int      { return 0 }
func (e *stubEnv) CurrentThreadID() int64 { return 0 }
func (e *stubEnv) Now() time.Time       { return e.now }
func (e *stubEnv) CaptureStack(skip int) (stack [deallocz.MaxStackDepth]uintptr, depth int) {
	stack[0] = uintptr(0x1000)
	stack[1] = uintptr(0x2000)
	return stack, 2
}

func samplePair(t *testing.T) *deallocz.Profile {
	t.Helper()
	env := &stubEnv{now: time.Now()}
	registry := deallocz.NewRegistry(env)
	handle := registry.Start()

	var stack [deallocz.MaxStackDepth]uintptr
	stack[0] = 0x3000
	registry.ReportMalloc(deallocz.StackTrace{
		Handle:         1,
		Stack:          stack,
		Depth:          1,
		RequestedSize:  64,
		AllocatedSize:  64,
		AllocationTime: env.now,
		Weight:         1,
	})
	env.now = env.now.Add(time.Millisecond)
	registry.ReportFree(1)

	return handle.Stop()
}

func TestBuildProducesOneSamplePerIterateCallback(t *testing.T) {
	profile := samplePair(t)
	defer profile.Close()

	prof, err := exportpprof.Build(profile)
	require.NoError(t, err)
	assert.Len(t, prof.Sample, 2)
	assert.Len(t, prof.SampleType, 2)
}

func TestBuildDeduplicatesLocationsAcrossSamples(t *testing.T) {
	profile := samplePair(t)
	defer profile.Close()

	prof, err := exportpprof.Build(profile)
	require.NoError(t, err)

	seen := make(map[uint64]bool)
	for _, loc := range prof.Location {
		assert.Falsef(t, seen[loc.ID], "duplicate location id %d", loc.ID)
		seen[loc.ID] = true
	}
}

func TestWriteToProducesNonEmptyOutput(t *testing.T) {
	profile := samplePair(t)
	defer profile.Close()

	var buf bytes.Buffer
	require.NoError(t, exportpprof.WriteTo(&buf, profile))
	assert.NotZero(t, buf.Len())
}
