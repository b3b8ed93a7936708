package deallocz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBroadcastsToEveryActiveProfiler(t *testing.T) {
	env := newFakeEnv()
	registry := NewRegistry(env)

	h1 := registry.Start()
	h2 := registry.Start()
	require.Equal(t, 2, registry.ActiveCount())

	st := StackTrace{Handle: 1, Stack: fixedStack(1), Depth: 1, RequestedSize: 8, AllocatedSize: 8, AllocationTime: env.Now(), Weight: 1}
	registry.ReportMalloc(st)
	env.advance(time.Millisecond)
	registry.ReportFree(1)

	p1 := h1.Stop()
	defer p1.Close()
	p2 := h2.Stop()
	defer p2.Close()

	var n1, n2 int
	p1.Iterate(func(s OutputSample) { n1++ })
	p2.Iterate(func(s OutputSample) { n2++ })

	assert.Equal(t, 2, n1, "profiler 1 must see the broadcast pair")
	assert.Equal(t, 2, n2, "profiler 2 must see the broadcast pair")
}

func TestRegistryStartedProfilerDoesNotSeeEarlierProfilersAllocations(t *testing.T) {
	env := newFakeEnv()
	registry := NewRegistry(env)

	h1 := registry.Start()
	st := StackTrace{Handle: 1, Stack: fixedStack(1), Depth: 1, RequestedSize: 8, AllocatedSize: 8, AllocationTime: env.Now(), Weight: 1}
	registry.ReportMalloc(st)

	h2 := registry.Start()
	env.advance(time.Millisecond)
	registry.ReportFree(1)

	p1 := h1.Stop()
	defer p1.Close()
	p2 := h2.Stop()
	defer p2.Close()

	var n1, n2 int
	p1.Iterate(func(s OutputSample) { n1++ })
	p2.Iterate(func(s OutputSample) { n2++ })

	assert.Equal(t, 2, n1)
	assert.Zero(t, n2, "a profiler started after the malloc never saw it, so the free is an orphan for it")
}

func TestRegistryActiveCountDecreasesAfterStop(t *testing.T) {
	env := newFakeEnv()
	registry := NewRegistry(env)

	h1 := registry.Start()
	h2 := registry.Start()
	require.Equal(t, 2, registry.ActiveCount())

	h1.Stop().Close()
	assert.Equal(t, 1, registry.ActiveCount())

	h2.Stop().Close()
	assert.Zero(t, registry.ActiveCount())
}
