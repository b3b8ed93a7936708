package deallocz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyProfileIteratesNothing(t *testing.T) {
	p := emptyProfile()
	defer p.Close()

	var count int
	p.Iterate(func(s OutputSample) { count++ })
	assert.Zero(t, count)
	assert.Equal(t, ProfileTypeLifetimes, p.Type())
}

func TestProfileOutlivesItsProfilerAndRegistry(t *testing.T) {
	var profile *Profile
	func() {
		env := newFakeEnv()
		registry := NewRegistry(env)
		handle := registry.Start()

		st := StackTrace{Handle: 1, Stack: fixedStack(1), Depth: 1, RequestedSize: 8, AllocatedSize: 8, AllocationTime: env.Now(), Weight: 1}
		registry.ReportMalloc(st)
		env.advance(time.Millisecond)
		registry.ReportFree(1)

		profile = handle.Stop()
		// registry and handle go out of scope here; profile must remain readable.
	}()
	defer profile.Close()

	var count int
	profile.Iterate(func(s OutputSample) { count++ })
	require.Equal(t, 2, count)
}

func TestProfileCloseIsIdempotent(t *testing.T) {
	p := emptyProfile()
	before := ArenaLiveRefs()
	p.Close()
	assert.Equal(t, before-1, ArenaLiveRefs())
	p.Close()
	assert.Equal(t, before-1, ArenaLiveRefs(), "second Close must not double-release the arena")
}

func TestProfileDurationMatchesStartStopWindow(t *testing.T) {
	env := newFakeEnv()
	registry := NewRegistry(env)
	handle := registry.Start()
	time.Sleep(time.Millisecond)

	profile := handle.Stop()
	defer profile.Close()

	assert.Positive(t, profile.Duration())
}
