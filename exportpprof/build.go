package exportpprof

import (
	"fmt"
	"runtime"

	"github.com/google/pprof/profile"

	"github.com/coral-mesh/deallocprof/deallocz"
)

// Build converts an emitted deallocz.Profile into a pprof profile.Profile
// with two sample values (count and byte sum), numeric labels carrying
// the lifetime statistics and size fields, and a string "matching" label
// carrying the matching-bucket tag — data that doesn't fit pprof's
// value-per-sample-type model.
func Build(p *deallocz.Profile) (*profile.Profile, error) {
	b := &builder{
		locByPC:  make(map[uintptr]*profile.Location),
		fnByName: make(map[string]*profile.Function),
	}

	out := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "objects", Unit: "count"},
			{Type: "space", Unit: "bytes"},
		},
		TimeNanos:     0,
		DurationNanos: p.Duration().Nanoseconds(),
	}

	var iterErr error
	p.Iterate(func(s deallocz.OutputSample) {
		if iterErr != nil {
			return
		}
		sample, err := b.buildSample(s)
		if err != nil {
			iterErr = fmt.Errorf("exportpprof: build sample: %w", err)
			return
		}
		out.Sample = append(out.Sample, sample)
	})
	if iterErr != nil {
		return nil, iterErr
	}

	out.Location = b.locations
	out.Function = b.functions
	return out, nil
}

type builder struct {
	locByPC   map[uintptr]*profile.Location
	fnByName  map[string]*profile.Function
	locations []*profile.Location
	functions []*profile.Function
	nextLocID uint64
	nextFnID  uint64
}

func (b *builder) buildSample(s deallocz.OutputSample) (*profile.Sample, error) {
	locs := make([]*profile.Location, 0, s.Depth)
	for i := 0; i < s.Depth; i++ {
		loc, err := b.locationFor(s.Stack[i])
		if err != nil {
			return nil, err
		}
		locs = append(locs, loc)
	}

	return &profile.Sample{
		Location: locs,
		Value:    []int64{s.Count, s.Sum},
		Label: map[string][]string{
			"matching": {matchingLabel(s.CPUMatched, s.ThreadMatched)},
		},
		NumLabel: map[string][]int64{
			"lifetime_ns":        {int64(s.LifetimeNs)},
			"stddev_lifetime_ns": {int64(s.StddevLifetimeNs)},
			"min_lifetime_ns":    {int64(s.MinLifetimeNs)},
			"max_lifetime_ns":    {int64(s.MaxLifetimeNs)},
			"profile_id":         {int64(s.ProfileID)},
			"requested_size":     {int64(s.RequestedSize)},
			"requested_alignment": {int64(s.RequestedAlignment)},
			"allocated_size":     {int64(s.AllocatedSize)},
		},
		NumUnit: map[string][]string{
			"lifetime_ns":        {"nanoseconds"},
			"stddev_lifetime_ns": {"nanoseconds"},
			"min_lifetime_ns":    {"nanoseconds"},
			"max_lifetime_ns":    {"nanoseconds"},
		},
	}, nil
}

func matchingLabel(cpuMatched, threadMatched bool) string {
	switch {
	case cpuMatched && threadMatched:
		return "cpu+thread"
	case cpuMatched:
		return "cpu"
	case threadMatched:
		return "thread"
	default:
		return "none"
	}
}

// locationFor resolves a captured program counter to a pprof Location,
// expanding inlined frames via runtime.CallersFrames into multiple Lines on
// the same Location, and memoizing both Locations and Functions so repeated
// stacks sharing a frame don't duplicate table entries.
func (b *builder) locationFor(pc uintptr) (*profile.Location, error) {
	if loc, ok := b.locByPC[pc]; ok {
		return loc, nil
	}

	b.nextLocID++
	loc := &profile.Location{ID: b.nextLocID, Address: uint64(pc)}

	frames := runtime.CallersFrames([]uintptr{pc})
	for {
		frame, more := frames.Next()
		if frame.Function != "" {
			fn := b.functionFor(frame.Function, frame.File)
			loc.Line = append(loc.Line, profile.Line{
				Function: fn,
				Line:     int64(frame.Line),
			})
		}
		if !more {
			break
		}
	}

	if len(loc.Line) == 0 {
		fn := b.functionFor(fmt.Sprintf("0x%x", pc), "")
		loc.Line = append(loc.Line, profile.Line{Function: fn})
	}

	b.locations = append(b.locations, loc)
	b.locByPC[pc] = loc
	return loc, nil
}

func (b *builder) functionFor(name, file string) *profile.Function {
	if fn, ok := b.fnByName[name]; ok {
		return fn
	}
	b.nextFnID++
	fn := &profile.Function{ID: b.nextFnID, Name: name, SystemName: name, Filename: file}
	b.functions = append(b.functions, fn)
	b.fnByName[name] = fn
	return fn
}
