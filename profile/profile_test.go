package profile

import (
	"slices"
	"testing"
)

func TestProfiler_StartWithoutMode(t *testing.T) {
	s := Profiler{Dir: t.TempDir()}.Start()
	if _, ok := s.(ignore); !ok {
		t.Fatalf("Start() = %T, want no-op", s)
	}

	s.Stop()
}

func TestProfiler_UnknownMode(t *testing.T) {
	s := Profiler{Mode: "bogus", Dir: t.TempDir(), Quiet: true}.Start()
	if _, ok := s.(ignore); !ok {
		t.Fatalf("Start() = %T, want no-op", s)
	}

	s.Stop()
}

func TestModes(t *testing.T) {
	modes := slices.Collect(Modes())

	if !Enabled {
		if len(modes) != 0 {
			t.Errorf("Modes() = %v, want none without %s tag", modes, Tag)
		}

		return
	}

	if !slices.IsSorted(modes) {
		t.Errorf("Modes() = %v, want sorted", modes)
	}

	for _, want := range []string{"cpu", "heap", "trace"} {
		if !slices.Contains(modes, want) {
			t.Errorf("Modes() missing %q", want)
		}
	}
}
