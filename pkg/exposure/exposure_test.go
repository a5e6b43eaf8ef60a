package exposure

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/matzehuels/xsheet/pkg/document"
)

func TestMapHoldsCels(t *testing.T) {
	entries := Map([]int{1, 5, 12}, document.FrameRange{Start: 1, End: 12})
	if len(entries) != 12 {
		t.Fatalf("len(entries) = %d, want 12", len(entries))
	}

	want := map[int]int{1: 0, 4: 0, 5: 1, 11: 1, 12: 2}
	for _, e := range entries {
		if cel, ok := want[e.Frame]; ok && cel != e.Cel {
			t.Errorf("frame %d: cel = %d, want %d", e.Frame, e.Cel, cel)
		}
	}
	if got := Used(entries); !slices.Equal(got, []int{0, 1, 2}) {
		t.Errorf("Used() = %v, want [0 1 2]", got)
	}
}

func TestMapBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		keyframes []int
		span      document.FrameRange
		want      []int
	}{
		{"before first keyframe", []int{3, 6}, document.FrameRange{Start: 0, End: 4}, []int{0, 0, 0, 0, 0}},
		{"after last keyframe", []int{0, 2}, document.FrameRange{Start: 2, End: 5}, []int{1, 1, 1, 1}},
		{"span inside one interval", []int{0, 10}, document.FrameRange{Start: 4, End: 6}, []int{0, 0, 0}},
		{"single frame span", []int{0, 1, 2}, document.FrameRange{Start: 1, End: 1}, []int{1}},
		{"every frame a key", []int{0, 1, 2}, document.FrameRange{Start: 0, End: 2}, []int{0, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := Map(tt.keyframes, tt.span)
			got := make([]int, len(entries))
			for i, e := range entries {
				got[i] = e.Cel
				if e.Frame != tt.span.Start+i {
					t.Errorf("entry %d frame = %d, want %d", i, e.Frame, tt.span.Start+i)
				}
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("cels = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapStatic(t *testing.T) {
	if got := Map(nil, document.FrameRange{Start: 0, End: 10}); got != nil {
		t.Errorf("Map(nil) = %v, want nil", got)
	}
}

// Every frame maps to exactly one cel, cels never decrease, and the number of
// distinct cels equals the number of keyframe intervals meeting the span.
func TestMapProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		var keys []int
		for f := 0; f < 40; f++ {
			if rng.Intn(4) == 0 {
				keys = append(keys, f)
			}
		}
		if len(keys) == 0 {
			keys = []int{rng.Intn(40)}
		}
		start := rng.Intn(40)
		span := document.FrameRange{Start: start, End: start + rng.Intn(20)}

		entries := Map(keys, span)
		if len(entries) != span.Len() {
			t.Fatalf("keys %v span %v: %d entries, want %d", keys, span, len(entries), span.Len())
		}
		for j := 1; j < len(entries); j++ {
			if entries[j].Cel < entries[j-1].Cel {
				t.Fatalf("keys %v span %v: cel decreased at frame %d", keys, span, entries[j].Frame)
			}
		}

		intersecting := 0
		for k := range keys {
			lo := keys[k]
			hi := span.End + 1
			if k+1 < len(keys) {
				hi = keys[k+1]
			}
			if k == 0 {
				lo = min(lo, span.Start)
			}
			if k == len(keys)-1 {
				hi = max(hi, span.End+1)
			}
			if lo <= span.End && hi > span.Start {
				intersecting++
			}
		}
		if got := len(Used(entries)); got != intersecting {
			t.Fatalf("keys %v span %v: %d distinct cels, want %d", keys, span, got, intersecting)
		}
	}
}

func TestCelAt(t *testing.T) {
	keys := []int{2, 5, 9}
	tests := []struct{ frame, want int }{
		{0, 0}, {2, 0}, {4, 0}, {5, 1}, {8, 1}, {9, 2}, {50, 2},
	}
	for _, tt := range tests {
		if got := CelAt(keys, tt.frame); got != tt.want {
			t.Errorf("CelAt(%d) = %d, want %d", tt.frame, got, tt.want)
		}
	}
	if got := CelAt(nil, 3); got != -1 {
		t.Errorf("CelAt(nil) = %d, want -1", got)
	}
}

func TestUnion(t *testing.T) {
	got := Union([]int{1, 3}, []int{1, 2, 6})
	if !slices.Equal(got, []int{1, 2, 3, 6}) {
		t.Errorf("Union() = %v, want [1 2 3 6]", got)
	}

	entries := Map(got, document.FrameRange{Start: 1, End: 8})
	if n := len(Used(entries)); n != 4 {
		t.Errorf("flattened group renders %d cels, want 4", n)
	}
}

// A flattened group changes image exactly where any child changes image.
func TestUnionPartitionMatchesChildren(t *testing.T) {
	a := []int{0, 4, 9}
	b := []int{2, 4, 7}
	span := document.FrameRange{Start: 0, End: 12}
	group := Map(Union(a, b), span)
	ea, eb := Map(a, span), Map(b, span)

	for i := 1; i < len(group); i++ {
		groupChanged := group[i].Cel != group[i-1].Cel
		childChanged := ea[i].Cel != ea[i-1].Cel || eb[i].Cel != eb[i-1].Cel
		if groupChanged != childChanged {
			t.Errorf("frame %d: group changed = %v, children changed = %v", group[i].Frame, groupChanged, childChanged)
		}
	}
}

func TestChanges(t *testing.T) {
	entries := Map([]int{1, 5, 12}, document.FrameRange{Start: 1, End: 12})
	got := Changes(entries)
	want := []Entry{{Frame: 1, Cel: 0}, {Frame: 5, Cel: 1}, {Frame: 12, Cel: 2}}
	if !slices.Equal(got, want) {
		t.Errorf("Changes() = %v, want %v", got, want)
	}
}
