// Package exposure converts sparse keyframe positions into dense per-frame
// cel assignments.
//
// Keyframes k0 < k1 < ... < kn split the timeline into half-open intervals
// [ki, ki+1). Every frame inside an interval shows cel i (hold semantics).
// Frames before k0 show cel 0 and frames at or after kn show cel n.
//
// Only the first frame of each interval needs a rendered image; the other
// frames of the interval reuse it. A layer exposed for 24 frames but drawn on
// 3 keyframes yields 3 images.
package exposure

import (
	"slices"

	"github.com/matzehuels/xsheet/pkg/document"
)

// Entry states that Cel is visible at Frame.
type Entry struct {
	Frame int `json:"frame"`
	Cel   int `json:"cel"`
}

// CelAt returns the index of the keyframe interval containing frame.
// It returns -1 when keyframes is empty.
func CelAt(keyframes []int, frame int) int {
	if len(keyframes) == 0 {
		return -1
	}
	// Index of the first keyframe strictly after frame, minus one.
	i, found := slices.BinarySearch(keyframes, frame)
	if found {
		return i
	}
	if i == 0 {
		return 0
	}
	return i - 1
}

// Map assigns a cel index to every frame of span. The result is ordered by
// frame, has span.Len() entries and non-decreasing cel indices. It returns
// nil for an empty keyframe list, since static layers have no exposure.
func Map(keyframes []int, span document.FrameRange) []Entry {
	if len(keyframes) == 0 || span.Len() == 0 {
		return nil
	}
	entries := make([]Entry, 0, span.Len())
	cel := CelAt(keyframes, span.Start)
	for f := span.Start; f <= span.End; f++ {
		for cel+1 < len(keyframes) && keyframes[cel+1] <= f {
			cel++
		}
		entries = append(entries, Entry{Frame: f, Cel: cel})
	}
	return entries
}

// Used returns the distinct cel indices of entries in order of first
// appearance. Since Map yields non-decreasing cels, the result is sorted.
func Used(entries []Entry) []int {
	var cels []int
	for i, e := range entries {
		if i == 0 || e.Cel != entries[i-1].Cel {
			cels = append(cels, e.Cel)
		}
	}
	return cels
}

// Changes returns the entries at which the visible cel changes, starting with
// the first entry. These are the frames an exposure sheet has to list.
func Changes(entries []Entry) []Entry {
	var out []Entry
	for i, e := range entries {
		if i == 0 || e.Cel != entries[i-1].Cel {
			out = append(out, e)
		}
	}
	return out
}

// Union merges keyframe position lists into one sorted list without
// duplicates. A flattened group changes its composite image whenever any of
// its children starts a new cel, so its keyframes are the union of theirs.
func Union(tracks ...[]int) []int {
	var out []int
	for _, t := range tracks {
		out = append(out, t...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
