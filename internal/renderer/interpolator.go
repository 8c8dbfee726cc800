package renderer

import "math"

// MaxFrameCount is the largest value FrameCount returns.
const MaxFrameCount = 1 << 24

// FrameCount returns the number of whole frames covered by durationSec at fps.
// NaN and non-positive durations cover no frames; anything past
// MaxFrameCount saturates.
func FrameCount(durationSec float64, fps int) int {
	if math.IsNaN(durationSec) || durationSec <= 0 || fps <= 0 {
		return 0
	}
	n := math.Floor(durationSec * float64(fps))
	if n >= MaxFrameCount {
		return MaxFrameCount
	}
	return int(n)
}

// linearNodes returns n+1 evenly spaced integer samples from 0 to offset.
// Both endpoints are exact; intermediate nodes are truncated toward zero.
func linearNodes(offset, n int) []int {
	if n <= 0 {
		return []int{0}
	}
	nodes := make([]int, n+1)
	for k := 1; k < n; k++ {
		nodes[k] = offset * k / n
	}
	nodes[n] = offset
	return nodes
}

// linearPrefix returns nodes 1..take of linearNodes(offset, n) without
// building the rest.
func linearPrefix(offset, n, take int) []int {
	take = min(take, n)
	if take <= 0 {
		return nil
	}
	out := make([]int, take)
	for k := 1; k <= take; k++ {
		out[k-1] = offset * k / n
	}
	if take == n {
		out[take-1] = offset
	}
	return out
}

// linearSteps splits offset into n per-frame deltas that sum to offset.
func linearSteps(offset, n int) []int {
	if n <= 0 {
		return nil
	}
	nodes := linearNodes(offset, n)
	steps := make([]int, n)
	for k := 0; k < n; k++ {
		steps[k] = nodes[k+1] - nodes[k]
	}
	return steps
}

// cumulative turns per-frame deltas into absolute positions starting at origin.
func cumulative(deltas []int, origin int) []int {
	out := make([]int, len(deltas))
	pos := origin
	for i, d := range deltas {
		pos += d
		out[i] = pos
	}
	return out
}

// padInts extends s to n entries by repeating its last value, or truncates it.
func padInts(s []int, n int, fill int) []int {
	n = max(n, 0)
	if len(s) >= n {
		return s[:n]
	}
	if len(s) > 0 {
		fill = s[len(s)-1]
	}
	out := make([]int, n)
	copy(out, s)
	for i := len(s); i < n; i++ {
		out[i] = fill
	}
	return out
}
