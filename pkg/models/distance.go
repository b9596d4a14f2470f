package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Wire values shared with the instrumentation pass that consumes distance files.
const (
	// MaxDistance is written for identifiers with no usable path to any target
	MaxDistance = float64(1<<31 - 1)

	// SmallMaxDistance is the near-unreachable threshold. Any value at or
	// above it is treated as effectively unreachable.
	SmallMaxDistance = float64(1<<31 - 3)

	// UnsureDistance is written for blocks whose distance could not be determined
	UnsureDistance = -1.0
)

// DistanceKind tags a Distance value
type DistanceKind uint8

const (
	// DistanceUnsure means not yet determined. It is the zero value.
	DistanceUnsure DistanceKind = iota
	// DistanceKnown carries a finite value
	DistanceKnown
	// DistanceUnreachable means no usable path was found
	DistanceUnreachable
)

// Distance is a proximity score to the target set. Lower is closer.
// The zero value is an unsure distance.
type Distance struct {
	kind  DistanceKind
	value float64
}

// Known returns a finite distance
func Known(value float64) Distance {
	return Distance{kind: DistanceKnown, value: value}
}

// Unreachable returns the unreachable distance
func Unreachable() Distance {
	return Distance{kind: DistanceUnreachable}
}

// Unsure returns the undetermined distance
func Unsure() Distance {
	return Distance{}
}

// DistanceFromValue maps a wire value back to a tagged distance.
// Negative values are unsure and values at MaxDistance or above are unreachable.
func DistanceFromValue(value float64) Distance {
	switch {
	case value < 0:
		return Unsure()
	case value >= MaxDistance:
		return Unreachable()
	default:
		return Known(value)
	}
}

// ParseDistance parses a decimal distance value as found in distance files
func ParseDistance(s string) (Distance, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Unsure(), fmt.Errorf("invalid distance value %q: %w", s, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Unsure(), fmt.Errorf("invalid distance value %q: not finite", s)
	}
	return DistanceFromValue(value), nil
}

// Kind returns the tag of d
func (d Distance) Kind() DistanceKind {
	return d.kind
}

// IsUnsure reports whether d is undetermined
func (d Distance) IsUnsure() bool {
	return d.kind == DistanceUnsure
}

// IsUnreachable reports whether d is the unreachable sentinel
func (d Distance) IsUnreachable() bool {
	return d.kind == DistanceUnreachable
}

// IsKnown reports whether d carries a finite value
func (d Distance) IsKnown() bool {
	return d.kind == DistanceKnown
}

// IsClose reports whether d is finite and below the near-unreachable threshold
func (d Distance) IsClose() bool {
	return d.kind == DistanceKnown && d.value < SmallMaxDistance
}

// IsFar reports whether d is unreachable or at/above the near-unreachable threshold
func (d Distance) IsFar() bool {
	return d.kind == DistanceUnreachable || (d.kind == DistanceKnown && d.value >= SmallMaxDistance)
}

// NeedsResolution reports whether a later stage may replace d
func (d Distance) NeedsResolution() bool {
	return d.IsUnsure() || d.IsFar()
}

// Value returns the wire value of d
func (d Distance) Value() float64 {
	switch d.kind {
	case DistanceKnown:
		return d.value
	case DistanceUnreachable:
		return MaxDistance
	default:
		return UnsureDistance
	}
}

// Add returns d shifted by delta. Sentinels are returned unchanged.
func (d Distance) Add(delta float64) Distance {
	if d.kind != DistanceKnown {
		return d
	}
	return Known(d.value + delta)
}

// Scale returns d multiplied by factor. Sentinels are returned unchanged.
func (d Distance) Scale(factor float64) Distance {
	if d.kind != DistanceKnown {
		return d
	}
	return Known(d.value * factor)
}

// rank orders kinds: known values first, then unreachable, then unsure
func (d Distance) rank() int {
	switch d.kind {
	case DistanceKnown:
		return 0
	case DistanceUnreachable:
		return 1
	default:
		return 2
	}
}

// Less reports whether d is strictly closer than other
func (d Distance) Less(other Distance) bool {
	if d.kind == DistanceKnown && other.kind == DistanceKnown {
		return d.value < other.value
	}
	return d.rank() < other.rank()
}

// MinDistance returns the closer of a and b
func MinDistance(a, b Distance) Distance {
	if b.Less(a) {
		return b
	}
	return a
}

// String formats d the way distance files store it
func (d Distance) String() string {
	return FormatValue(d.Value())
}

// FormatValue formats a distance value as decimal floating point with at
// least one fractional digit, e.g. 10.0 or 0.6666666666666666.
func FormatValue(value float64) string {
	s := strconv.FormatFloat(value, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// DistanceRecord is one line of a distance file
type DistanceRecord struct {
	Name     string
	Distance Distance
}
