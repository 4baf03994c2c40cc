package touch

import (
	"math"
	"math/rand"
	"time"

	"github.com/emu-next/devio/types"
)

const (
	// MinSwipeDistance is the shortest drag worth synthesizing. Anything
	// below it is indistinguishable from a tap with finger wobble, and
	// some widgets misread a two-point drag as a fling.
	MinSwipeDistance = 10

	segmentLength = 20
	minSegments   = 2
	maxSegments   = 40
	jitterRange   = 2
)

// SwipeOptions tunes swipe synthesis. Zero values pick the defaults.
type SwipeOptions struct {
	// Duration spreads the intermediate moves over this long.
	Duration time.Duration
	// HoldBefore dwells after the press before the first move, which
	// keeps scroll views from interpreting the gesture as a fling.
	HoldBefore time.Duration
	// HoldAfter dwells on the final point before lifting.
	HoldAfter time.Duration
	// NoJitter disables the per-point wobble, for deterministic replay.
	NoJitter bool
}

// DefaultSwipeDuration paces a swipe when the caller does not specify.
const DefaultSwipeDuration = 300 * time.Millisecond

// BuildSwipe synthesizes a drag gesture from one point to another.
// The path is straight-line interpolated into roughly 20px segments
// with a pixel or two of wobble on the interior points so the motion
// reads as a finger rather than a ruler; the endpoints are exact.
//
// Drags shorter than MinSwipeDistance return nil: the caller should
// treat that as a successfully completed no-op rather than an error,
// since the intent was "barely move" and injecting it would misfire.
func BuildSwipe(from, to types.Point, opts SwipeOptions, name string) *Gesture {
	dist := distance(from, to)
	if dist < MinSwipeDistance {
		return nil
	}

	if opts.Duration <= 0 {
		opts.Duration = DefaultSwipeDuration
	}

	segments := int(math.Round(dist / segmentLength))
	if segments < minSegments {
		segments = minSegments
	}
	if segments > maxSegments {
		segments = maxSegments
	}
	stepMS := int(opts.Duration.Milliseconds()) / segments
	if stepMS < 1 {
		stepMS = 1
	}

	b := NewBuilder().
		Name(name).
		Down(0, from, 0).
		Commit().
		Wait(int(opts.HoldBefore.Milliseconds()))

	for i := 1; i < segments; i++ {
		p := lerp(from, to, float64(i)/float64(segments))
		if !opts.NoJitter {
			p.X += rand.Intn(2*jitterRange+1) - jitterRange
			p.Y += rand.Intn(2*jitterRange+1) - jitterRange
		}
		b.Wait(stepMS).Move(0, p, 0).Commit()
	}

	return b.
		Wait(stepMS).
		Move(0, to, 0).
		Commit().
		Wait(int(opts.HoldAfter.Milliseconds())).
		Up(0).
		Commit().
		Gesture()
}

func distance(a, b types.Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	return math.Hypot(dx, dy)
}

func lerp(a, b types.Point, t float64) types.Point {
	return types.Point{
		X: a.X + int(math.Round(float64(b.X-a.X)*t)),
		Y: a.Y + int(math.Round(float64(b.Y-a.Y)*t)),
	}
}
