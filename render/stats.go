package render

import (
	"fmt"
	"time"

	"github.com/loov/hrtime"
)

// FrameStats accumulates the CPU time spent in Renderer.Frame.
type FrameStats struct {
	Frames uint64
	Last   time.Duration
	Total  time.Duration
	Min    time.Duration
	Max    time.Duration
}

// timer measures one frame with the high resolution clock.
type timer struct {
	start time.Duration
}

func startTimer() timer {
	return timer{start: hrtime.Now()}
}

func (t timer) stop(s *FrameStats) {
	s.add(hrtime.Since(t.start))
}

func (s *FrameStats) add(d time.Duration) {
	if s.Frames == 0 || d < s.Min {
		s.Min = d
	}
	if d > s.Max {
		s.Max = d
	}
	s.Frames++
	s.Last = d
	s.Total += d
}

// Mean returns the average frame time, zero before the first frame.
func (s FrameStats) Mean() time.Duration {
	if s.Frames == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Frames)
}

func (s FrameStats) String() string {
	return fmt.Sprintf("%d frames, mean %v, min %v, max %v", s.Frames, s.Mean(), s.Min, s.Max)
}
