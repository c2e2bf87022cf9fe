package rhythm

import (
	"github.com/kingrea/overture/internal/duration"
	"github.com/kingrea/overture/internal/score"
)

// FillGaps writes a multimeasure rest into every measure of every voice that
// no leaf sounds in, and returns how many measures it filled.
func FillGaps(s *score.Score) (int, error) {
	filled := 0
	for _, voice := range s.Voices {
		for m := 1; m <= s.MeasureCount(); m++ {
			span, err := s.Span(score.Measure(m))
			if err != nil {
				return filled, err
			}
			if sounds(voice, span.Start, span.Stop) {
				continue
			}
			rest := &score.Leaf{Kind: score.KindMultimeasureRest, Duration: span.Duration()}
			s.Adopt(rest)
			if err := s.ReplaceSpan(voice, span, []*score.Leaf{rest}); err != nil {
				return filled, err
			}
			filled++
		}
	}
	return filled, nil
}

func sounds(voice *score.Voice, start, stop duration.Duration) bool {
	for _, leaf := range voice.Leaves {
		if leaf.Offset.Less(stop) && start.Less(leaf.Stop()) {
			return true
		}
	}
	return false
}
