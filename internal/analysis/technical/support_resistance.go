package technical

import (
	"github.com/seenimoa/futuresagent/pkg/models"
)

// Levels holds support and resistance prices for the latest session.
type Levels struct {
	Pivot      float64 `json:"pivot"`
	Support    float64 `json:"support"`    // lowest low of the range window
	Resistance float64 `json:"resistance"` // highest high of the range window
	S1         float64 `json:"s1"`
	R1         float64 `json:"r1"`
	S2         float64 `json:"s2"`
	R2         float64 `json:"r2"`
}

// SupportResistance combines the classic pivot of the last session with the
// trading range of the last `window` sessions.
func SupportResistance(bars []models.OHLCV, window int) Levels {
	n := len(bars)
	if n == 0 {
		return Levels{}
	}
	if window <= 0 || window > n {
		window = n
	}

	last := bars[n-1]
	h, l, c := last.High, last.Low, last.Close
	pp := (h + l + c) / 3

	lv := Levels{
		Pivot: pp,
		S1:    2*pp - h,
		R1:    2*pp - l,
		S2:    pp - (h - l),
		R2:    pp + (h - l),
	}

	lv.Support, lv.Resistance = rangeOf(bars[n-window:])
	return lv
}

// rangeOf returns the lowest low and highest high of the sessions.
func rangeOf(bars []models.OHLCV) (low, high float64) {
	if len(bars) == 0 {
		return 0, 0
	}
	low, high = bars[0].Low, bars[0].High
	for _, b := range bars[1:] {
		if b.Low < low {
			low = b.Low
		}
		if b.High > high {
			high = b.High
		}
	}
	return low, high
}
