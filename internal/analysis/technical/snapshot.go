package technical

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/futuresagent/pkg/models"
)

// Options selects the indicator windows used by Compute.
type Options struct {
	MAWindows   []int
	RSIPeriod   int
	MACDFast    int
	MACDSlow    int
	MACDSignal  int
	RangeWindow int
	Annualize   bool
}

// DefaultOptions returns MA5/10/20/30, RSI(14), MACD(12,26,9), a 20-session
// range and annualized volatility.
func DefaultOptions() Options {
	return Options{
		MAWindows:   StandardPeriods,
		RSIPeriod:   14,
		MACDFast:    12,
		MACDSlow:    26,
		MACDSignal:  9,
		RangeWindow: 20,
		Annualize:   true,
	}
}

// Latest is the most recent session with its change versus the previous close.
type Latest struct {
	Date         string  `json:"date"`
	Open         float64 `json:"open"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	Close        float64 `json:"close"`
	Volume       float64 `json:"volume"`
	OpenInterest float64 `json:"open_interest"`
	Settle       float64 `json:"settle"`
	Change       float64 `json:"change"`
	ChangePct    float64 `json:"change_pct"`
}

// MACDIndicator is the latest MACD point or an insufficient-data marker.
type MACDIndicator struct {
	MACD      Indicator `json:"macd"`
	Signal    Indicator `json:"signal"`
	Histogram Indicator `json:"histogram"`
}

// Stats summarizes the whole window.
type Stats struct {
	Sessions     int     `json:"sessions"`
	MeanClose    float64 `json:"mean_close"`
	HighestHigh  float64 `json:"highest_high"`
	LowestLow    float64 `json:"lowest_low"`
	AmplitudePct float64 `json:"amplitude_pct"`
	TotalVolume  float64 `json:"total_volume"`
	MeanVolume   float64 `json:"mean_volume"`
}

// Trend labels.
const (
	TrendUp           = "上涨趋势"
	TrendDown         = "下跌趋势"
	TrendSideways     = "震荡整理"
	TrendInsufficient = "数据不足"
)

// Snapshot is the indicator set for one symbol, recomputed on every request.
type Snapshot struct {
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	Exchange       string          `json:"exchange"`
	From           string          `json:"from"`
	To             string          `json:"to"`
	Latest         Latest          `json:"latest"`
	MovingAverages []MovingAverage `json:"moving_averages"`
	RSI            Indicator       `json:"rsi"`
	RSIPeriod      int             `json:"rsi_period"`
	MACD           MACDIndicator   `json:"macd"`
	Volatility     Indicator       `json:"annualized_volatility_pct"`
	Stats          Stats           `json:"stats"`
	Levels         Levels          `json:"levels"`
	Trend          string          `json:"trend"`
	Closes         []float64       `json:"-"`
	Bars           []models.OHLCV  `json:"-"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// MA returns the moving average for a window, or an insufficient marker if
// the window was not computed.
func (s *Snapshot) MA(window int) Indicator {
	for _, ma := range s.MovingAverages {
		if ma.Window == window {
			return ma.Value
		}
	}
	return Insufficient()
}

// Compute derives the indicator snapshot from sessions ordered oldest first.
func Compute(sym models.Symbol, bars []models.OHLCV, opts Options) (*Snapshot, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("compute %s: %w", sym.Code, ErrInsufficientData)
	}
	if len(opts.MAWindows) == 0 {
		opts.MAWindows = StandardPeriods
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	last := bars[len(bars)-1]
	snap := &Snapshot{
		Symbol:      sym.Code,
		Name:        sym.Name,
		Exchange:    string(sym.Exchange),
		From:        bars[0].Date.Format("2006-01-02"),
		To:          last.Date.Format("2006-01-02"),
		RSIPeriod:   opts.RSIPeriod,
		Closes:      closes,
		Bars:        bars,
		GeneratedAt: time.Now(),
	}

	snap.Latest = Latest{
		Date:         last.Date.Format("2006-01-02"),
		Open:         round(last.Open, 2),
		High:         round(last.High, 2),
		Low:          round(last.Low, 2),
		Close:        round(last.Close, 2),
		Volume:       last.Volume,
		OpenInterest: last.OpenInterest,
		Settle:       round(last.Settle, 2),
	}
	if len(bars) > 1 {
		prev := bars[len(bars)-2].Close
		snap.Latest.Change = round(last.Close-prev, 2)
		if prev != 0 {
			snap.Latest.ChangePct = round((last.Close-prev)/prev*100, 2)
		}
	}

	for _, ma := range MultiSMA(closes, opts.MAWindows) {
		snap.MovingAverages = append(snap.MovingAverages, MovingAverage{Window: ma.Window, Value: roundIndicator(ma.Value, 2)})
	}

	snap.RSI = roundIndicator(FromResult(RSI(closes, opts.RSIPeriod)), 2)

	if m, err := MACD(closes, opts.MACDFast, opts.MACDSlow, opts.MACDSignal); err != nil {
		snap.MACD = MACDIndicator{MACD: Insufficient(), Signal: Insufficient(), Histogram: Insufficient()}
	} else {
		snap.MACD = MACDIndicator{
			MACD:      Value(round(m.MACD, 4)),
			Signal:    Value(round(m.Signal, 4)),
			Histogram: Value(round(m.Histogram, 4)),
		}
	}

	snap.Volatility = roundIndicator(FromResult(Volatility(closes, opts.Annualize)), 2)
	snap.Stats = computeStats(bars)
	snap.Levels = roundLevels(SupportResistance(bars, opts.RangeWindow))
	snap.Trend = trend(last.Close, snap.MA(5), snap.MA(20))

	return snap, nil
}

func computeStats(bars []models.OHLCV) Stats {
	low, high := rangeOf(bars)
	var sumClose, sumVol float64
	for _, b := range bars {
		sumClose += b.Close
		sumVol += b.Volume
	}
	n := float64(len(bars))
	st := Stats{
		Sessions:    len(bars),
		MeanClose:   round(sumClose/n, 2),
		HighestHigh: round(high, 2),
		LowestLow:   round(low, 2),
		TotalVolume: sumVol,
		MeanVolume:  round(sumVol/n, 2),
	}
	if low > 0 {
		st.AmplitudePct = round((high-low)/low*100, 2)
	}
	return st
}

// trend compares the close against the short and medium averages.
func trend(close float64, short, medium Indicator) string {
	if short.Insufficient || medium.Insufficient {
		return TrendInsufficient
	}
	switch {
	case close > short.Value && short.Value > medium.Value:
		return TrendUp
	case close < short.Value && short.Value < medium.Value:
		return TrendDown
	default:
		return TrendSideways
	}
}

func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func roundIndicator(i Indicator, places int32) Indicator {
	if i.Insufficient {
		return i
	}
	return Value(round(i.Value, places))
}

func roundLevels(l Levels) Levels {
	return Levels{
		Pivot:      round(l.Pivot, 2),
		Support:    round(l.Support, 2),
		Resistance: round(l.Resistance, 2),
		S1:         round(l.S1, 2),
		R1:         round(l.R1, 2),
		S2:         round(l.S2, 2),
		R2:         round(l.R2, 2),
	}
}
