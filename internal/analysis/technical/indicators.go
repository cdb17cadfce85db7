// Package technical implements the technical indicators used in futures reports.
// Indicator functions operate on close-price slices ordered oldest first;
// Compute builds a full Snapshot from []models.OHLCV sessions.
package technical

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInsufficientData is returned when the series is shorter than the indicator window.
var ErrInsufficientData = errors.New("insufficient data")

// TradingDaysPerYear is used to annualize daily volatility.
const TradingDaysPerYear = 252

// NeutralRSI is reported when price did not move over the RSI window.
const NeutralRSI = 50.0

// Indicator is a computed value or an explicit insufficient-data marker.
type Indicator struct {
	Value        float64
	Insufficient bool
}

// Value wraps a computed number.
func Value(v float64) Indicator { return Indicator{Value: v} }

// Insufficient is the marker for a window longer than the series.
func Insufficient() Indicator { return Indicator{Insufficient: true} }

// FromResult turns an indicator function result into an Indicator.
func FromResult(v float64, err error) Indicator {
	if err != nil {
		return Insufficient()
	}
	return Value(v)
}

// String renders the value with two decimals or "insufficient data".
func (i Indicator) String() string {
	return i.Format(2)
}

// Format renders the value with the given number of decimals.
func (i Indicator) Format(decimals int) string {
	if i.Insufficient {
		return ErrInsufficientData.Error()
	}
	return strconv.FormatFloat(i.Value, 'f', decimals, 64)
}

// MarshalJSON encodes insufficient indicators as the string "insufficient data".
func (i Indicator) MarshalJSON() ([]byte, error) {
	if i.Insufficient {
		return json.Marshal(ErrInsufficientData.Error())
	}
	return json.Marshal(i.Value)
}

// UnmarshalJSON accepts either a number or the insufficient-data string.
func (i *Indicator) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*i = Insufficient()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("indicator: %w", err)
	}
	*i = Value(v)
	return nil
}

// RSI calculates the Relative Strength Index over the last `period` price changes.
// Average gain and loss are simple means over the window. The result is
// always within [0, 100]; a window without any movement returns NeutralRSI.
func RSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		period = 14
	}
	n := len(closes)
	if n < period+1 {
		return 0, fmt.Errorf("rsi(%d) needs %d closes, have %d: %w", period, period+1, n, ErrInsufficientData)
	}

	var gain, loss float64
	for i := n - period; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gain += change
		} else {
			loss += -change
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)

	switch {
	case avgGain == 0 && avgLoss == 0:
		return NeutralRSI, nil
	case avgLoss == 0:
		return 100, nil
	}
	rs := avgGain / avgLoss
	return clamp(100-(100/(1+rs)), 0, 100), nil
}

// MACDResult holds a single MACD computation point.
type MACDResult struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// MACDSeries calculates the Moving Average Convergence Divergence for every close.
// Default parameters: fast=12, slow=26, signal=9.
func MACDSeries(closes []float64, fast, slow, signal int) ([]MACDResult, error) {
	if fast <= 0 {
		fast = 12
	}
	if slow <= 0 {
		slow = 26
	}
	if signal <= 0 {
		signal = 9
	}
	if len(closes) < slow {
		return nil, fmt.Errorf("macd(%d,%d,%d) needs %d closes, have %d: %w",
			fast, slow, signal, slow, len(closes), ErrInsufficientData)
	}

	fastEMA := emaCalc(closes, fast)
	slowEMA := emaCalc(closes, slow)

	n := len(closes)
	macdLine := make([]float64, n)
	for i := 0; i < n; i++ {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine := emaCalc(macdLine, signal)

	results := make([]MACDResult, n)
	for i := 0; i < n; i++ {
		results[i] = MACDResult{
			MACD:      macdLine[i],
			Signal:    signalLine[i],
			Histogram: macdLine[i] - signalLine[i],
		}
	}
	return results, nil
}

// MACD returns the most recent MACD point.
func MACD(closes []float64, fast, slow, signal int) (MACDResult, error) {
	results, err := MACDSeries(closes, fast, slow, signal)
	if err != nil {
		return MACDResult{}, err
	}
	return results[len(results)-1], nil
}

// Volatility is the sample standard deviation of simple daily returns.
// With annualize set it is scaled by sqrt(252) and expressed in percent.
// A constant series has zero volatility.
func Volatility(closes []float64, annualize bool) (float64, error) {
	rets := Returns(closes)
	if len(rets) < 2 {
		return 0, fmt.Errorf("volatility needs 3 closes, have %d: %w", len(closes), ErrInsufficientData)
	}
	sd := sampleStddev(rets)
	if annualize {
		return sd * math.Sqrt(TradingDaysPerYear) * 100, nil
	}
	return sd, nil
}

// Returns computes simple returns close[i]/close[i-1]-1.
// Pairs with a non-positive previous close are skipped.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	rets := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 {
			continue
		}
		rets = append(rets, closes[i]/closes[i-1]-1)
	}
	return rets
}

// --- helper functions ---

func avg(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

func sampleStddev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	mean := avg(data)
	sumSq := 0.0
	for _, v := range data {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(data)-1))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// emaCalc is an exponentially weighted mean with alpha 2/(period+1),
// seeded with the first value.
func emaCalc(data []float64, period int) []float64 {
	n := len(data)
	ema := make([]float64, n)
	if n == 0 || period <= 0 {
		return ema
	}

	k := 2.0 / float64(period+1)
	ema[0] = data[0]
	for i := 1; i < n; i++ {
		ema[i] = data[i]*k + ema[i-1]*(1-k)
	}
	return ema
}
