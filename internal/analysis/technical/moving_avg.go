package technical

import (
	"fmt"
)

// SMASeries calculates the Simple Moving Average at every index.
// Entries before the first full window are zero.
func SMASeries(data []float64, period int) ([]float64, error) {
	n := len(data)
	if period <= 0 || n < period {
		return nil, fmt.Errorf("sma(%d) with %d closes: %w", period, n, ErrInsufficientData)
	}

	result := make([]float64, n)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	result[period-1] = sum / float64(period)

	for i := period; i < n; i++ {
		sum += data[i] - data[i-period]
		result[i] = sum / float64(period)
	}
	return result, nil
}

// SMA returns the arithmetic mean of the last `period` values.
func SMA(data []float64, period int) (float64, error) {
	n := len(data)
	if period <= 0 || n < period {
		return 0, fmt.Errorf("sma(%d) with %d closes: %w", period, n, ErrInsufficientData)
	}
	return avg(data[n-period:]), nil
}

// EMASeries calculates the Exponential Moving Average at every index.
func EMASeries(data []float64, period int) ([]float64, error) {
	if period <= 0 || len(data) < period {
		return nil, fmt.Errorf("ema(%d) with %d closes: %w", period, len(data), ErrInsufficientData)
	}
	return emaCalc(data, period), nil
}

// EMA returns the most recent EMA value.
func EMA(data []float64, period int) (float64, error) {
	vals, err := EMASeries(data, period)
	if err != nil {
		return 0, err
	}
	return vals[len(vals)-1], nil
}

// MovingAverage is one window of a multi-period MA table.
type MovingAverage struct {
	Window int       `json:"window"`
	Value  Indicator `json:"value"`
}

// MultiSMA computes SMA for multiple periods at once, marking short windows.
func MultiSMA(data []float64, periods []int) []MovingAverage {
	result := make([]MovingAverage, 0, len(periods))
	for _, p := range periods {
		result = append(result, MovingAverage{Window: p, Value: FromResult(SMA(data, p))})
	}
	return result
}

// StandardPeriods are the MA windows reported for futures.
var StandardPeriods = []int{5, 10, 20, 30}
