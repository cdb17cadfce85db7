package technical

import (
	"math/rand"
	"testing"
	"time"

	"github.com/seenimoa/futuresagent/pkg/models"
)

// benchBars creates synthetic OHLCV data for benchmarks.
func benchBars(n int) []models.OHLCV {
	bars := make([]models.OHLCV, n)
	rng := rand.New(rand.NewSource(42))
	price := 3500.0
	t := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)

	for i := range bars {
		change := (rng.Float64() - 0.48) * 40
		open := price
		close := price + change
		high := open + rng.Float64()*25
		low := open - rng.Float64()*25
		if high < close {
			high = close + rng.Float64()*5
		}
		if low > close {
			low = close - rng.Float64()*5
		}
		bars[i] = models.OHLCV{
			Date:   t,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: float64(rng.Intn(500_000) + 10_000),
		}
		price = close
		t = t.AddDate(0, 0, 1)
	}
	return bars
}

func BenchmarkRSI(b *testing.B) {
	closes := closesOf(benchBars(1000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = RSI(closes, 14)
	}
}

func BenchmarkMACD(b *testing.B) {
	closes := closesOf(benchBars(1000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MACD(closes, 12, 26, 9)
	}
}

func BenchmarkCompute(b *testing.B) {
	bars := benchBars(30)
	sym := models.Symbol{Code: "rb", Name: "螺纹钢", Exchange: models.SHFE}
	opts := DefaultOptions()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Compute(sym, bars, opts)
	}
}
