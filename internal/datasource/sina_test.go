package datasource

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/seenimoa/futuresagent/pkg/models"
	"github.com/seenimoa/futuresagent/pkg/utils"
)

const klineFixture = `/*<script>location.href='//sina.com';</script>*/
var _=([{"d":"2026-03-16","o":"3120.000","h":"3150.000","l":"3100.000","c":"3140.000","v":"1200000","p":"1800000","s":"3130.000"},
{"d":"2026-03-13","o":"3100.000","h":"3130.000","l":"3090.000","c":"3120.000","v":"1100000","p":"1790000","s":"3110.000"},
{"d":"2026-03-17","o":"3140.000","h":"3160.000","l":"3125.000","c":"3155.000","v":"1300000","p":"1810000","s":"3150.000"}]);`

// fixtureClock pins "now" to the close of the last fixture session.
func fixtureClock() time.Time {
	return time.Date(2026, 3, 17, 15, 30, 0, 0, utils.CST)
}

func newSinaServer(t *testing.T, hits *int32, opts ...SinaOption) (*httptest.Server, *Sina) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, sinaReferer, r.Header.Get("Referer"))
		switch r.URL.Path {
		case "/kline":
			if r.URL.Query().Get("symbol") == "RB0" {
				fmt.Fprint(w, klineFixture)
				return
			}
			fmt.Fprint(w, "var _=(null);")
		case "/hq":
			line := `var hq_str_nf_RB0="螺纹钢连续,145959,3140.000,3160.000,3125.000,0.000,3154.000,3155.000,3155.000,0.000,3130.000,120,80,1300000,1810000,沪,螺纹钢,2026-03-17,1";`
			gbk, err := simplifiedchinese.GBK.NewEncoder().String(line)
			assert.NoError(t, err)
			fmt.Fprint(w, gbk)
		}
	}))
	opts = append([]SinaOption{
		WithSinaEndpoints(srv.URL+"/kline?symbol=%s&_=%d", srv.URL+"/hq?list=nf_%s"),
		WithSinaClock(fixtureClock),
	}, opts...)
	return srv, NewSina(opts...)
}

func TestSinaDailyBars(t *testing.T) {
	var hits int32
	srv, s := newSinaServer(t, &hits)
	defer srv.Close()

	rb := models.Symbol{Code: "rb", Name: "螺纹钢", Exchange: models.SHFE}
	bars, err := s.DailyBars(context.Background(), rb, 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	// ordered oldest first, trimmed to the last two sessions
	assert.Equal(t, "2026-03-16", bars[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2026-03-17", bars[1].Date.Format("2006-01-02"))
	assert.Equal(t, 3155.0, bars[1].Close)
	assert.Equal(t, 1810000.0, bars[1].OpenInterest)
	assert.Equal(t, 3150.0, bars[1].Settle)
}

// ════════════════════════════════════════════════════════════════════
// Calendar window
// ════════════════════════════════════════════════════════════════════

func TestSinaDailyBarsStaleHistory(t *testing.T) {
	var hits int32
	// a year after the last fixture session: every bar is outside 30*1.5 days
	srv, s := newSinaServer(t, &hits, WithSinaClock(func() time.Time {
		return time.Date(2027, 3, 17, 15, 30, 0, 0, utils.CST)
	}))
	defer srv.Close()

	_, err := s.DailyBars(context.Background(), models.Symbol{Code: "rb"}, 30)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSinaDailyBarsPartialWindow(t *testing.T) {
	var hits int32
	// lookback 4 from 03-21 keeps sessions on or after 03-15
	srv, s := newSinaServer(t, &hits, WithSinaClock(func() time.Time {
		return time.Date(2026, 3, 21, 10, 0, 0, 0, utils.CST)
	}))
	defer srv.Close()

	bars, err := s.DailyBars(context.Background(), models.Symbol{Code: "rb"}, 4)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "2026-03-16", bars[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2026-03-17", bars[1].Date.Format("2006-01-02"))
}

func TestSinaDailyBarsRejectsNonFinite(t *testing.T) {
	raw := `var _=([{"d":"2026-03-17","o":"3140","h":"3160","l":"3125","c":"NaN","v":"1","p":"1","s":"3150"}]);`
	_, err := parseSinaKLine([]byte(raw))
	assert.ErrorContains(t, err, "not finite")

	raw = `var _=([{"d":"2026-03-17","o":"3140","h":"+Inf","l":"3125","c":"3155","v":"1","p":"1","s":"3150"}]);`
	_, err = parseSinaKLine([]byte(raw))
	assert.ErrorContains(t, err, "not finite")
}

func TestSinaDailyBarsNoData(t *testing.T) {
	var hits int32
	srv, s := newSinaServer(t, &hits)
	defer srv.Close()

	cu := models.Symbol{Code: "cu", Name: "铜", Exchange: models.SHFE}
	_, err := s.DailyBars(context.Background(), cu, 30)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSinaQuoteCommodity(t *testing.T) {
	var hits int32
	srv, s := newSinaServer(t, &hits)
	defer srv.Close()

	rb := models.Symbol{Code: "rb", Name: "螺纹钢", Exchange: models.SHFE}
	q, err := s.Quote(context.Background(), rb)
	require.NoError(t, err)
	assert.Equal(t, "螺纹钢连续", q.Name)
	assert.Equal(t, 3155.0, q.Last)
	assert.Equal(t, 3130.0, q.PreSettle)
	assert.InDelta(t, 25.0, q.Change, 1e-9)
	assert.Equal(t, 1300000.0, q.Volume)
	assert.Equal(t, 1810000.0, q.OpenInterest)
	assert.Equal(t, "2026-03-17 14:59:59", q.Time.Format("2006-01-02 15:04:05"))
}

func TestSinaCache(t *testing.T) {
	var hits int32
	srv, _ := newSinaServer(t, &hits)
	defer srv.Close()

	s := NewSina(
		WithSinaEndpoints(srv.URL+"/kline?symbol=%s&_=%d", srv.URL+"/hq?list=nf_%s"),
		WithSinaCache(NewCache(time.Minute)),
		WithSinaClock(fixtureClock),
	)
	rb := models.Symbol{Code: "rb"}
	for i := 0; i < 2; i++ {
		_, err := s.DailyBars(context.Background(), rb, 30)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestParseSinaQuoteIndexLayout(t *testing.T) {
	fields := make([]string, 40)
	for i := range fields {
		fields[i] = "0"
	}
	fields[0], fields[1], fields[2], fields[3] = "3900.0", "3950.0", "3880.0", "3940.0"
	fields[4], fields[6], fields[9] = "85000", "210000", "3920.0"
	fields[37], fields[38], fields[39] = "2026-03-17", "15:00:00", "沪深300指数期货"

	content := ""
	for i, f := range fields {
		if i > 0 {
			content += ","
		}
		content += f
	}
	q, err := parseSinaQuote(models.Symbol{Code: "if"}, content)
	require.NoError(t, err)
	assert.Equal(t, "沪深300指数期货", q.Name)
	assert.Equal(t, 3940.0, q.Last)
	assert.Equal(t, 210000.0, q.OpenInterest)
	assert.InDelta(t, 20.0, q.Change, 1e-9)
}

func TestFetchMarketViewValidatesFirst(t *testing.T) {
	var hits int32
	srv, s := newSinaServer(t, &hits)
	defer srv.Close()

	_, err := FetchMarketView(context.Background(), s, "nope", 30)
	assert.ErrorIs(t, err, ErrUnsupportedSymbol)
	assert.Zero(t, atomic.LoadInt32(&hits), "no request may be sent for an unsupported symbol")

	view, err := FetchMarketView(context.Background(), s, "rb", 30)
	require.NoError(t, err)
	assert.Len(t, view.Bars, 3)
	require.NotNil(t, view.Quote)
	assert.NotEmpty(t, view.Status)
}
