package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/seenimoa/futuresagent/pkg/models"
	"github.com/seenimoa/futuresagent/pkg/utils"
)

const (
	sinaKLineURL = "https://stock2.finance.sina.com.cn/futures/api/jsonp.php/var=/InnerFuturesNewService.getDailyKLine?symbol=%s&_=%d"
	sinaQuoteURL = "https://hq.sinajs.cn/list=nf_%s"
	sinaReferer  = "https://finance.sina.com.cn/"
)

// Sina fetches futures data from Sina Finance public endpoints.
type Sina struct {
	klineURL string
	quoteURL string
	limiter  *RateLimiter
	cache    *Cache
	now      func() time.Time
}

// SinaOption configures a Sina source.
type SinaOption func(*Sina)

// WithSinaEndpoints overrides the kline and quote URL formats. Each format
// takes the Sina contract code; the kline format also takes a timestamp.
func WithSinaEndpoints(klineURL, quoteURL string) SinaOption {
	return func(s *Sina) {
		s.klineURL = klineURL
		s.quoteURL = quoteURL
	}
}

// WithSinaCache keeps responses in memory for the cache TTL.
// Report runs do not use it.
func WithSinaCache(c *Cache) SinaOption {
	return func(s *Sina) { s.cache = c }
}

// WithSinaClock sets the clock that anchors the lookback window.
func WithSinaClock(now func() time.Time) SinaOption {
	return func(s *Sina) { s.now = now }
}

// NewSina creates a Sina source.
func NewSina(opts ...SinaOption) *Sina {
	s := &Sina{
		klineURL: sinaKLineURL,
		quoteURL: sinaQuoteURL,
		limiter:  NewRateLimiter(3, time.Second),
		now:      utils.NowCST,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Name returns the data source name.
func (s *Sina) Name() string { return "Sina Finance" }

// sinaBar is one kline row; Sina encodes numbers as strings.
type sinaBar struct {
	D string    `json:"d"`
	O flexFloat `json:"o"`
	H flexFloat `json:"h"`
	L flexFloat `json:"l"`
	C flexFloat `json:"c"`
	V flexFloat `json:"v"`
	P flexFloat `json:"p"` // open interest
	S flexFloat `json:"s"` // settlement
}

// flexFloat decodes a JSON number or numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("parse number %q: not finite", s)
	}
	*f = flexFloat(v)
	return nil
}

// DailyBars returns the last `lookback` daily sessions of the main contract
// that fall within lookback*1.5 calendar days of now.
func (s *Sina) DailyBars(ctx context.Context, sym models.Symbol, lookback int) ([]models.OHLCV, error) {
	code := SinaCode(sym)
	cacheKey := "kline:" + code
	var bars []models.OHLCV

	if cached, ok := s.cacheGet(cacheKey); ok {
		bars = cached.([]models.OHLCV)
	} else {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		url := fmt.Sprintf(s.klineURL, code, time.Now().UnixMilli())
		body, _, err := doGet(ctx, url, map[string]string{"Referer": sinaReferer})
		if err != nil {
			return nil, fmt.Errorf("sina kline %s: %w", code, err)
		}
		defer body.Close()

		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("sina kline %s: read: %w", code, err)
		}
		bars, err = parseSinaKLine(raw)
		if err != nil {
			return nil, fmt.Errorf("sina kline %s: %w", code, err)
		}
		s.cacheSet(cacheKey, bars)
	}

	if lookback > 0 {
		bars = recentBars(bars, s.now().AddDate(0, 0, -lookback*3/2))
		if len(bars) > lookback {
			bars = bars[len(bars)-lookback:]
		}
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("sina kline %s: %w", code, ErrNoData)
	}
	out := make([]models.OHLCV, len(bars))
	copy(out, bars)
	return out, nil
}

// recentBars returns the date-ordered bars on or after the cutoff day.
func recentBars(bars []models.OHLCV, cutoff time.Time) []models.OHLCV {
	y, m, d := cutoff.In(utils.CST).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, utils.CST)
	i := sort.Search(len(bars), func(i int) bool { return !bars[i].Date.Before(day) })
	return bars[i:]
}

// parseSinaKLine extracts the JSON array from the JSONP wrapper and
// returns sessions ordered by date.
func parseSinaKLine(data []byte) ([]models.OHLCV, error) {
	text := string(data)
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, ErrNoData
	}

	var rows []sinaBar
	if err := json.Unmarshal([]byte(text[start:end+1]), &rows); err != nil {
		return nil, fmt.Errorf("decode kline: %w", err)
	}

	bars := make([]models.OHLCV, 0, len(rows))
	for _, r := range rows {
		d, err := time.ParseInLocation("2006-01-02", r.D, utils.CST)
		if err != nil {
			continue
		}
		bars = append(bars, models.OHLCV{
			Date:         d,
			Open:         float64(r.O),
			High:         float64(r.H),
			Low:          float64(r.L),
			Close:        float64(r.C),
			Volume:       float64(r.V),
			OpenInterest: float64(r.P),
			Settle:       float64(r.S),
		})
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

var hqLine = regexp.MustCompile(`var hq_str_(\w+)="([^"]*)"`)

// Quote returns a realtime snapshot of the main contract.
func (s *Sina) Quote(ctx context.Context, sym models.Symbol) (*models.Quote, error) {
	code := SinaCode(sym)
	if cached, ok := s.cacheGet("quote:" + code); ok {
		q := *cached.(*models.Quote)
		return &q, nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, _, err := doGet(ctx, fmt.Sprintf(s.quoteURL, code), map[string]string{"Referer": sinaReferer})
	if err != nil {
		return nil, fmt.Errorf("sina quote %s: %w", code, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(transform.NewReader(body, simplifiedchinese.GBK.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("sina quote %s: read: %w", code, err)
	}

	m := hqLine.FindStringSubmatch(string(raw))
	if len(m) < 3 || m[2] == "" {
		return nil, fmt.Errorf("sina quote %s: %w", code, ErrNoData)
	}
	q, err := parseSinaQuote(sym, m[2])
	if err != nil {
		return nil, fmt.Errorf("sina quote %s: %w", code, err)
	}
	s.cacheSetTTL("quote:"+code, q, 5*time.Second)
	return q, nil
}

// parseSinaQuote handles both layouts. Index futures start with a number
// and carry the name in the last field; commodities start with the name.
func parseSinaQuote(sym models.Symbol, content string) (*models.Quote, error) {
	fields := strings.Split(content, ",")
	if len(fields) < 15 {
		return nil, fmt.Errorf("expected at least 15 fields, got %d", len(fields))
	}

	q := &models.Quote{Code: sym.Code}
	if _, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64); err == nil {
		q.Name = fields[len(fields)-1]
		q.Open = parseNum(fields[0])
		q.High = parseNum(fields[1])
		q.Low = parseNum(fields[2])
		q.Last = parseNum(fields[3])
		q.Volume = parseNum(fields[4])
		q.OpenInterest = parseNum(fields[6])
		q.PreSettle = parseNum(fields[9])
		if len(fields) > 38 {
			q.Time = parseQuoteTime(fields[37], fields[38])
		}
	} else {
		q.Name = fields[0]
		q.Open = parseNum(fields[2])
		q.High = parseNum(fields[3])
		q.Low = parseNum(fields[4])
		q.Bid = parseNum(fields[6])
		q.Ask = parseNum(fields[7])
		q.Last = parseNum(fields[8])
		q.PreSettle = parseNum(fields[10])
		q.BidVolume = parseNum(fields[11])
		q.AskVolume = parseNum(fields[12])
		q.Volume = parseNum(fields[13])
		q.OpenInterest = parseNum(fields[14])
		if len(fields) > 17 {
			q.Time = parseQuoteTime(fields[17], fields[1])
		}
	}
	if q.Time.IsZero() {
		q.Time = utils.NowCST()
	}
	if q.PreSettle > 0 {
		q.Change = q.Last - q.PreSettle
		q.ChangePct = q.Change / q.PreSettle * 100
	}
	return q, nil
}

// parseQuoteTime accepts "2006-01-02" with "15:04:05" or "150405".
func parseQuoteTime(date, clock string) time.Time {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 150405"} {
		if t, err := time.ParseInLocation(layout, date+" "+clock, utils.CST); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation("2006-01-02", date, utils.CST); err == nil {
		return t
	}
	return time.Time{}
}

func parseNum(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func (s *Sina) cacheGet(key string) (any, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(key)
}

func (s *Sina) cacheSet(key string, v any) {
	if s.cache != nil {
		s.cache.Set(key, v)
	}
}

func (s *Sina) cacheSetTTL(key string, v any, ttl time.Duration) {
	if s.cache != nil {
		s.cache.SetWithTTL(key, v, ttl)
	}
}
