package datasource

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/futuresagent/pkg/models"
	"github.com/seenimoa/futuresagent/pkg/utils"
)

// MarketView is the price picture of one symbol: history plus realtime quote.
type MarketView struct {
	Symbol models.Symbol  `json:"symbol"`
	Bars   []models.OHLCV `json:"bars"`
	Quote  *models.Quote  `json:"quote,omitempty"`
	Status string         `json:"market_status"`
	Errors []string       `json:"errors,omitempty"`
}

// FetchMarketView validates code and fetches bars and quote concurrently.
// A quote failure is non-fatal; a bars failure is returned as the error.
func FetchMarketView(ctx context.Context, md MarketData, code string, lookback int) (*MarketView, error) {
	sym, err := Lookup(code)
	if err != nil {
		return nil, err
	}

	view := &MarketView{
		Symbol: sym,
		Status: utils.MarketStatus(utils.NowCST(), sym.Financial()),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		bars, err := md.DailyBars(gctx, sym, lookback)
		if err != nil {
			return fmt.Errorf("bars: %w", err)
		}
		mu.Lock()
		view.Bars = bars
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		q, err := md.Quote(gctx, sym)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			view.Errors = append(view.Errors, fmt.Sprintf("quote: %v", err))
			return nil // non-fatal
		}
		view.Quote = q
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}
