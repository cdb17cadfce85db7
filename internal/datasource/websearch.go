package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/seenimoa/futuresagent/pkg/models"
	"github.com/seenimoa/futuresagent/pkg/utils"
)

// DefaultZhipuURL is the Zhipu (BigModel) web-search endpoint.
const DefaultZhipuURL = "https://open.bigmodel.cn/api/paas/v4/web_search"

// ZhipuSearch queries the Zhipu web-search API.
type ZhipuSearch struct {
	apiKey  string
	url     string
	engine  string
	recency string
	limiter *RateLimiter
}

// ZhipuConfig configures a ZhipuSearch client.
type ZhipuConfig struct {
	APIKey  string
	URL     string // defaults to DefaultZhipuURL
	Engine  string // search_std, search_pro, ...
	Recency string // oneDay, oneWeek, oneMonth, oneYear, noLimit
}

// NewZhipuSearch creates a web-search client.
func NewZhipuSearch(cfg ZhipuConfig) *ZhipuSearch {
	if cfg.URL == "" {
		cfg.URL = DefaultZhipuURL
	}
	if cfg.Engine == "" {
		cfg.Engine = "search_std"
	}
	return &ZhipuSearch{
		apiKey:  cfg.APIKey,
		url:     cfg.URL,
		engine:  cfg.Engine,
		recency: cfg.Recency,
		limiter: NewRateLimiter(5, time.Second),
	}
}

// Name returns the searcher name.
func (z *ZhipuSearch) Name() string { return "zhipu" }

type zhipuRequest struct {
	SearchQuery   string `json:"search_query"`
	SearchEngine  string `json:"search_engine"`
	Count         int    `json:"count,omitempty"`
	RecencyFilter string `json:"search_recency_filter,omitempty"`
}

type zhipuResponse struct {
	SearchResult []struct {
		Title       string `json:"title"`
		Content     string `json:"content"`
		Link        string `json:"link"`
		Media       string `json:"media"`
		Refer       string `json:"refer"`
		PublishDate string `json:"publish_date"`
	} `json:"search_result"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Search runs a single query. No retries.
func (z *ZhipuSearch) Search(ctx context.Context, query string, limit int) ([]models.NewsItem, error) {
	if z.apiKey == "" {
		return nil, fmt.Errorf("zhipu search: %w", ErrNoAPIKey)
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	if err := z.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := zhipuRequest{
		SearchQuery:   query,
		SearchEngine:  z.engine,
		Count:         limit,
		RecencyFilter: z.recency,
	}
	body, _, err := doPostJSON(ctx, z.url, map[string]string{"Authorization": "Bearer " + z.apiKey}, req)
	if err != nil {
		return nil, fmt.Errorf("zhipu search: %w", err)
	}
	defer body.Close()

	var resp zhipuResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("zhipu search: decode: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("zhipu search: %s %s", resp.Error.Code, resp.Error.Message)
	}

	items := make([]models.NewsItem, 0, len(resp.SearchResult))
	for _, r := range resp.SearchResult {
		source := r.Media
		if source == "" {
			source = hostOf(r.Link)
		}
		items = append(items, models.NewsItem{
			Title:       strings.TrimSpace(r.Title),
			Source:      source,
			URL:         r.Link,
			Snippet:     cleanHTML(r.Content),
			PublishedAt: parsePublishDate(r.PublishDate),
		})
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func parsePublishDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, utils.CST); err == nil {
			return t
		}
	}
	return time.Time{}
}

func hostOf(link string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(link, "https://"), "http://")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return s
}
