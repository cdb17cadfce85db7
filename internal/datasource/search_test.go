package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/futuresagent/pkg/models"
)

func TestZhipuSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req zhipuRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "螺纹钢期货 最新消息", req.SearchQuery)
		assert.Equal(t, "search_std", req.SearchEngine)
		assert.Equal(t, 5, req.Count)

		fmt.Fprint(w, `{"search_result":[
			{"title":"螺纹钢期货震荡走强","content":"<p>钢厂减产</p>","link":"https://news.example.com/a/1","media":"财联社","publish_date":"2026-03-17"},
			{"title":"铁矿石下跌","content":"库存上升","link":"https://www.example.org/b","media":"","publish_date":"bad"}
		]}`)
	}))
	defer srv.Close()

	z := NewZhipuSearch(ZhipuConfig{APIKey: "test-key", URL: srv.URL})
	items, err := z.Search(context.Background(), "螺纹钢期货 最新消息", 5)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "螺纹钢期货震荡走强", items[0].Title)
	assert.Equal(t, "财联社", items[0].Source)
	assert.Equal(t, "钢厂减产", items[0].Snippet)
	assert.Equal(t, 2026, items[0].PublishedAt.Year())
	assert.Equal(t, "www.example.org", items[1].Source)
	assert.True(t, items[1].PublishedAt.IsZero())
	assert.Empty(t, items[0].Polarity, "polarity is left for the LLM")
}

func TestZhipuSearchNoKey(t *testing.T) {
	z := NewZhipuSearch(ZhipuConfig{})
	_, err := z.Search(context.Background(), "q", 5)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>News Search</title>
<item><title>沪铜创新高 - 上海证券报</title><link>https://example.com/1</link>
<description>&lt;a href="#"&gt;铜价&lt;/a&gt; 继续上涨</description>
<pubDate>Mon, 16 Mar 2026 08:00:00 GMT</pubDate></item>
<item><title>铜库存下降</title><link>https://example.com/2</link>
<description>LME库存</description>
<pubDate>Tue, 17 Mar 2026 08:00:00 GMT</pubDate></item>
</channel></rss>`

func TestRSSSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "铜 期货", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssFixture)
	}))
	defer srv.Close()

	rs := NewRSSSearch(srv.URL + "/rss?q=%s")
	items, err := rs.Search(context.Background(), "铜 期货", 10)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// newest first
	assert.Equal(t, "铜库存下降", items[0].Title)
	assert.Equal(t, "News Search", items[0].Source)
	assert.Equal(t, "沪铜创新高", items[1].Title)
	assert.Equal(t, "上海证券报", items[1].Source)
	assert.Equal(t, "铜价 继续上涨", items[1].Snippet)
}

type stubSearcher struct {
	name  string
	items []models.NewsItem
	err   error
	calls int
}

func (s *stubSearcher) Name() string { return s.name }

func (s *stubSearcher) Search(_ context.Context, _ string, _ int) ([]models.NewsItem, error) {
	s.calls++
	return s.items, s.err
}

func TestFallbackSearcher(t *testing.T) {
	failing := &stubSearcher{name: "a", err: errors.New("boom")}
	empty := &stubSearcher{name: "b"}
	good := &stubSearcher{name: "c", items: []models.NewsItem{{Title: "x"}}}
	unused := &stubSearcher{name: "d", items: []models.NewsItem{{Title: "y"}}}

	fs := NewFallbackSearcher(failing, nil, empty, good, unused)
	assert.Equal(t, "a>b>c>d", fs.Name())

	items, err := fs.Search(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.Equal(t, "x", items[0].Title)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, empty.calls)
	assert.Zero(t, unused.calls)

	_, err = NewFallbackSearcher(failing).Search(context.Background(), "q", 3)
	assert.Error(t, err)
}

func TestCleanHTML(t *testing.T) {
	assert.Equal(t, "hello world", cleanHTML("<b>hello</b> world"))
	assert.Equal(t, "plain", cleanHTML("  plain "))
	assert.Equal(t, "", cleanHTML(""))
}
