package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifenjoy/campaigns/internal/domain"
	"github.com/lifenjoy/campaigns/pkg/logger"
)

type stubCredentials struct {
	key, cx string
	err     error
}

func (s stubCredentials) GoogleCredentials(context.Context) (string, string, error) {
	return s.key, s.cx, s.err
}

type crawlerPages struct {
	google      string
	googleCode  int
	danawa      string
	ddg         string
	naver       string
	mu          sync.Mutex
	googleQuery map[string]string
}

func (p *crawlerPages) query() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.googleQuery
}

func setupCrawlerTest(t *testing.T, pages *crawlerPages, creds GoogleCredentialSource) *CrawlerService {
	mux := http.NewServeMux()
	mux.HandleFunc("/customsearch/v1", func(w http.ResponseWriter, r *http.Request) {
		q := map[string]string{}
		for k := range r.URL.Query() {
			q[k] = r.URL.Query().Get(k)
		}
		pages.mu.Lock()
		pages.googleQuery = q
		pages.mu.Unlock()
		if pages.googleCode != 0 {
			w.WriteHeader(pages.googleCode)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(pages.google))
	})
	mux.HandleFunc("/dsearch.php", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(pages.danawa))
	})
	mux.HandleFunc("/html/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(pages.ddg))
	})
	mux.HandleFunc("/search/all", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(pages.naver))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	svc := NewCrawlerService(CrawlerServiceConfig{
		HTTPClient:  server.Client(),
		Credentials: creds,
		Endpoints: &CrawlerEndpoints{
			GoogleSearch:  server.URL + "/customsearch/v1",
			Danawa:        server.URL + "/dsearch.php",
			DuckDuckGo:    server.URL + "/html/",
			NaverShopping: server.URL + "/search/all",
		},
		Logger: logger.NewTestLogger(t),
	})
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc
}

const googleResponse = `{"items":[{
	"title":"LG 퓨리케어 AS181DAW : 네이버 쇼핑",
	"snippet":"공기청정기",
	"pagemap":{
		"cse_image":[{"src":"//img.example.com/thumb.jpg?shrink=130:130"}],
		"metatags":[{"viewport":"width=device-width"},{"og:image":"https://img.example.com/og.jpg?type=w640"}],
		"offer":[{"price":"1290000"}]
	}
}]}`

const danawaPage = `<html><body>
<ul>
	<li class="prod_item product-pot"><p class="prod_name"><a>광고 상품</a></p></li>
	<li class="prod_item">
		<div class="thumb_image"><img src="//img.danawa.com/small.jpg" data-original="//img.danawa.com/prod/123.jpg?shrink=130:130"></div>
		<p class="prod_name"><a> LG전자 오브제 냉장고 M874GBB031 [정품] </a></p>
		<div class="prod_spec_set"> 양문형 / 870L </div>
	</li>
</ul></body></html>`

const ddgPage = `<html><body>
<div class="result__body">
	<h2 class="result__title">LG 스타일러 S5BB - 최저가 비교</h2>
	<a class="result__snippet">스타일러 가격 정보</a>
</div></body></html>`

const naverPage = `<html><body><script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"initialState":{"products":{"list":[{"item":{"imageUrl":"https://shopping-phinf.pstatic.net/main_1.jpg?type=f300"}}]}}}}}
</script></body></html>`

func TestCrawlerService_Google(t *testing.T) {
	pages := &crawlerPages{google: googleResponse}
	svc := setupCrawlerTest(t, pages, nil)

	result, err := svc.FetchProductInfo(context.Background(), testSession(), &domain.FetchProductInfoRequest{
		ModelName: "AS181DAW", GoogleAPIKey: "key", GoogleCx: "cx",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Product)

	p := result.Product
	assert.Equal(t, "LG 퓨리케어", p.Name)
	assert.Equal(t, "https://img.example.com/thumb.jpg", p.ThumbnailURL)
	assert.Equal(t, "https://img.example.com/og.jpg", p.DetailImageURL)
	assert.Equal(t, int64(1290000), p.Price)
	assert.Equal(t, "Google API", p.Source)
	assert.Equal(t, "General", p.Category)
	assert.Equal(t, int64(1700000000000), p.FetchedAt)
	assert.Equal(t, map[string]string{"key": "key", "cx": "cx", "q": "AS181DAW", "num": "1"}, pages.query())
}

func TestCrawlerService_StoredCredentials(t *testing.T) {
	pages := &crawlerPages{google: googleResponse}
	svc := setupCrawlerTest(t, pages, stubCredentials{key: "stored-key", cx: "stored-cx"})

	result, err := svc.FetchProductInfo(context.Background(), testSession(), &domain.FetchProductInfoRequest{ModelName: "AS181DAW"})
	require.NoError(t, err)
	require.NotNil(t, result.Product)
	assert.Equal(t, "stored-key", pages.query()["key"])
}

func TestCrawlerService_DanawaFallback(t *testing.T) {
	pages := &crawlerPages{googleCode: http.StatusForbidden, danawa: danawaPage}
	svc := setupCrawlerTest(t, pages, stubCredentials{key: "k", cx: "c"})

	result, err := svc.FetchProductInfo(context.Background(), testSession(), &domain.FetchProductInfoRequest{ModelName: "M874GBB031"})
	require.NoError(t, err)
	require.NotNil(t, result.Product)

	p := result.Product
	assert.Equal(t, "LG전자 오브제 냉장고", p.Name)
	assert.Equal(t, "https://img.danawa.com/prod/123.jpg", p.ThumbnailURL)
	assert.Equal(t, p.ThumbnailURL, p.DetailImageURL)
	assert.Equal(t, "양문형 / 870L", p.Description)
	assert.Equal(t, "Danawa", p.Source)
	assert.Contains(t, result.Logs, "[Google API] Skipped.")
	assert.Contains(t, result.Logs, "[Fallback] Searching Danawa...")
}

func TestCrawlerService_DuckDuckGoWithNaverImage(t *testing.T) {
	pages := &crawlerPages{danawa: "<html><body></body></html>", ddg: ddgPage, naver: naverPage}
	svc := setupCrawlerTest(t, pages, stubCredentials{err: errors.New("db down")})

	result, err := svc.FetchProductInfo(context.Background(), testSession(), &domain.FetchProductInfoRequest{ModelName: "S5BB"})
	require.NoError(t, err)
	require.NotNil(t, result.Product)

	p := result.Product
	assert.Equal(t, "LG 스타일러", p.Name)
	assert.Equal(t, "스타일러 가격 정보", p.Description)
	assert.Equal(t, "https://shopping-phinf.pstatic.net/main_1.jpg", p.ThumbnailURL)
	assert.Equal(t, "DuckDuckGo + Naver", p.Source)
}

func TestCrawlerService_NotFound(t *testing.T) {
	pages := &crawlerPages{}
	svc := setupCrawlerTest(t, pages, nil)

	result, err := svc.FetchProductInfo(context.Background(), testSession(), &domain.FetchProductInfoRequest{ModelName: "UNKNOWN-1"})
	require.NoError(t, err)
	assert.Nil(t, result.Product)
	assert.Equal(t, "Not Found", result.Error)
	assert.Equal(t, "[Start] Searching for: UNKNOWN-1", result.Logs[0])
}

func TestCrawlerService_Guards(t *testing.T) {
	svc := setupCrawlerTest(t, &crawlerPages{}, nil)

	_, err := svc.FetchProductInfo(context.Background(), nil, &domain.FetchProductInfoRequest{ModelName: "X"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.FetchProductInfo(context.Background(), testSession(), &domain.FetchProductInfoRequest{ModelName: "  "})
	assert.Error(t, err)
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		raw, model, want string
	}{
		{"LG 퓨리케어 AS181DAW : 네이버 쇼핑", "AS181DAW", "LG 퓨리케어"},
		{"[LG전자] 트롬 워시타워 W20WHN - 다나와", "W20WHN", "트롬 워시타워"},
		{"오브제 컬렉션 | LG전자", "", "오브제 컬렉션"},
		{"LG 그램 16Z90S (2024)", "16z90s", "LG 그램"},
		{"스탠바이미 Go...", "", "스탠바이미 Go"},
		{"- 모델명 -", "", "모델명"},
		{"", "X", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanTitle(tt.raw, tt.model), tt.raw)
	}
}

func TestHighResImageURL(t *testing.T) {
	assert.Equal(t, "", highResImageURL(""))
	assert.Equal(t, "https://img.example.com/a.jpg", highResImageURL("//img.example.com/a.jpg?shrink=130:130"))
	assert.Equal(t, "https://img.example.com/a.jpg", highResImageURL("https://img.example.com/a.jpg"))
}
