package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/lifenjoy/campaigns/internal/domain"
	"github.com/lifenjoy/campaigns/pkg/logger"
	"github.com/lifenjoy/campaigns/pkg/tracing"
)

const (
	defaultCrawlerUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxCrawlBody            = 5 << 20

	sourceGoogle     = "Google API"
	sourceDanawa     = "Danawa"
	sourceDuckDuckGo = "DuckDuckGo"
	sourceNaver      = "Naver"

	crawlErrNotFound = "Not Found"
)

// CrawlerEndpoints are the search pages queried, in order, for a model name.
type CrawlerEndpoints struct {
	GoogleSearch  string
	Danawa        string
	DuckDuckGo    string
	NaverShopping string
}

var DefaultCrawlerEndpoints = CrawlerEndpoints{
	GoogleSearch:  "https://www.googleapis.com/customsearch/v1",
	Danawa:        "https://search.danawa.com/dsearch.php",
	DuckDuckGo:    "https://html.duckduckgo.com/html/",
	NaverShopping: "https://search.shopping.naver.com/search/all",
}

// GoogleCredentialSource supplies stored custom search credentials.
type GoogleCredentialSource interface {
	GoogleCredentials(ctx context.Context) (apiKey, cx string, err error)
}

// CrawlerService looks up product details for a model name. Sources are tried
// in order until one yields a product; a missing image is filled from Naver.
type CrawlerService struct {
	client      *http.Client
	credentials GoogleCredentialSource
	endpoints   CrawlerEndpoints
	userAgent   string
	logger      logger.Logger
	now         func() time.Time
}

type CrawlerServiceConfig struct {
	HTTPClient  *http.Client
	Credentials GoogleCredentialSource
	Endpoints   *CrawlerEndpoints
	UserAgent   string
	Timeout     time.Duration
	Logger      logger.Logger
}

var _ domain.CrawlerService = (*CrawlerService)(nil)

func NewCrawlerService(cfg CrawlerServiceConfig) *CrawlerService {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = tracing.HTTPClient(timeout)
	}
	endpoints := DefaultCrawlerEndpoints
	if cfg.Endpoints != nil {
		endpoints = *cfg.Endpoints
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultCrawlerUserAgent
	}
	return &CrawlerService{
		client:      client,
		credentials: cfg.Credentials,
		endpoints:   endpoints,
		userAgent:   userAgent,
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// crawl carries the log lines of one lookup back to the caller.
type crawl struct {
	model  string
	lines  []string
	logger logger.Logger
}

func (c *crawl) log(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	c.lines = append(c.lines, line)
	c.logger.WithField("model", c.model).Debug(line)
}

func (s *CrawlerService) FetchProductInfo(ctx context.Context, session *domain.Session, req *domain.FetchProductInfoRequest) (*domain.FetchProductInfoResult, error) {
	if err := domain.RequireSession(session); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	ctx, span := tracing.StartSpan(ctx, "CrawlerService", "FetchProductInfo")
	defer span.End()
	tracing.AddAttribute(ctx, "product.model", req.ModelName)

	c := &crawl{model: req.ModelName, logger: s.logger}
	c.log("[Start] Searching for: %s", req.ModelName)

	apiKey, cx := req.GoogleAPIKey, req.GoogleCx
	if (apiKey == "" || cx == "") && s.credentials != nil {
		storedKey, storedCx, err := s.credentials.GoogleCredentials(ctx)
		if err != nil {
			s.logger.WithField("error", err.Error()).Warn("Failed to load search credentials")
		} else {
			apiKey, cx = storedKey, storedCx
		}
	}

	var product *domain.ProductInfo
	if apiKey != "" && cx != "" {
		p, err := s.searchGoogle(ctx, req.ModelName, apiKey, cx)
		if err != nil {
			c.log("[Google API] Skipped.")
		}
		product = p
	}

	if product == nil {
		c.log("[Fallback] Searching Danawa...")
		p, err := s.searchDanawa(ctx, req.ModelName)
		switch {
		case err != nil:
			c.log("[Danawa] Error: %s", err.Error())
		case p != nil:
			c.log("[Danawa] Success: %s", p.Name)
		}
		product = p
	}

	if product == nil {
		c.log("[Fallback] Searching DuckDuckGo...")
		p, err := s.searchDuckDuckGo(ctx, req.ModelName)
		if err != nil {
			s.logger.WithField("model", req.ModelName).WithField("error", err.Error()).Debug("DuckDuckGo search failed")
		}
		product = p
	}

	if product != nil && product.ThumbnailURL == "" {
		image, err := s.naverImage(ctx, req.ModelName)
		if err != nil {
			s.logger.WithField("model", req.ModelName).WithField("error", err.Error()).Debug("Naver image lookup failed")
		}
		if image != "" {
			product.ThumbnailURL = image
			product.DetailImageURL = image
			product.Source += " + " + sourceNaver
		}
	}

	if product == nil {
		tracing.AddAttribute(ctx, "product.found", false)
		return &domain.FetchProductInfoResult{Error: crawlErrNotFound, Logs: c.lines}, nil
	}

	product.FetchedAt = s.now().UnixMilli()
	tracing.AddAttribute(ctx, "product.source", product.Source)
	return &domain.FetchProductInfoResult{Product: product, Logs: c.lines}, nil
}

func (s *CrawlerService) newProduct(model, name, description, image, source string) *domain.ProductInfo {
	return &domain.ProductInfo{
		ModelName:      model,
		Name:           cleanTitle(name, model),
		ThumbnailURL:   image,
		DetailImageURL: image,
		Category:       "General",
		Description:    strings.TrimSpace(description),
		Source:         source,
	}
}

func (s *CrawlerService) searchGoogle(ctx context.Context, model, apiKey, cx string) (*domain.ProductInfo, error) {
	query := url.Values{}
	query.Set("key", apiKey)
	query.Set("cx", cx)
	query.Set("q", model)
	query.Set("num", "1")

	body, err := s.get(ctx, s.endpoints.GoogleSearch+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	item := gjson.GetBytes(body, "items.0")
	if !item.Exists() {
		return nil, nil
	}

	thumbnail := item.Get("pagemap.cse_image.0.src").String()
	detail := ""
	for _, tag := range item.Get("pagemap.metatags").Array() {
		if v, ok := tag.Map()["og:image"]; ok && v.String() != "" {
			detail = v.String()
			break
		}
	}
	if detail == "" {
		detail = thumbnail
	}
	thumbnail = highResImageURL(thumbnail)
	if thumbnail == "" {
		return nil, nil
	}

	product := s.newProduct(model, item.Get("title").String(), item.Get("snippet").String(), thumbnail, sourceGoogle)
	product.DetailImageURL = highResImageURL(detail)
	product.Price = int64(item.Get("pagemap.offer.0.price").Float())
	return product, nil
}

func (s *CrawlerService) searchDanawa(ctx context.Context, model string) (*domain.ProductInfo, error) {
	doc, err := s.getDocument(ctx, s.endpoints.Danawa+"?k1="+url.QueryEscape(model), map[string]string{
		"Accept":  "text/html,application/xhtml+xml,image/webp,*/*",
		"Referer": "https://www.danawa.com/",
	})
	if err != nil {
		return nil, err
	}

	item := doc.Find(".prod_item").Not(".product-pot").Not(".no_item").First()
	if item.Length() == 0 {
		return nil, nil
	}
	name := strings.TrimSpace(item.Find(".prod_name a").First().Text())
	img := item.Find(".thumb_image img").First()
	src, ok := img.Attr("data-original")
	if !ok || src == "" {
		src, _ = img.Attr("src")
	}
	src = highResImageURL(src)
	if name == "" || src == "" {
		return nil, nil
	}
	return s.newProduct(model, name, item.Find(".prod_spec_set").First().Text(), src, sourceDanawa), nil
}

func (s *CrawlerService) searchDuckDuckGo(ctx context.Context, model string) (*domain.ProductInfo, error) {
	doc, err := s.getDocument(ctx, s.endpoints.DuckDuckGo+"?q="+url.QueryEscape(model+" 가격"), nil)
	if err != nil {
		return nil, err
	}
	result := doc.Find(".result__body").First()
	if result.Length() == 0 {
		return nil, nil
	}
	title := strings.TrimSpace(result.Find(".result__title").Text())
	return s.newProduct(model, title, result.Find(".result__snippet").Text(), "", sourceDuckDuckGo), nil
}

// naverImage reads the first product image from the shopping page's embedded state.
func (s *CrawlerService) naverImage(ctx context.Context, model string) (string, error) {
	doc, err := s.getDocument(ctx, s.endpoints.NaverShopping+"?query="+url.QueryEscape(model), nil)
	if err != nil {
		return "", err
	}
	data := doc.Find("#__NEXT_DATA__").First().Text()
	if data == "" {
		return "", nil
	}
	image := gjson.Get(data, "props.pageProps.initialState.products.list.0.item.imageUrl").String()
	return highResImageURL(image), nil
}

func (s *CrawlerService) getDocument(ctx context.Context, rawURL string, headers map[string]string) (*goquery.Document, error) {
	body, err := s.get(ctx, rawURL, headers)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, nil
}

func (s *CrawlerService) get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status code %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxCrawlBody))
}

var titleNoise = []*regexp.Regexp{
	regexp.MustCompile(` : .*$`),
	regexp.MustCompile(` - .*$`),
	regexp.MustCompile(` \| .*$`),
	regexp.MustCompile(`\.\.\.$`),
	regexp.MustCompile(`\(.*\)$`),
	regexp.MustCompile(`\[.*?\]`),
}

var titleEdges = regexp.MustCompile(`^[\s\-_]+|[\s\-_]+$`)

// cleanTitle strips site suffixes, bracketed tags and the model name itself
// from a search result title.
func cleanTitle(raw, model string) string {
	if raw == "" {
		return ""
	}
	cleaned := raw
	for _, re := range titleNoise {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.TrimSpace(cleaned)
	if model != "" {
		modelRe := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(model))
		cleaned = strings.TrimSpace(modelRe.ReplaceAllString(cleaned, ""))
	}
	return titleEdges.ReplaceAllString(cleaned, "")
}

// highResImageURL drops resize parameters and makes protocol-relative URLs absolute.
func highResImageURL(u string) string {
	if u == "" {
		return ""
	}
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	}
	if i := strings.Index(u, "?"); i >= 0 {
		u = u[:i]
	}
	return u
}
