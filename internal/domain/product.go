package domain

import (
	"context"
	"fmt"
	"strings"
)

//go:generate mockgen -destination mocks/mock_crawler_service.go -package mocks github.com/lifenjoy/campaigns/internal/domain CrawlerService

// ProductInfo is a best-effort product record scraped for a model name.
type ProductInfo struct {
	ModelName      string `json:"modelName"`
	Name           string `json:"name"`
	Price          int64  `json:"price"`
	ThumbnailURL   string `json:"thumbnailUrl"`
	DetailImageURL string `json:"detailImageUrl"`
	Category       string `json:"category"`
	Description    string `json:"description"`
	FetchedAt      int64  `json:"fetchedAt"`
	Source         string `json:"source"`
}

type FetchProductInfoRequest struct {
	ModelName string `json:"modelName"`
	// Google credentials override the stored settings when provided.
	GoogleAPIKey string `json:"googleApiKey,omitempty"`
	GoogleCx     string `json:"googleCx,omitempty"`
}

func (r *FetchProductInfoRequest) Validate() error {
	r.ModelName = strings.TrimSpace(r.ModelName)
	if r.ModelName == "" {
		return fmt.Errorf("invalid fetch product info request: modelName is required")
	}
	if len(r.ModelName) > 100 {
		return fmt.Errorf("invalid fetch product info request: modelName is too long")
	}
	return nil
}

// FetchProductInfoResult carries either a product or an error label with the crawl log.
type FetchProductInfoResult struct {
	Product *ProductInfo `json:"product,omitempty"`
	Error   string       `json:"error,omitempty"`
	Logs    []string     `json:"logs,omitempty"`
}

type CrawlerService interface {
	FetchProductInfo(ctx context.Context, session *Session, req *FetchProductInfoRequest) (*FetchProductInfoResult, error)
}
