package campaign_page

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/osteele/liquid"
)

const (
	// Brand is shown in the page footer.
	Brand = "LG B2B Platform"

	// NotFoundTitle is the document title of the missing campaign page.
	NotFoundTitle = "Campaign Not Found"

	// MaxBodySize bounds the rendered campaign markup inserted into the shell.
	MaxBodySize = 5 * 1024 * 1024
)

//go:embed templates/page.liquid
var pageTemplate string

//go:embed templates/not_found.liquid
var notFoundTemplate string

//go:embed templates/page.css
var stylesheet string

// Page is the data of one public campaign document.
type Page struct {
	Title        string
	Description  string
	ImageURL     string
	CanonicalURL string
	// Body is trusted markup produced by the block renderer.
	Body string
}

// Renderer wraps rendered campaign markup in a complete HTML document with
// social preview metadata.
type Renderer struct {
	page     *liquid.Template
	notFound *liquid.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	engine := liquid.NewEngine()

	page, err := engine.ParseString(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	notFound, err := engine.ParseString(notFoundTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse not found template: %w", err)
	}

	return &Renderer{page: page, notFound: notFound}, nil
}

// Render returns the full document for p.
func (r *Renderer) Render(p Page) (string, error) {
	if len(p.Body) > MaxBodySize {
		return "", fmt.Errorf("page body size (%d bytes) exceeds maximum allowed size (%d bytes)", len(p.Body), MaxBodySize)
	}

	out, err := r.page.RenderString(liquid.Bindings{
		"title":         p.Title,
		"description":   p.Description,
		"image_url":     optional(p.ImageURL),
		"canonical_url": optional(p.CanonicalURL),
		"body":          p.Body,
		"brand":         Brand,
		"stylesheet":    stylesheet,
	})
	if err != nil {
		return "", fmt.Errorf("liquid rendering failed: %w", err)
	}
	return out, nil
}

// RenderNotFound returns the document shown for a missing campaign.
func (r *Renderer) RenderNotFound(message string) (string, error) {
	out, err := r.notFound.RenderString(liquid.Bindings{
		"title":      NotFoundTitle,
		"message":    message,
		"stylesheet": stylesheet,
	})
	if err != nil {
		return "", fmt.Errorf("liquid rendering failed: %w", err)
	}
	return out, nil
}

// optional maps blank strings to nil so that liquid treats them as falsy.
func optional(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
