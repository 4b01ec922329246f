package campaign_page

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.Render(Page{
		Title:        "봄 맞이 <특가>",
		Description:  `가전 "구독" 캠페인`,
		ImageURL:     "https://cdn.example.com/og.png?a=1&b=2",
		CanonicalURL: "https://campaigns.example.com/c/spring",
		Body:         `<div class="cb-document"><p>hello</p></div>`,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>봄 맞이 &lt;특가&gt;</title>")
	assert.Contains(t, out, `<meta property="og:title" content="봄 맞이 &lt;특가&gt;">`)
	assert.Contains(t, out, `<meta property="og:description" content="가전 &#34;구독&#34; 캠페인">`)
	assert.Contains(t, out, `<meta property="og:image" content="https://cdn.example.com/og.png?a=1&amp;b=2">`)
	assert.Contains(t, out, `<meta name="twitter:image" content="https://cdn.example.com/og.png?a=1&amp;b=2">`)
	assert.Contains(t, out, `<meta property="og:url" content="https://campaigns.example.com/c/spring">`)
	assert.Contains(t, out, `<meta name="twitter:card" content="summary_large_image">`)
	assert.Contains(t, out, `<div class="cb-document"><p>hello</p></div>`)
	assert.Contains(t, out, "Powered by <strong>LG B2B Platform</strong>")
	assert.Contains(t, out, ".cp-column{")
}

func TestRenderer_RenderWithoutImage(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.Render(Page{Title: "t", Description: "d", ImageURL: "  ", Body: "<p>x</p>"})
	require.NoError(t, err)

	assert.NotContains(t, out, "og:image")
	assert.NotContains(t, out, "twitter:image")
	assert.NotContains(t, out, "og:url")
}

func TestRenderer_RenderRejectsOversizedBody(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	_, err = r.Render(Page{Title: "t", Body: strings.Repeat("a", MaxBodySize+1)})
	assert.Error(t, err)
}

func TestRenderer_RenderNotFound(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.RenderNotFound("존재하지 않거나 삭제된 캠페인입니다.")
	require.NoError(t, err)

	assert.Contains(t, out, "<title>Campaign Not Found</title>")
	assert.Contains(t, out, `<div class="cp-missing">존재하지 않거나 삭제된 캠페인입니다.</div>`)
	assert.Contains(t, out, `name="robots" content="noindex"`)
	assert.NotContains(t, out, "Powered by")
}
