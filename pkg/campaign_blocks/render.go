package campaign_blocks

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// EmptyDocumentMessage is shown by the public viewer for a campaign without sections.
	EmptyDocumentMessage = "내용이 없습니다."

	defaultResolveTimeout = 3 * time.Second
	defaultMaxParallel    = 8
)

//go:generate mockgen -destination=./mocks/mock_url_resolver.go -package=mocks github.com/lifenjoy/campaigns/pkg/campaign_blocks URLResolver

// URLResolver turns an opaque storage reference into a displayable URL.
type URLResolver interface {
	ResolveURL(ctx context.Context, ref string) (string, error)
}

// Mode selects between the public viewer output and the editor canvas output.
// Both share the same inner markup; the editor adds selection affordances around it.
type Mode struct {
	Editor    bool
	Selection Selection
}

// PublicMode renders the read-only viewer.
var PublicMode = Mode{}

// EditorMode renders the editing canvas with the given selection highlighted.
func EditorMode(selection Selection) Mode {
	return Mode{Editor: true, Selection: selection}
}

// Renderer renders normalized campaign documents to HTML fragments.
type Renderer struct {
	resolver       URLResolver
	resolveTimeout time.Duration
	maxParallel    int
}

type RendererOption func(*Renderer)

// WithResolveTimeout bounds how long a single storage image may take to resolve
// before its placeholder is rendered instead.
func WithResolveTimeout(d time.Duration) RendererOption {
	return func(r *Renderer) {
		if d > 0 {
			r.resolveTimeout = d
		}
	}
}

// WithMaxParallel bounds the number of concurrent storage resolutions.
func WithMaxParallel(n int) RendererOption {
	return func(r *Renderer) {
		if n > 0 {
			r.maxParallel = n
		}
	}
}

// NewRenderer creates a renderer. resolver may be nil, in which case every
// storage-backed image renders as a placeholder.
func NewRenderer(resolver URLResolver, opts ...RendererOption) *Renderer {
	r := &Renderer{
		resolver:       resolver,
		resolveTimeout: defaultResolveTimeout,
		maxParallel:    defaultMaxParallel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render produces the HTML for a section list. It never fails: images whose
// storage reference cannot be resolved in time render as placeholders.
func (r *Renderer) Render(ctx context.Context, sections []Section, mode Mode) string {
	rc := &renderContext{
		mode: mode,
		urls: r.resolveAll(ctx, CollectStorageRefs(sections)),
	}

	var sb strings.Builder
	sb.WriteString(`<div class="cb-document">`)
	if len(sections) == 0 && !mode.Editor {
		sb.WriteString(`<div class="cb-empty"`)
		sb.WriteString(styleAttr(kv("padding", "40px"), kv("text-align", "center"), kv("color", "#9ca3af")))
		sb.WriteString(">")
		sb.WriteString(text(EmptyDocumentMessage))
		sb.WriteString("</div>")
	}
	for i, section := range sections {
		rc.section(&sb, i, len(sections), section)
	}
	sb.WriteString("</div>")
	return sb.String()
}

// RenderBlock renders a single block in public mode without its section wrapper.
func (r *Renderer) RenderBlock(ctx context.Context, block Block) string {
	rc := &renderContext{
		mode: PublicMode,
		urls: r.resolveAll(ctx, CollectStorageRefs([]Section{{Children: []Block{block}}})),
	}
	var sb strings.Builder
	rc.blockBody(&sb, block)
	return sb.String()
}

// CollectStorageRefs lists the distinct storage references used by a document.
func CollectStorageRefs(sections []Section) []string {
	seen := make(map[string]struct{})
	var refs []string
	add := func(ref string) {
		if !IsStorageRef(ref) {
			return
		}
		if _, ok := seen[ref]; ok {
			return
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}

	for _, section := range sections {
		add(string(section.Style.BackgroundImage))
		for _, block := range section.Children {
			if img := block.Image(); img != nil {
				add(img.URL)
			}
		}
	}
	return refs
}

// resolveAll resolves every reference independently. A failure or timeout only
// affects its own image.
func (r *Renderer) resolveAll(ctx context.Context, refs []string) map[string]string {
	urls := make(map[string]string, len(refs))
	if r.resolver == nil || len(refs) == 0 {
		return urls
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.maxParallel)
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			resolveCtx, cancel := context.WithTimeout(ctx, r.resolveTimeout)
			defer cancel()

			url, err := r.resolver.ResolveURL(resolveCtx, ref)
			if err != nil || url == "" {
				return nil
			}
			mu.Lock()
			urls[ref] = url
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return urls
}

type renderContext struct {
	mode Mode
	urls map[string]string
}

// mediaURL returns the displayable URL for a reference and whether it is available.
func (rc *renderContext) mediaURL(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	if IsDirectURL(ref) {
		return ref, true
	}
	url, ok := rc.urls[ref]
	return url, ok
}

func placeholder(ref string, decls ...cssDecl) string {
	base := []cssDecl{
		kv("background-color", "#f3f4f6"),
		kv("width", "100%"),
		kv("height", "100%"),
		kv("min-height", "50px"),
	}
	return `<div class="cb-image-placeholder"` + attr("data-storage-ref", ref) +
		styleAttr(append(base, decls...)...) + `></div>`
}

func (rc *renderContext) section(sb *strings.Builder, index, count int, section Section) {
	if rc.mode.Editor {
		selected := rc.mode.Selection.Kind == SelectionSection && rc.mode.Selection.SectionID == section.ID
		sb.WriteString(`<div class="` + editableClass("section", selected) + `" data-select="section"`)
		sb.WriteString(attr("data-section-id", section.ID))
		sb.WriteString(attr("data-section-index", strconv.Itoa(index)))
		sb.WriteString(">")
		sb.WriteString(controls("section", section.ID, "", index, count))
		defer sb.WriteString("</div>")
	}

	st := section.Style
	opacity := 1.0
	if st.BackgroundOpacity != nil {
		opacity = st.BackgroundOpacity.Clamped()
	}

	decls := []cssDecl{
		trustedKV("background-color", RGBA(string(st.BackgroundColor), opacity)),
	}
	bgRef := string(st.BackgroundImage)
	if bgRef != "" && IsDirectURL(bgRef) {
		decls = append(decls,
			trustedKV("background-image", cssURL(bgRef)),
			sv("background-size", StyleValue(st.BackgroundSize.Or("cover"))),
			kv("background-position", "center"),
			kv("background-repeat", "no-repeat"),
		)
	}
	decls = append(decls, sv("padding", st.Padding), kv("position", "relative"))

	sb.WriteString(`<div class="cb-section"`)
	sb.WriteString(attr("data-section-id", section.ID))
	sb.WriteString(styleAttr(decls...))
	sb.WriteString(">")

	if IsStorageRef(bgRef) {
		sb.WriteString(`<div class="cb-section-bg"`)
		sb.WriteString(styleAttr(kv("position", "absolute"), kv("inset", "0"), kv("z-index", "0")))
		sb.WriteString(">")
		fit := st.BackgroundSize.Or("cover")
		if fit == "auto" {
			fit = "none"
		}
		if url, ok := rc.mediaURL(bgRef); ok {
			sb.WriteString(`<img` + attr("src", safeURL(url, true)) + attr("alt", ""))
			sb.WriteString(styleAttr(kv("width", "100%"), kv("height", "100%"), kv("object-fit", fit)))
			sb.WriteString(">")
		} else {
			sb.WriteString(placeholder(bgRef))
		}
		sb.WriteString("</div>")
	}

	sb.WriteString(`<div class="cb-section-body"`)
	sb.WriteString(styleAttr(kv("position", "relative"), kv("z-index", "1")))
	sb.WriteString(">")
	for i, block := range section.Children {
		rc.block(sb, section.ID, i, len(section.Children), block)
	}
	sb.WriteString("</div></div>")
}

func (rc *renderContext) block(sb *strings.Builder, sectionID string, index, count int, block Block) {
	if rc.mode.Editor {
		sel := rc.mode.Selection
		selected := (sel.Kind == SelectionBlock || sel.Kind == SelectionCell) && sel.BlockID == block.ID
		sb.WriteString(`<div class="` + editableClass("block", selected) + `" data-select="block"`)
		sb.WriteString(attr("data-section-id", sectionID))
		sb.WriteString(attr("data-block-id", block.ID))
		sb.WriteString(attr("data-block-index", strconv.Itoa(index)))
		sb.WriteString(">")
		sb.WriteString(controls("block", block.ID, sectionID, index, count))
		defer sb.WriteString("</div>")
	}

	margin := "8px"
	if index == count-1 {
		margin = "0"
	}
	sb.WriteString(`<div class="cb-block"`)
	sb.WriteString(attr("data-block-id", block.ID))
	sb.WriteString(attr("data-block-type", string(block.Type)))
	sb.WriteString(styleAttr(kv("position", "relative"), kv("margin-bottom", margin)))
	sb.WriteString(">")
	rc.blockBody(sb, block)
	sb.WriteString("</div>")
}

func (rc *renderContext) blockBody(sb *strings.Builder, block Block) {
	if block.IsOpaque() {
		return
	}
	switch c := block.Content.(type) {
	case *TextContent:
		rc.text(sb, c, block.Style)
	case *ImageContent:
		rc.image(sb, c, block.Style)
	case *VideoContent:
		rc.video(sb, c, block.Style)
	case *ButtonContent:
		rc.button(sb, c, block.Style)
	case *SpacerContent:
		sb.WriteString(`<div class="cb-spacer"` + styleAttr(sv("height", block.Style.Height)) + `></div>`)
	case *TableContent:
		rc.table(sb, block.ID, c, block.Style)
	case *CardContent:
		rc.card(sb, c, block.Style)
	}
}

func editableClass(kind string, selected bool) string {
	class := "cb-editable cb-editable-" + kind
	if selected {
		class += " cb-selected"
	}
	return class
}

// controls renders the inline move/delete affordances of the editor canvas.
func controls(kind, id, sectionID string, index, count int) string {
	var sb strings.Builder
	sb.WriteString(`<div class="cb-controls"` + attr("data-for", id) + `>`)
	button := func(action, label string, enabled bool) {
		sb.WriteString(`<button type="button"`)
		sb.WriteString(attr("data-action", action))
		sb.WriteString(attr("data-id", id))
		if sectionID != "" {
			sb.WriteString(attr("data-section-id", sectionID))
		}
		sb.WriteString(attr("data-index", strconv.Itoa(index)))
		if !enabled {
			sb.WriteString(" disabled")
		}
		sb.WriteString(">" + label + "</button>")
	}
	button("move-"+kind+"-up", "↑", index > 0)
	button("move-"+kind+"-down", "↓", index < count-1)
	button("delete-"+kind, "✕", true)
	sb.WriteString("</div>")
	return sb.String()
}
