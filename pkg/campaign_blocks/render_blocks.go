package campaign_blocks

import (
	"strings"
)

const linkRel = ` target="_blank" rel="noopener noreferrer"`

// tableCellDefaults are applied beneath the table style and cell overrides.
var tableCellDefaults = Style{
	FontSize:    "14px",
	Color:       "#000000",
	TextAlign:   "center",
	Padding:     "8px",
	BorderColor: "#e5e7eb",
	BorderWidth: "1px",
}

var bulletGlyphs = map[BulletType]string{
	BulletDot:    "●",
	BulletCheck:  "✓",
	BulletSquare: "■",
}

func backgroundDecl(st Style) cssDecl {
	if st.BackgroundColor == "" {
		return kv("background-color", "")
	}
	if st.BackgroundOpacity != nil && st.BackgroundColor != "transparent" && strings.HasPrefix(string(st.BackgroundColor), "#") {
		return trustedKV("background-color", RGBA(string(st.BackgroundColor), st.BackgroundOpacity.Clamped()))
	}
	return sv("background-color", st.BackgroundColor)
}

func typographyDecls(st Style) []cssDecl {
	return []cssDecl{
		sv("color", st.Color),
		sv("font-size", st.FontSize),
		sv("font-family", st.FontFamily),
		sv("font-weight", st.FontWeight),
		sv("text-align", st.TextAlign),
		sv("line-height", st.LineHeight),
		sv("letter-spacing", st.LetterSpacing),
	}
}

func borderDecl(st Style) cssDecl {
	if st.BorderColor == "" && st.BorderWidth == "" {
		return kv("border", "")
	}
	return kv("border", px(st.BorderWidth.Or("1px"))+" solid "+st.BorderColor.Or("transparent"))
}

func (rc *renderContext) text(sb *strings.Builder, c *TextContent, st Style) {
	decls := append([]cssDecl{backgroundDecl(st)}, typographyDecls(st)...)
	decls = append(decls,
		sv("padding", st.Padding),
		sv("border-radius", st.BorderRadius),
		borderDecl(st),
		kv("box-shadow", boxShadow(st.BoxShadow)),
		kv("white-space", "pre-wrap"),
		kv("word-break", "break-word"),
	)

	sb.WriteString(`<div class="cb-text"` + styleAttr(decls...) + ">")
	if c.Link != "" {
		sb.WriteString(`<a` + attr("href", safeURL(c.Link, false)) + linkRel)
		sb.WriteString(styleAttr(kv("color", "inherit"), kv("text-decoration", "none")) + ">")
		sb.WriteString(text(c.Text))
		sb.WriteString("</a>")
	} else {
		sb.WriteString(text(c.Text))
	}
	sb.WriteString("</div>")
}

func (rc *renderContext) image(sb *strings.Builder, c *ImageContent, st Style) {
	sb.WriteString(`<div class="cb-image"` + styleAttr(sv("text-align", StyleValue(st.TextAlign.Or("center"))), sv("padding", st.Padding)) + ">")

	frame := []cssDecl{
		kv("display", "inline-block"),
		kv("position", "relative"),
		sv("width", StyleValue(st.Width.Or("100%"))),
		sv("height", st.Height),
		sv("border-radius", st.BorderRadius),
		kv("box-shadow", boxShadow(st.BoxShadow)),
		kv("overflow", "hidden"),
		kv("vertical-align", "top"),
	}
	sb.WriteString(`<div class="cb-image-frame"` + styleAttr(frame...) + ">")

	if c.Link != "" {
		sb.WriteString(`<a` + attr("href", safeURL(c.Link, false)) + linkRel + styleAttr(kv("display", "block")) + ">")
	}

	url, ok := rc.mediaURL(c.URL)
	switch {
	case c.URL == "":
		sb.WriteString(placeholder("", kv("min-height", "150px")))
	case !ok:
		sb.WriteString(placeholder(c.URL, kv("min-height", "150px")))
	default:
		// the first size set decides: only an explicit auto keeps the whole picture
		sizing := st.Width
		if sizing == "" {
			sizing = st.Height
		}
		fit := "cover"
		if sizing == "auto" {
			fit = "contain"
		}
		height := "auto"
		if st.Height != "" && st.Height != "auto" {
			height = "100%"
		}
		sb.WriteString(`<img` + attr("src", safeURL(url, true)) + attr("alt", c.Alt))
		sb.WriteString(styleAttr(kv("display", "block"), kv("width", "100%"), kv("height", height), kv("object-fit", fit)))
		sb.WriteString(">")
	}

	if st.OverlayOpacity != nil && st.OverlayOpacity.Clamped() > 0 {
		sb.WriteString(`<div class="cb-image-overlay"`)
		sb.WriteString(styleAttr(
			kv("position", "absolute"),
			kv("inset", "0"),
			trustedKV("background-color", RGBA("#000000", st.OverlayOpacity.Clamped())),
			kv("pointer-events", "none"),
		))
		sb.WriteString("></div>")
	}
	if c.OverlayText != "" {
		sb.WriteString(`<div class="cb-image-overlay-text"`)
		sb.WriteString(styleAttr(
			kv("position", "absolute"),
			kv("inset", "0"),
			kv("display", "flex"),
			kv("align-items", "center"),
			kv("justify-content", "center"),
			kv("padding", "16px"),
			kv("text-align", "center"),
			kv("white-space", "pre-wrap"),
			sv("font-size", StyleValue(st.FontSize.Or("24px"))),
			sv("font-weight", StyleValue(st.FontWeight.Or("bold"))),
			sv("color", StyleValue(st.Color.Or("#ffffff"))),
			kv("text-shadow", "0 2px 4px rgba(0, 0, 0, 0.5)"),
		))
		sb.WriteString(">" + text(c.OverlayText) + "</div>")
	}

	if c.Link != "" {
		sb.WriteString("</a>")
	}
	sb.WriteString("</div></div>")
}

func (rc *renderContext) video(sb *strings.Builder, c *VideoContent, st Style) {
	sb.WriteString(`<div class="cb-video"` + styleAttr(sv("padding", st.Padding), sv("border-radius", st.BorderRadius), kv("overflow", "hidden")) + ">")
	defer sb.WriteString("</div>")

	frame := styleAttr(kv("position", "relative"), kv("width", "100%"), kv("aspect-ratio", "16 / 9"), kv("background-color", "#000000"))
	iframe := func(src string) {
		sb.WriteString(`<div class="cb-video-frame"` + frame + ">")
		sb.WriteString(`<iframe` + attr("src", src))
		sb.WriteString(` frameborder="0" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture" allowfullscreen`)
		sb.WriteString(styleAttr(kv("position", "absolute"), kv("inset", "0"), kv("width", "100%"), kv("height", "100%")))
		sb.WriteString("></iframe></div>")
	}
	empty := func() {
		sb.WriteString(`<div class="cb-video-empty"` + frame + "></div>")
	}

	switch {
	case c.URL == "":
		empty()
	case IsYouTubeURL(c.URL):
		id, ok := YouTubeID(c.URL)
		if !ok {
			empty()
			return
		}
		iframe(YouTubeEmbedURL(id, c.AutoPlay))
	case IsVimeoURL(c.URL):
		id, ok := VimeoID(c.URL)
		if !ok {
			empty()
			return
		}
		iframe(VimeoEmbedURL(id, c.AutoPlay))
	default:
		sb.WriteString(`<video` + attr("src", safeURL(c.URL, false)) + ` controls muted playsinline`)
		if c.AutoPlay {
			sb.WriteString(" autoplay loop")
		}
		sb.WriteString(styleAttr(kv("display", "block"), kv("width", "100%")))
		sb.WriteString("></video>")
	}
}

func (rc *renderContext) button(sb *strings.Builder, c *ButtonContent, st Style) {
	sb.WriteString(`<div class="cb-button"` + styleAttr(kv("padding", "10px"), sv("text-align", StyleValue(st.TextAlign.Or("center")))) + ">")

	decls := []cssDecl{
		kv("display", "inline-block"),
		kv("box-sizing", "border-box"),
		sv("width", st.Width),
		sv("height", st.Height),
		backgroundDecl(st),
		sv("color", st.Color),
		sv("font-size", st.FontSize),
		sv("font-family", st.FontFamily),
		sv("font-weight", StyleValue(st.FontWeight.Or("bold"))),
		sv("letter-spacing", st.LetterSpacing),
		sv("padding", st.Padding),
		sv("border-radius", st.BorderRadius),
		borderDecl(st),
		kv("box-shadow", boxShadow(st.BoxShadow)),
		kv("text-align", "center"),
		kv("text-decoration", "none"),
	}
	sb.WriteString(`<a` + attr("href", safeURL(c.URL, false)) + linkRel + styleAttr(decls...) + ">")
	sb.WriteString(text(c.Text))
	sb.WriteString("</a></div>")
}

// tableCellStyle layers hard defaults, the table style and the cell override, in that order.
func tableCellStyle(table Style, c *TableContent, row, col int) Style {
	cell := tableCellDefaults.Overlay(table)
	if override, ok := c.CellStyle(row, col); ok {
		cell = cell.Overlay(override)
	}
	return cell
}

func (rc *renderContext) table(sb *strings.Builder, blockID string, c *TableContent, st Style) {
	sb.WriteString(`<div class="cb-table"`)
	sb.WriteString(styleAttr(
		sv("width", StyleValue(st.Width.Or("100%"))),
		sv("border-radius", st.BorderRadius),
		kv("box-shadow", boxShadow(st.BoxShadow)),
		kv("overflow", "hidden"),
	))
	sb.WriteString(">")
	sb.WriteString(`<table` + styleAttr(kv("width", "100%"), kv("border-collapse", "collapse"), kv("table-layout", "fixed")) + "><tbody>")

	cols := c.ColumnCount()
	sel := rc.mode.Selection
	for r, row := range c.Rows {
		sb.WriteString("<tr>")
		for col := 0; col < cols; col++ {
			value := ""
			if col < len(row) {
				value = row[col]
			}
			cs := tableCellStyle(st, c, r, col)
			decls := append([]cssDecl{backgroundDecl(cs)}, typographyDecls(cs)...)
			decls = append(decls,
				sv("padding", cs.Padding),
				kv("border", px(cs.BorderWidth.Or("1px"))+" solid "+cs.BorderColor.Or("#e5e7eb")),
				kv("white-space", "pre-wrap"),
				kv("word-break", "break-word"),
			)

			sb.WriteString("<td" + attr("data-cell", CellKey(r, col)))
			if rc.mode.Editor {
				sb.WriteString(attr("data-block-id", blockID) + ` data-select="cell"`)
				if sel.Kind == SelectionCell && sel.BlockID == blockID && sel.Row == r && sel.Col == col {
					sb.WriteString(` class="cb-cell-selected"`)
				}
			}
			sb.WriteString(styleAttr(decls...) + ">")
			sb.WriteString(text(value))
			sb.WriteString("</td>")
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</tbody></table></div>")
}

func (rc *renderContext) card(sb *strings.Builder, c *CardContent, st Style) {
	fontSize := px(st.FontSize.Or("14px"))

	outer := []cssDecl{
		kv("position", "relative"),
		kv("overflow", "hidden"),
		backgroundDecl(st),
		sv("padding", StyleValue(st.Padding.Or("16px"))),
		sv("border-radius", st.BorderRadius),
		kv("border", px(st.BorderWidth.Or("1px"))+" solid "+st.BorderColor.Or("transparent")),
		kv("box-shadow", boxShadow(st.BoxShadow)),
		sv("color", st.Color),
		sv("font-family", st.FontFamily),
		sv("text-align", st.TextAlign),
	}
	switch st.AccentSide {
	case AccentSideTop, AccentSideBottom, AccentSideLeft, AccentSideRight:
		outer = append(outer, kv("border-"+string(st.AccentSide), "4px solid "+st.AccentColor.Or("#a50034")))
	}
	sb.WriteString(`<div class="cb-card"` + styleAttr(outer...) + ">")

	if c.BadgeText != "" {
		sb.WriteString(`<div class="cb-card-badge"`)
		sb.WriteString(styleAttr(
			kv("position", "absolute"),
			kv("top", "-10px"),
			kv("left", "15px"),
			kv("font-size", "60px"),
			kv("font-weight", "900"),
			kv("line-height", "1"),
			sv("color", StyleValue(st.BadgeColor.Or("#e0e7ff"))),
			kv("opacity", "0.5"),
			kv("pointer-events", "none"),
			kv("z-index", "0"),
		))
		sb.WriteString(">" + text(c.BadgeText) + "</div>")
	}

	sb.WriteString(`<div class="cb-card-body"` + styleAttr(kv("position", "relative"), kv("z-index", "1")) + ">")
	if c.Title != "" {
		sb.WriteString(`<div class="cb-card-title"`)
		sb.WriteString(styleAttr(
			kv("font-size", "calc("+fontSize+" + 2px)"),
			sv("font-weight", StyleValue(st.FontWeight.Or("bold"))),
			kv("margin-bottom", "8px"),
		))
		sb.WriteString(">" + text(c.Title) + "</div>")
	}

	glyph := bulletGlyphs[c.BulletType]
	for _, line := range strings.Split(c.Text, "\n") {
		sb.WriteString(`<div class="cb-card-line"`)
		sb.WriteString(styleAttr(
			kv("display", "flex"),
			kv("gap", "6px"),
			kv("font-size", fontSize),
			sv("line-height", StyleValue(st.LineHeight.Or("1.6"))),
			sv("letter-spacing", st.LetterSpacing),
		))
		sb.WriteString(">")
		if glyph != "" {
			sb.WriteString(`<span class="cb-card-bullet"` + styleAttr(sv("color", StyleValue(st.AccentColor.Or("#a50034"))), kv("flex-shrink", "0")) + ">" + glyph + "</span>")
		}
		sb.WriteString("<span" + styleAttr(kv("white-space", "pre-wrap")) + ">" + text(line) + "</span></div>")
	}

	if c.SubText != "" {
		sb.WriteString(`<div class="cb-card-subtext"`)
		sb.WriteString(styleAttr(
			kv("font-size", "calc("+fontSize+" - 2px)"),
			kv("opacity", "0.7"),
			kv("margin-top", "8px"),
			kv("white-space", "pre-wrap"),
		))
		sb.WriteString(">" + text(c.SubText) + "</div>")
	}
	sb.WriteString("</div></div>")
}
