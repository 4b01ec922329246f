package campaign_blocks

import (
	"html"
	"strconv"
	"strings"
)

type cssDecl struct {
	prop    string
	value   string
	trusted bool
}

// css renders declarations as an inline style, skipping empty values.
func css(decls ...cssDecl) string {
	var sb strings.Builder
	for _, d := range decls {
		v := d.value
		if !d.trusted {
			v = cssValue(v)
		}
		if v == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(d.prop)
		sb.WriteString(": ")
		sb.WriteString(v)
		sb.WriteString(";")
	}
	return sb.String()
}

// lengthProps are the properties whose bare numeric values are read as pixels.
var lengthProps = map[string]bool{
	"font-size":      true,
	"padding":        true,
	"border-radius":  true,
	"border-width":   true,
	"width":          true,
	"height":         true,
	"letter-spacing": true,
}

func sv(prop string, value StyleValue) cssDecl {
	v := string(value)
	if lengthProps[prop] {
		v = px(v)
	}
	return cssDecl{prop: prop, value: v}
}

// px appends a pixel unit to a bare number, like 16 stored by older documents.
func px(v string) string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return v
	}
	if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
		return v
	}
	return trimmed + "px"
}

func kv(prop, value string) cssDecl {
	return cssDecl{prop: prop, value: value}
}

// trustedKV is for values assembled by the renderer itself.
func trustedKV(prop, value string) cssDecl {
	return cssDecl{prop: prop, value: value, trusted: true}
}

// cssValue strips characters that would let a stored value escape its declaration.
func cssValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	lower := strings.ToLower(v)
	if strings.Contains(lower, "expression(") || strings.Contains(lower, "javascript:") {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}', '<', '>', '"', '\\':
			return -1
		}
		return r
	}, v)
}

// cssURL builds a url() value for a background image.
func cssURL(u string) string {
	u = safeURL(u, true)
	u = strings.NewReplacer(`'`, "%27", `"`, "%22", `\`, "%5C", "\n", "", "\r", "").Replace(u)
	return "url('" + u + "')"
}

func attr(name, value string) string {
	return " " + name + `="` + html.EscapeString(value) + `"`
}

func styleAttr(decls ...cssDecl) string {
	s := css(decls...)
	if s == "" {
		return ""
	}
	return attr("style", s)
}

func text(s string) string {
	return html.EscapeString(s)
}

// safeURL keeps links and sources on an allow-list of schemes and replaces anything else with "#".
func safeURL(u string, allowDataImage bool) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return ""
	}
	lower := strings.ToLower(u)
	switch {
	case strings.HasPrefix(lower, "http://"),
		strings.HasPrefix(lower, "https://"),
		strings.HasPrefix(lower, "mailto:"),
		strings.HasPrefix(lower, "tel:"),
		strings.HasPrefix(lower, "//"),
		strings.HasPrefix(lower, "/"),
		strings.HasPrefix(lower, "#"),
		strings.HasPrefix(lower, "?"),
		strings.HasPrefix(lower, "./"):
		return u
	case strings.HasPrefix(lower, "data:image/"):
		if allowDataImage {
			return u
		}
		return "#"
	}

	// relative references have no scheme before the first path separator
	colon := strings.Index(lower, ":")
	if colon == -1 {
		return u
	}
	if slash := strings.IndexAny(lower, "/?#"); slash != -1 && slash < colon {
		return u
	}
	return "#"
}

// boxShadow expands the named shadow presets; any other value is used as given.
func boxShadow(v StyleValue) string {
	switch strings.ToLower(string(v)) {
	case "none":
		return "none"
	case "sm", "small":
		return "0 1px 2px rgba(0, 0, 0, 0.05)"
	case "md", "medium":
		return "0 4px 6px rgba(0, 0, 0, 0.1)"
	case "lg", "large":
		return "0 10px 15px rgba(0, 0, 0, 0.1)"
	case "xl":
		return "0 20px 25px rgba(0, 0, 0, 0.15)"
	}
	return string(v)
}
