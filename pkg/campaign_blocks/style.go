package campaign_blocks

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
)

// StyleValue is a CSS value as stored in a campaign document.
// Older documents sometimes store numbers or booleans where a string is expected,
// those are accepted and kept in their textual form.
type StyleValue string

func (v *StyleValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StyleValue(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = StyleValue(strconv.FormatBool(b))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = StyleValue(n.String())
	}
	return nil
}

func (v StyleValue) String() string {
	return string(v)
}

// Or returns v, or fallback when v is empty.
func (v StyleValue) Or(fallback string) string {
	if v == "" {
		return fallback
	}
	return string(v)
}

// Opacity is a value between 0 and 1. Out of range values are stored as given
// and clamped at render time.
type Opacity float64

func (o *Opacity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			// unreadable opacity falls back to the render default
			*o = 1
			return nil
		}
		*o = Opacity(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*o = Opacity(f)
	return nil
}

// Clamped returns the opacity limited to [0, 1].
func (o Opacity) Clamped() float64 {
	f := float64(o)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// OpacityPtr is a helper for building styles in code.
func OpacityPtr(f float64) *Opacity {
	o := Opacity(f)
	return &o
}

// AccentSide selects the single card side that carries the accent border.
type AccentSide string

const (
	AccentSideNone   AccentSide = "none"
	AccentSideTop    AccentSide = "top"
	AccentSideBottom AccentSide = "bottom"
	AccentSideLeft   AccentSide = "left"
	AccentSideRight  AccentSide = "right"
)

// Style is the sparse visual attribute record shared by sections, blocks and table cells.
// An empty field means "use the render-time default". Keys the record does not know,
// and values that were stored as numbers or booleans, are kept and written back as read.
type Style struct {
	Color             StyleValue `json:"color,omitempty"`
	BackgroundColor   StyleValue `json:"backgroundColor,omitempty"`
	BackgroundOpacity *Opacity   `json:"backgroundOpacity,omitempty"`
	BackgroundImage   StyleValue `json:"backgroundImage,omitempty"`
	BackgroundSize    StyleValue `json:"backgroundSize,omitempty"`
	FontSize          StyleValue `json:"fontSize,omitempty"`
	FontFamily        StyleValue `json:"fontFamily,omitempty"`
	FontWeight        StyleValue `json:"fontWeight,omitempty"`
	TextAlign         StyleValue `json:"textAlign,omitempty"`
	Padding           StyleValue `json:"padding,omitempty"`
	BorderRadius      StyleValue `json:"borderRadius,omitempty"`
	BorderColor       StyleValue `json:"borderColor,omitempty"`
	BorderWidth       StyleValue `json:"borderWidth,omitempty"`
	BoxShadow         StyleValue `json:"boxShadow,omitempty"`
	LineHeight        StyleValue `json:"lineHeight,omitempty"`
	LetterSpacing     StyleValue `json:"letterSpacing,omitempty"`
	Width             StyleValue `json:"width,omitempty"`
	Height            StyleValue `json:"height,omitempty"`
	OverlayOpacity    *Opacity   `json:"overlayOpacity,omitempty"`
	AccentSide        AccentSide `json:"accentSide,omitempty"`
	AccentColor       StyleValue `json:"accentColor,omitempty"`
	BadgeColor        StyleValue `json:"badgeColor,omitempty"`

	extra    objectExtras
	literals map[string]styleLiteral
	invalid  json.RawMessage
}

// styleLiteral remembers a stored value whose typed form encodes differently,
// such as fontSize 16 read as "16". decoded is nil when the typed form is omitted.
type styleLiteral struct {
	raw     json.RawMessage
	decoded json.RawMessage
}

type styleAlias Style

// UnmarshalJSON decodes a style leniently. A key whose value cannot be a CSS value
// is kept aside instead of failing the whole document, and a style that is not an
// object is carried as is.
func (s *Style) UnmarshalJSON(data []byte) error {
	*s = Style{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		s.invalid = append(json.RawMessage(nil), data...)
		return nil
	}

	known := jsonFieldNames(reflect.TypeOf(styleAlias{}))
	var alias styleAlias
	var extra objectExtras
	var literals map[string]styleLiteral
	for key, raw := range fields {
		if !known[strings.ToLower(key)] {
			extra.set(key, raw)
			continue
		}
		single, err := json.Marshal(map[string]json.RawMessage{key: raw})
		if err != nil {
			extra.set(key, raw)
			continue
		}
		var one styleAlias
		if err := json.Unmarshal(single, &one); err != nil {
			extra.set(key, raw)
			continue
		}
		_ = json.Unmarshal(single, &alias)

		encoded, err := styleField(one, key)
		if err != nil {
			continue
		}
		if !jsonEqual(encoded, raw) {
			if literals == nil {
				literals = map[string]styleLiteral{}
			}
			literals[key] = styleLiteral{raw: append(json.RawMessage(nil), raw...), decoded: encoded}
		}
	}

	*s = Style(alias)
	s.extra = extra
	s.literals = literals
	return nil
}

func (s Style) MarshalJSON() ([]byte, error) {
	alias := styleAlias(s)
	if len(s.extra) == 0 && len(s.literals) == 0 && s.invalid == nil {
		return json.Marshal(alias)
	}
	if s.invalid != nil && s.known().IsZero() {
		return s.invalid, nil
	}

	data, err := json.Marshal(alias)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for key, lit := range s.literals {
		if jsonEqual(fields[key], lit.decoded) {
			fields[key] = lit.raw
		}
	}
	for key, raw := range s.extra {
		if _, ok := fields[key]; !ok {
			fields[key] = raw
		}
	}
	return json.Marshal(fields)
}

// styleField returns the encoded value of one key of a style, nil when it is omitted.
func styleField(alias styleAlias, key string) (json.RawMessage, error) {
	data, err := json.Marshal(alias)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		if strings.EqualFold(k, key) {
			return v, nil
		}
	}
	return nil, nil
}

// known returns the style without the preserved extras.
func (s Style) known() Style {
	out := s
	out.extra = nil
	out.literals = nil
	out.invalid = nil
	return out
}

// Clone returns a deep copy of the style.
func (s Style) Clone() Style {
	out := s
	if s.BackgroundOpacity != nil {
		v := *s.BackgroundOpacity
		out.BackgroundOpacity = &v
	}
	if s.OverlayOpacity != nil {
		v := *s.OverlayOpacity
		out.OverlayOpacity = &v
	}
	out.extra = s.extra.clone()
	if s.literals != nil {
		out.literals = make(map[string]styleLiteral, len(s.literals))
		for k, v := range s.literals {
			out.literals[k] = v
		}
	}
	if s.invalid != nil {
		out.invalid = append(json.RawMessage(nil), s.invalid...)
	}
	return out
}

// Overlay returns s with every non-empty field of over applied on top.
func (s Style) Overlay(over Style) Style {
	out := s.Clone()
	setIf := func(dst *StyleValue, v StyleValue) {
		if v != "" {
			*dst = v
		}
	}
	setIf(&out.Color, over.Color)
	setIf(&out.BackgroundColor, over.BackgroundColor)
	setIf(&out.BackgroundImage, over.BackgroundImage)
	setIf(&out.BackgroundSize, over.BackgroundSize)
	setIf(&out.FontSize, over.FontSize)
	setIf(&out.FontFamily, over.FontFamily)
	setIf(&out.FontWeight, over.FontWeight)
	setIf(&out.TextAlign, over.TextAlign)
	setIf(&out.Padding, over.Padding)
	setIf(&out.BorderRadius, over.BorderRadius)
	setIf(&out.BorderColor, over.BorderColor)
	setIf(&out.BorderWidth, over.BorderWidth)
	setIf(&out.BoxShadow, over.BoxShadow)
	setIf(&out.LineHeight, over.LineHeight)
	setIf(&out.LetterSpacing, over.LetterSpacing)
	setIf(&out.Width, over.Width)
	setIf(&out.Height, over.Height)
	setIf(&out.AccentColor, over.AccentColor)
	setIf(&out.BadgeColor, over.BadgeColor)
	if over.AccentSide != "" {
		out.AccentSide = over.AccentSide
	}
	if over.BackgroundOpacity != nil {
		v := *over.BackgroundOpacity
		out.BackgroundOpacity = &v
	}
	if over.OverlayOpacity != nil {
		v := *over.OverlayOpacity
		out.OverlayOpacity = &v
	}
	return out
}

// IsZero reports whether no style key is set, known or preserved.
func (s Style) IsZero() bool {
	if len(s.extra) > 0 || s.invalid != nil {
		return false
	}
	return reflect.DeepEqual(s.known(), Style{})
}
