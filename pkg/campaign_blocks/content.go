package campaign_blocks

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BlockType is the discriminator of a block.
type BlockType string

const (
	BlockTypeText   BlockType = "text"
	BlockTypeImage  BlockType = "image"
	BlockTypeVideo  BlockType = "video"
	BlockTypeButton BlockType = "button"
	BlockTypeSpacer BlockType = "spacer"
	BlockTypeTable  BlockType = "table"
	BlockTypeCard   BlockType = "card"
)

// BlockTypes lists the block types in palette order.
var BlockTypes = []BlockType{
	BlockTypeText,
	BlockTypeImage,
	BlockTypeVideo,
	BlockTypeButton,
	BlockTypeSpacer,
	BlockTypeTable,
	BlockTypeCard,
}

// IsValid reports whether t is a known block type.
func (t BlockType) IsValid() bool {
	for _, known := range BlockTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Content is the type-specific payload of a block.
type Content interface {
	BlockType() BlockType
	clone() Content
}

type TextContent struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`

	extra objectExtras
}

type ImageContent struct {
	URL         string `json:"url"`
	Alt         string `json:"alt,omitempty"`
	Link        string `json:"link,omitempty"`
	OverlayText string `json:"overlayText,omitempty"`

	extra objectExtras
}

type VideoContent struct {
	URL      string `json:"url"`
	AutoPlay bool   `json:"autoPlay"`

	extra objectExtras
}

type ButtonContent struct {
	Text string `json:"text"`
	URL  string `json:"url"`

	extra objectExtras
}

type SpacerContent struct {
	extra objectExtras
}

// TableContent holds the grid cells and sparse per-cell style overrides
// keyed by "<row>-<col>".
type TableContent struct {
	Rows       [][]string       `json:"rows"`
	CellStyles map[string]Style `json:"cellStyles,omitempty"`

	extra objectExtras
}

// BulletType selects the glyph drawn before each card body line.
type BulletType string

const (
	BulletNone   BulletType = "none"
	BulletDot    BulletType = "dot"
	BulletCheck  BulletType = "check"
	BulletSquare BulletType = "square"
)

type CardContent struct {
	Title      string     `json:"title"`
	Text       string     `json:"text"`
	BadgeText  string     `json:"badgeText,omitempty"`
	BulletType BulletType `json:"bulletType,omitempty"`
	SubText    string     `json:"subText,omitempty"`

	extra objectExtras
}

func (c *TextContent) BlockType() BlockType   { return BlockTypeText }
func (c *ImageContent) BlockType() BlockType  { return BlockTypeImage }
func (c *VideoContent) BlockType() BlockType  { return BlockTypeVideo }
func (c *ButtonContent) BlockType() BlockType { return BlockTypeButton }
func (c *SpacerContent) BlockType() BlockType { return BlockTypeSpacer }
func (c *TableContent) BlockType() BlockType  { return BlockTypeTable }
func (c *CardContent) BlockType() BlockType   { return BlockTypeCard }

func (c *TextContent) clone() Content   { v := *c; v.extra = c.extra.clone(); return &v }
func (c *ImageContent) clone() Content  { v := *c; v.extra = c.extra.clone(); return &v }
func (c *VideoContent) clone() Content  { v := *c; v.extra = c.extra.clone(); return &v }
func (c *ButtonContent) clone() Content { v := *c; v.extra = c.extra.clone(); return &v }
func (c *SpacerContent) clone() Content { return &SpacerContent{extra: c.extra.clone()} }
func (c *CardContent) clone() Content   { v := *c; v.extra = c.extra.clone(); return &v }

func (c *TableContent) clone() Content {
	out := &TableContent{extra: c.extra.clone()}
	if c.Rows != nil {
		out.Rows = make([][]string, len(c.Rows))
		for i, row := range c.Rows {
			out.Rows[i] = append([]string(nil), row...)
		}
	}
	if c.CellStyles != nil {
		out.CellStyles = make(map[string]Style, len(c.CellStyles))
		for k, v := range c.CellStyles {
			out.CellStyles[k] = v.Clone()
		}
	}
	return out
}

// The aliases drop the methods below so the variants can be decoded field by field.
type (
	textContentAlias   TextContent
	imageContentAlias  ImageContent
	videoContentAlias  VideoContent
	buttonContentAlias ButtonContent
	spacerContentAlias SpacerContent
	tableContentAlias  TableContent
	cardContentAlias   CardContent
)

func (c *TextContent) UnmarshalJSON(data []byte) error {
	extra, err := decodeObject(data, (*textContentAlias)(c))
	c.extra = extra
	return err
}

func (c TextContent) MarshalJSON() ([]byte, error) {
	return encodeObject(textContentAlias(c), c.extra)
}

func (c *ImageContent) UnmarshalJSON(data []byte) error {
	extra, err := decodeObject(data, (*imageContentAlias)(c))
	c.extra = extra
	return err
}

func (c ImageContent) MarshalJSON() ([]byte, error) {
	return encodeObject(imageContentAlias(c), c.extra)
}

func (c *VideoContent) UnmarshalJSON(data []byte) error {
	extra, err := decodeObject(data, (*videoContentAlias)(c))
	c.extra = extra
	return err
}

func (c VideoContent) MarshalJSON() ([]byte, error) {
	return encodeObject(videoContentAlias(c), c.extra)
}

func (c *ButtonContent) UnmarshalJSON(data []byte) error {
	extra, err := decodeObject(data, (*buttonContentAlias)(c))
	c.extra = extra
	return err
}

func (c ButtonContent) MarshalJSON() ([]byte, error) {
	return encodeObject(buttonContentAlias(c), c.extra)
}

func (c *SpacerContent) UnmarshalJSON(data []byte) error {
	extra, err := decodeObject(data, (*spacerContentAlias)(c))
	c.extra = extra
	return err
}

func (c SpacerContent) MarshalJSON() ([]byte, error) {
	return encodeObject(spacerContentAlias(c), c.extra)
}

func (c *TableContent) UnmarshalJSON(data []byte) error {
	extra, err := decodeObject(data, (*tableContentAlias)(c))
	c.extra = extra
	return err
}

func (c TableContent) MarshalJSON() ([]byte, error) {
	return encodeObject(tableContentAlias(c), c.extra)
}

func (c *CardContent) UnmarshalJSON(data []byte) error {
	extra, err := decodeObject(data, (*cardContentAlias)(c))
	c.extra = extra
	return err
}

func (c CardContent) MarshalJSON() ([]byte, error) {
	return encodeObject(cardContentAlias(c), c.extra)
}

// CellKey builds the cellStyles key for a table cell.
func CellKey(row, col int) string {
	return fmt.Sprintf("%d-%d", row, col)
}

// CellStyle returns the override registered for a cell, if any.
func (c *TableContent) CellStyle(row, col int) (Style, bool) {
	if c == nil || c.CellStyles == nil {
		return Style{}, false
	}
	s, ok := c.CellStyles[CellKey(row, col)]
	return s, ok
}

// ColumnCount returns the width of the widest row.
func (c *TableContent) ColumnCount() int {
	cols := 0
	for _, row := range c.Rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return cols
}

// newContent creates an empty typed content value for t, nil for unknown types.
func newContent(t BlockType) Content {
	switch t {
	case BlockTypeText:
		return &TextContent{}
	case BlockTypeImage:
		return &ImageContent{}
	case BlockTypeVideo:
		return &VideoContent{}
	case BlockTypeButton:
		return &ButtonContent{}
	case BlockTypeSpacer:
		return &SpacerContent{}
	case BlockTypeTable:
		return &TableContent{}
	case BlockTypeCard:
		return &CardContent{}
	default:
		return nil
	}
}

// decodeContent decodes raw into the content variant for t.
// A bare string is accepted as the primary field, which is how the earliest
// documents stored text.
func decodeContent(t BlockType, raw json.RawMessage) (Content, error) {
	content := newContent(t)
	if content == nil {
		return nil, fmt.Errorf("unknown block type %q", t)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return content, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		switch c := content.(type) {
		case *TextContent:
			c.Text = s
		case *ButtonContent:
			c.Text = s
		case *ImageContent:
			c.URL = s
		case *VideoContent:
			c.URL = s
		case *CardContent:
			c.Text = s
		default:
			return nil, fmt.Errorf("block type %q cannot hold text content", t)
		}
		return content, nil
	}

	if err := json.Unmarshal(raw, content); err != nil {
		return nil, fmt.Errorf("failed to decode %s content: %w", t, err)
	}
	return content, nil
}
