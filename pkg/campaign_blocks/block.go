package campaign_blocks

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SectionType is the literal type tag carried by every section.
const SectionType = "section"

// Block is the atomic renderable unit of a campaign page.
// Content always holds the variant matching Type, except for opaque blocks
// (unreadable id or type, unknown type, undecodable content) which keep their original JSON.
type Block struct {
	ID      string
	Type    BlockType
	Content Content
	Style   Style

	numericID bool
	extra     objectExtras
	raw       json.RawMessage
}

type blockJSON struct {
	ID      interface{}     `json:"id"`
	Type    BlockType       `json:"type"`
	Content json.RawMessage `json:"content,omitempty"`
	Style   json.RawMessage `json:"style,omitempty"`
}

var blockKeys = map[string]bool{"id": true, "type": true, "content": true, "style": true}

// NewBlock creates a block of type t with the given content and style.
func NewBlock(id string, t BlockType, content Content, style Style) Block {
	if content == nil {
		content = newContent(t)
	}
	return Block{ID: id, Type: t, Content: content, Style: style}
}

// IsOpaque reports whether the block could not be interpreted and is carried verbatim.
func (b Block) IsOpaque() bool {
	return b.raw != nil
}

// Raw returns the original JSON of an opaque block.
func (b Block) Raw() json.RawMessage {
	return b.raw
}

func (b Block) MarshalJSON() ([]byte, error) {
	if b.raw != nil {
		return b.raw, nil
	}

	content := b.Content
	if content == nil {
		content = newContent(b.Type)
	}
	var contentJSON json.RawMessage = []byte("{}")
	if content != nil {
		data, err := json.Marshal(content)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal content of block %s: %w", b.ID, err)
		}
		contentJSON = data
	}

	style, err := json.Marshal(b.Style)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal style of block %s: %w", b.ID, err)
	}

	return encodeObject(blockJSON{
		ID:      encodeID(b.ID, b.numericID),
		Type:    b.Type,
		Content: contentJSON,
		Style:   style,
	}, b.extra)
}

// UnmarshalJSON never fails: anything that cannot be read as a block is kept opaque.
func (b *Block) UnmarshalJSON(data []byte) error {
	*b = decodeBlock(data)
	return nil
}

func decodeBlock(data []byte) Block {
	data = bytes.TrimSpace(data)
	opaque := Block{raw: append(json.RawMessage(nil), data...)}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return opaque
	}

	id, numeric, ok := decodeID(fields["id"])
	if !ok {
		return opaque
	}
	opaque.ID = id

	var t BlockType
	if raw, present := fields["type"]; present {
		if err := json.Unmarshal(raw, &t); err != nil {
			return opaque
		}
	}
	opaque.Type = t

	content, err := decodeContent(t, fields["content"])
	if err != nil {
		return opaque
	}

	b := Block{ID: id, Type: t, Content: content, numericID: numeric}
	if raw, present := fields["style"]; present {
		_ = json.Unmarshal(raw, &b.Style)
	}
	for key, raw := range fields {
		if !blockKeys[key] {
			b.extra.set(key, raw)
		}
	}
	return b
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	out := Block{ID: b.ID, Type: b.Type, Style: b.Style.Clone(), numericID: b.numericID, extra: b.extra.clone()}
	if b.Content != nil {
		out.Content = b.Content.clone()
	}
	if b.raw != nil {
		out.raw = append(json.RawMessage(nil), b.raw...)
	}
	return out
}

// Text returns the content as TextContent, or nil when the block is not a text block.
func (b Block) Text() *TextContent {
	c, _ := b.Content.(*TextContent)
	return c
}

func (b Block) Image() *ImageContent {
	c, _ := b.Content.(*ImageContent)
	return c
}

func (b Block) Video() *VideoContent {
	c, _ := b.Content.(*VideoContent)
	return c
}

func (b Block) Button() *ButtonContent {
	c, _ := b.Content.(*ButtonContent)
	return c
}

func (b Block) Table() *TableContent {
	c, _ := b.Content.(*TableContent)
	return c
}

func (b Block) Card() *CardContent {
	c, _ := b.Content.(*CardContent)
	return c
}

// Section is an ordered container of blocks with its own background and padding.
type Section struct {
	ID       string
	Style    Style
	Children []Block

	numericID   bool
	rawID       json.RawMessage
	rawChildren json.RawMessage
	extra       objectExtras
}

var sectionKeys = map[string]bool{"id": true, "type": true, "style": true, "children": true}

func (s Section) MarshalJSON() ([]byte, error) {
	var id interface{} = encodeID(s.ID, s.numericID)
	if s.rawID != nil && s.ID == "" {
		id = s.rawID
	}

	var children interface{} = s.Children
	switch {
	case len(s.Children) == 0 && s.rawChildren != nil:
		children = s.rawChildren
	case s.Children == nil:
		children = []Block{}
	}

	return encodeObject(struct {
		ID       interface{} `json:"id"`
		Type     string      `json:"type"`
		Style    Style       `json:"style"`
		Children interface{} `json:"children"`
	}{
		ID:       id,
		Type:     SectionType,
		Style:    s.Style,
		Children: children,
	}, s.extra)
}

// UnmarshalJSON decodes a section without ever failing. An unreadable id or a
// children value that is not a list is kept as read and written back on save.
func (s *Section) UnmarshalJSON(data []byte) error {
	*s = decodeSection(data)
	return nil
}

func decodeSection(data []byte) Section {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(data), &fields); err != nil || fields == nil {
		return Section{Children: []Block{}}
	}

	var s Section
	if id, numeric, ok := decodeID(fields["id"]); ok {
		s.ID, s.numericID = id, numeric
	} else {
		s.rawID = append(json.RawMessage(nil), fields["id"]...)
	}

	if raw, present := fields["style"]; present {
		_ = json.Unmarshal(raw, &s.Style)
	}

	s.Children = []Block{}
	if raw := bytes.TrimSpace(fields["children"]); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		var children []json.RawMessage
		if err := json.Unmarshal(raw, &children); err != nil {
			s.rawChildren = append(json.RawMessage(nil), raw...)
		} else {
			s.Children = decodeBlockList(children)
		}
	}

	for key, raw := range fields {
		if !sectionKeys[key] {
			s.extra.set(key, raw)
		}
	}
	return s
}

// Clone returns a deep copy of the section and all of its children.
func (s Section) Clone() Section {
	out := Section{
		ID:        s.ID,
		Style:     s.Style.Clone(),
		Children:  make([]Block, len(s.Children)),
		numericID: s.numericID,
		extra:     s.extra.clone(),
	}
	if s.rawID != nil {
		out.rawID = append(json.RawMessage(nil), s.rawID...)
	}
	if s.rawChildren != nil {
		out.rawChildren = append(json.RawMessage(nil), s.rawChildren...)
	}
	for i, child := range s.Children {
		out.Children[i] = child.Clone()
	}
	return out
}

// BlockIndex returns the position of the block with the given id, or -1.
func (s Section) BlockIndex(id string) int {
	for i, child := range s.Children {
		if child.ID == id {
			return i
		}
	}
	return -1
}

// CloneSections deep-copies a section list.
func CloneSections(sections []Section) []Section {
	out := make([]Section, len(sections))
	for i, s := range sections {
		out[i] = s.Clone()
	}
	return out
}

// FindBlock returns the first block with the given id across all sections.
func FindBlock(sections []Section, id string) (Block, bool) {
	for _, s := range sections {
		if i := s.BlockIndex(id); i >= 0 {
			return s.Children[i], true
		}
	}
	return Block{}, false
}

// CountBlocks returns the number of blocks across all sections.
func CountBlocks(sections []Section) int {
	n := 0
	for _, s := range sections {
		n += len(s.Children)
	}
	return n
}

// decodeBlockList decodes every element, keeping the ones that are not blocks as opaque.
func decodeBlockList(raws []json.RawMessage) []Block {
	blocks := make([]Block, 0, len(raws))
	for _, raw := range raws {
		blocks = append(blocks, decodeBlock(raw))
	}
	return blocks
}
