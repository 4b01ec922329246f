package campaign_blocks

import (
	"bytes"
	"encoding/json"
)

// MigratedSectionID is the id given to the section synthesized around a legacy flat block list.
const MigratedSectionID = "sec_migrated"

// SchemaVersion is stamped on documents written in the section-wrapped shape.
const SchemaVersion = 2

// MigratedSectionStyle is the style of the section wrapping legacy blocks.
func MigratedSectionStyle() Style {
	return Style{
		BackgroundColor:   "#ffffff",
		BackgroundOpacity: OpacityPtr(1),
		Padding:           "20px",
	}
}

// Normalize converts a persisted blocks payload into the canonical section list.
//
// An empty, null or non-array payload yields an empty list. When the first element
// is tagged "section" the payload is already in the current shape and is decoded
// as is. Anything else, including a first element that is not a recognizable block,
// is treated as a legacy flat block list and wrapped in a single section.
// Normalize never fails.
func Normalize(raw json.RawMessage) []Section {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []Section{}
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil || len(elements) == 0 {
		return []Section{}
	}

	if sniffType(elements[0]) == SectionType {
		return decodeSections(elements)
	}

	return []Section{{
		ID:       MigratedSectionID,
		Style:    MigratedSectionStyle(),
		Children: decodeBlockList(elements),
	}}
}

// NormalizeValue normalizes an already decoded payload.
func NormalizeValue(v interface{}) []Section {
	if v == nil {
		return []Section{}
	}
	if raw, ok := v.(json.RawMessage); ok {
		return Normalize(raw)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return []Section{}
	}
	return Normalize(data)
}

// IsLegacy reports whether a persisted payload would be migrated by Normalize.
func IsLegacy(raw json.RawMessage) bool {
	var elements []json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(raw), &elements); err != nil || len(elements) == 0 {
		return false
	}
	return sniffType(elements[0]) != SectionType
}

// Marshal serializes a section list for persistence. A nil list is written as [].
func Marshal(sections []Section) (json.RawMessage, error) {
	if sections == nil {
		sections = []Section{}
	}
	return json.Marshal(sections)
}

func sniffType(raw json.RawMessage) string {
	var probe struct {
		Type interface{} `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	s, _ := probe.Type.(string)
	return s
}

// decodeSections decodes a current-shape payload whose first element is a section.
// Stray non-section elements following a section are kept as blocks of the preceding section.
func decodeSections(elements []json.RawMessage) []Section {
	sections := make([]Section, 0, len(elements))
	sections = append(sections, decodeSection(elements[0]))
	for _, raw := range elements[1:] {
		if sniffType(raw) != SectionType {
			last := &sections[len(sections)-1]
			last.Children = append(last.Children, decodeBlock(raw))
			continue
		}
		sections = append(sections, decodeSection(raw))
	}
	return sections
}
