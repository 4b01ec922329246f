package campaign_blocks

import (
	"math/rand/v2"
	"strconv"
	"time"
)

const (
	SectionIDPrefix = "sec_"
	BlockIDPrefix   = "blk_"
)

// IDGenerator returns a new opaque id starting with prefix.
type IDGenerator func(prefix string) string

// GenerateID builds ids as prefix + base36 milliseconds + five random base36 characters.
func GenerateID(prefix string) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return prefix + strconv.FormatInt(time.Now().UnixMilli(), 36) + string(suffix)
}

// NewSectionStyle is the style given to sections created in the editor.
func NewSectionStyle() Style {
	return Style{
		BackgroundColor:   "#ffffff",
		BackgroundOpacity: OpacityPtr(1),
		Padding:           "20px 0px",
	}
}

// DefaultContent returns the starter content of a freshly created block.
func DefaultContent(t BlockType) Content {
	switch t {
	case BlockTypeText:
		return &TextContent{Text: "여기에 텍스트를 입력하세요."}
	case BlockTypeButton:
		return &ButtonContent{Text: "클릭하세요", URL: "#"}
	case BlockTypeImage:
		return &ImageContent{Alt: "이미지 설명"}
	case BlockTypeVideo:
		return &VideoContent{}
	case BlockTypeSpacer:
		return &SpacerContent{}
	case BlockTypeTable:
		return &TableContent{
			Rows: [][]string{
				{"항목", "내용"},
				{"", ""},
			},
		}
	case BlockTypeCard:
		return &CardContent{
			Title:      "카드 제목",
			Text:       "내용을 입력하세요.",
			BadgeText:  "01",
			BulletType: BulletNone,
		}
	default:
		return nil
	}
}

// DefaultStyle returns the starter style of a freshly created block.
// Defaults are applied only at creation time.
func DefaultStyle(t BlockType) Style {
	switch t {
	case BlockTypeText:
		return Style{
			FontSize:        "16px",
			Color:           "#000000",
			BackgroundColor: "transparent",
			TextAlign:       "left",
			FontWeight:      "normal",
			FontFamily:      "sans-serif",
			Padding:         "10px",
		}
	case BlockTypeButton:
		return Style{
			BackgroundColor: "#000000",
			Color:           "#ffffff",
			BorderRadius:    "4px",
			Padding:         "12px 20px",
			Width:           "100%",
			TextAlign:       "center",
			FontSize:        "16px",
		}
	case BlockTypeImage:
		return Style{
			Width:        "100%",
			BorderRadius: "0px",
			TextAlign:    "center",
		}
	case BlockTypeSpacer:
		return Style{Height: "20px"}
	case BlockTypeTable:
		return Style{
			FontSize:        "14px",
			Color:           "#000000",
			BackgroundColor: "#ffffff",
			BorderColor:     "#e5e7eb",
			TextAlign:       "center",
			Padding:         "8px",
		}
	case BlockTypeCard:
		return Style{
			BackgroundColor: "#ffffff",
			BorderRadius:    "12px",
			Padding:         "20px",
			AccentSide:      AccentSideTop,
			AccentColor:     "#a50034",
			Color:           "#111111",
			FontSize:        "14px",
		}
	default:
		return Style{}
	}
}

// NewDefaultBlock creates a block of type t with its default content and style.
func NewDefaultBlock(id string, t BlockType) Block {
	return NewBlock(id, t, DefaultContent(t), DefaultStyle(t))
}
