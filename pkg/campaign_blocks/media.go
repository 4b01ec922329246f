package campaign_blocks

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	youTubeIDPattern = regexp.MustCompile(`^.*(youtu.be\/|v\/|u\/\w\/|embed\/|watch\?v=|&v=)([^#&?]*).*`)
	vimeoIDPattern   = regexp.MustCompile(`vimeo\.com\/(?:video\/)?(\d+)`)
)

// IsYouTubeURL reports whether the URL points at YouTube.
func IsYouTubeURL(url string) bool {
	return strings.Contains(url, "youtube") || strings.Contains(url, "youtu.be")
}

// IsVimeoURL reports whether the URL points at Vimeo.
func IsVimeoURL(url string) bool {
	return strings.Contains(url, "vimeo.com")
}

// YouTubeID extracts the 11 character video id from any of the common YouTube URL forms.
func YouTubeID(url string) (string, bool) {
	match := youTubeIDPattern.FindStringSubmatch(url)
	if match == nil || len(match[2]) != 11 {
		return "", false
	}
	return match[2], true
}

// VimeoID extracts the numeric id of a Vimeo video.
func VimeoID(url string) (string, bool) {
	match := vimeoIDPattern.FindStringSubmatch(url)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// YouTubeEmbedURL returns the embeddable player URL. Autoplay is always paired with mute.
func YouTubeEmbedURL(id string, autoPlay bool) string {
	url := "https://www.youtube.com/embed/" + id
	if autoPlay {
		url += "?autoplay=1&mute=1"
	}
	return url
}

// VimeoEmbedURL returns the embeddable Vimeo player URL.
func VimeoEmbedURL(id string, autoPlay bool) string {
	url := "https://player.vimeo.com/video/" + id
	if autoPlay {
		url += "?autoplay=1&muted=1"
	}
	return url
}

// RGBA composites a hex color with an opacity as a CSS rgba() value.
// Both #rgb and #rrggbb are understood; anything else yields black.
func RGBA(hex string, opacity float64) string {
	if hex == "" {
		hex = "#ffffff"
	}
	var r, g, b uint64
	switch len(hex) {
	case 4:
		r = parseHexByte(hex[1:2] + hex[1:2])
		g = parseHexByte(hex[2:3] + hex[2:3])
		b = parseHexByte(hex[3:4] + hex[3:4])
	case 7:
		r = parseHexByte(hex[1:3])
		g = parseHexByte(hex[3:5])
		b = parseHexByte(hex[5:7])
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, strconv.FormatFloat(opacity, 'f', -1, 64))
}

func parseHexByte(s string) uint64 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return v
}

// IsDirectURL reports whether a media reference can be used as is,
// as opposed to an opaque storage reference that must be resolved first.
func IsDirectURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "//") ||
		strings.HasPrefix(lower, "data:")
}

// IsStorageRef reports whether ref is a non-empty storage reference.
func IsStorageRef(ref string) bool {
	return ref != "" && !IsDirectURL(ref)
}
