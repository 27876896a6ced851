package render

import (
	"strconv"
	"strings"
)

// parseHexColor parses an RRGGBB (optionally #-prefixed) color override.
// Empty or malformed values fall back to black, the drawing default.
func parseHexColor(s string) (r, g, b int) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
