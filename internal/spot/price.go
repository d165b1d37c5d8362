package spot

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// priceRe matches decimal amounts, optionally preceded by a yen glyph.
var priceRe = regexp.MustCompile(`(?:￥|¥)?(\d+(?:\.\d+)?)`)

// ParsePrice extracts the minimum listed price from free-form price text.
// Price ranges report the lower bound. Empty input, 免费 markers and text
// without any numeric amount all degrade to 0; ParsePrice never fails.
func ParsePrice(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if strings.Contains(raw, "免费") {
		return 0
	}

	// Upstream text mixes full-width digits (６０) and yen signs (￥) in;
	// fold them to their ASCII forms before extraction.
	raw = width.Narrow.String(raw)

	matches := priceRe.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return 0
	}

	lowest := math.MaxFloat64
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if v < lowest {
			lowest = v
		}
	}
	if lowest == math.MaxFloat64 {
		return 0
	}
	return lowest
}
