package source

import (
	"bytes"
	"strconv"

	"github.com/rotisserie/eris"
)

// Page is one parsed page of the attraction list API.
type Page struct {
	Attractions []Item
}

// Item wraps the per-attraction card object.
type Item struct {
	Card Card `json:"card"`
}

// Card carries the subset of the upstream card fields the extractor
// consumes. Optional fields stay pointers so absence is distinguishable
// from zero.
type Card struct {
	POIID         int64       `json:"poiId"`
	POIName       string      `json:"poiName"`
	CoverImageURL string      `json:"coverImageUrl"`
	Address       string      `json:"address"`
	ZoneName      string      `json:"zoneName"`
	Price         *FlexFloat  `json:"price"`
	MarketPrice   *FlexFloat  `json:"marketPrice"`
	PriceTypeDesc string      `json:"priceTypeDesc"`
	Coordinate    *Coordinate `json:"coordinate"`
	ShortFeatures []string    `json:"shortFeatures"`
	TagList       []Tag       `json:"tagList"`
	Highlights    string      `json:"highlights"`
}

// Coordinate is the API-supplied GCJ02 position of an attraction.
type Coordinate struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Tag is a labeled attraction tag.
type Tag struct {
	TagName string `json:"tagName"`
}

// FlexFloat decodes JSON numbers that the upstream API occasionally quotes
// as strings ("128" instead of 128).
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return eris.Wrapf(err, "source: parse numeric field %q", data)
	}
	*f = FlexFloat(v)
	return nil
}
