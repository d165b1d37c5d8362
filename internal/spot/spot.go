// Package spot defines the normalized scenic-spot record and the pure
// heuristics (category classification, price parsing, similarity matching)
// applied while ingesting raw attraction data.
package spot

// Category labels a scenic spot with one of a fixed set of themes.
type Category string

// The category set mirrors the spot store's enumeration. CategoryOther is
// the fallback for names no keyword rule matches.
const (
	CategoryHistory   Category = "历史文化"
	CategoryFood      Category = "美食探索"
	CategoryNature    Category = "自然风光"
	CategoryShopping  Category = "购物娱乐"
	CategoryArt       Category = "艺术展馆"
	CategoryFolk      Category = "古镇民俗"
	CategoryThemePark Category = "主题乐园"
	CategoryResort    Category = "休闲度假"
	CategoryReligion  Category = "宗教文化"
	CategoryCityscape Category = "城市景观"
	CategoryWildlife  Category = "动物观赏"
	CategoryOther     Category = "其他"
)

// Candidate is a normalized, not-yet-persisted point of interest extracted
// from one raw API item. Identity is the source-provided ID; a candidate
// without an ID or a name never leaves the extractor.
type Candidate struct {
	ID          int64
	Name        string
	ImageURL    string
	Address     string
	Price       float64
	Category    Category
	Longitude   *float64
	Latitude    *float64
	Description string
}

// HasCoordinates reports whether both longitude and latitude are resolved.
func (c Candidate) HasCoordinates() bool {
	return c.Longitude != nil && c.Latitude != nil
}
