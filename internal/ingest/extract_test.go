package ingest

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chengdutrip/spotsync/internal/source"
	"github.com/chengdutrip/spotsync/internal/spot"
	"github.com/chengdutrip/spotsync/pkg/amap"
	"github.com/chengdutrip/spotsync/pkg/coord"
)

// fakeGeocoder resolves from a fixed query table; unknown queries are
// unmatched. Safe for the extractor's concurrent calls.
type fakeGeocoder struct {
	mu      sync.Mutex
	results map[string]amap.Result
	err     error
	calls   int
}

func (f *fakeGeocoder) Resolve(_ context.Context, query string) (*amap.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if res, ok := f.results[query]; ok {
		return &res, nil
	}
	return &amap.Result{Matched: false}, nil
}

func ff(v float64) *source.FlexFloat {
	f := source.FlexFloat(v)
	return &f
}

func newTestExtractor(g amap.Client) *Extractor {
	return NewExtractor(g, spot.NewClassifier(), spot.NewMatcher(), WithGeocodeConcurrency(2))
}

func TestExtract_SkipsItemsWithoutIDOrName(t *testing.T) {
	e := newTestExtractor(&fakeGeocoder{})
	page := &source.Page{Attractions: []source.Item{
		{Card: source.Card{POIID: 0, POIName: "无ID景点"}},
		{Card: source.Card{POIID: 11, POIName: ""}},
		{Card: source.Card{POIID: 12, POIName: "青城山景区"}},
	}}

	out := e.Extract(context.Background(), page)
	require.Len(t, out, 1)
	assert.Equal(t, int64(12), out[0].ID)
}

func TestExtract_FieldFallbacks(t *testing.T) {
	e := newTestExtractor(&fakeGeocoder{})
	page := &source.Page{Attractions: []source.Item{
		{Card: source.Card{POIID: 1, POIName: "都江堰", ZoneName: "都江堰市", MarketPrice: ff(80)}},
		{Card: source.Card{POIID: 2, POIName: "文殊院", Address: "青羊区", Price: ff(0), PriceTypeDesc: "¥50-¥80"}},
		{Card: source.Card{POIID: 3, POIName: "锦里小吃街", PriceTypeDesc: "¥50-¥80"}},
	}}

	out := e.Extract(context.Background(), page)
	require.Len(t, out, 3)

	// address falls back to zoneName; price falls back to marketPrice.
	assert.Equal(t, "都江堰市", out[0].Address)
	assert.Equal(t, 80.0, out[0].Price)

	// explicit price wins even at zero.
	assert.Equal(t, "青羊区", out[1].Address)
	assert.Equal(t, 0.0, out[1].Price)

	// no numeric price fields: parse the descriptive text, range lower bound.
	assert.Equal(t, 50.0, out[2].Price)
}

func TestExtract_ClassifiesAndDescribes(t *testing.T) {
	e := newTestExtractor(&fakeGeocoder{})
	page := &source.Page{Attractions: []source.Item{
		{Card: source.Card{
			POIID:         1,
			POIName:       "黄龙溪古镇",
			ShortFeatures: []string{"千年水乡", " ", "免费开放"},
			TagList:       []source.Tag{{TagName: "古镇"}, {TagName: ""}},
			Highlights:    "川西民俗风情",
		}},
	}}

	out := e.Extract(context.Background(), page)
	require.Len(t, out, 1)
	assert.Equal(t, spot.CategoryHistory, out[0].Category)
	assert.Equal(t, "千年水乡 | 免费开放 | 古镇 | 川西民俗风情", out[0].Description)
}

func TestExtract_GeocodeMatchConverted(t *testing.T) {
	g := &fakeGeocoder{results: map[string]amap.Result{
		"宽窄巷子": {Longitude: 104.0665, Latitude: 30.5723, Matched: true},
	}}
	e := newTestExtractor(g)
	page := &source.Page{Attractions: []source.Item{
		{Card: source.Card{POIID: 1, POIName: "宽窄巷子", Coordinate: &source.Coordinate{Longitude: 1, Latitude: 1}}},
	}}

	out := e.Extract(context.Background(), page)
	require.Len(t, out, 1)
	require.True(t, out[0].HasCoordinates())

	wantLng, wantLat := coord.GCJ02ToWGS84(104.0665, 30.5723)
	assert.InDelta(t, wantLng, *out[0].Longitude, 1e-9)
	assert.InDelta(t, wantLat, *out[0].Latitude, 1e-9)
}

func TestExtract_GeocodeUnmatchedFallsBackToCard(t *testing.T) {
	e := newTestExtractor(&fakeGeocoder{})
	page := &source.Page{Attractions: []source.Item{
		{Card: source.Card{POIID: 1, POIName: "无名小巷", Coordinate: &source.Coordinate{Longitude: 104.0617, Latitude: 30.6636}}},
	}}

	out := e.Extract(context.Background(), page)
	require.Len(t, out, 1)
	require.True(t, out[0].HasCoordinates())

	wantLng, wantLat := coord.GCJ02ToWGS84(104.0617, 30.6636)
	assert.InDelta(t, wantLng, *out[0].Longitude, 1e-9)
	assert.InDelta(t, wantLat, *out[0].Latitude, 1e-9)
}

func TestExtract_GeocodeErrorFallsBack(t *testing.T) {
	g := &fakeGeocoder{err: eris.New("amap: returned status 500")}
	e := newTestExtractor(g)
	page := &source.Page{Attractions: []source.Item{
		{Card: source.Card{POIID: 1, POIName: "青羊宫", Coordinate: &source.Coordinate{Longitude: 104.04, Latitude: 30.67}}},
		{Card: source.Card{POIID: 2, POIName: "无坐标景点"}},
	}}

	out := e.Extract(context.Background(), page)
	require.Len(t, out, 2)
	assert.True(t, out[0].HasCoordinates())
	assert.False(t, out[1].HasCoordinates())
	assert.Nil(t, out[1].Longitude)
}

func TestExtract_InPageDedup(t *testing.T) {
	e := newTestExtractor(&fakeGeocoder{})
	// Same name, coordinates ~100m apart: similar, second one dropped.
	page := &source.Page{Attractions: []source.Item{
		{Card: source.Card{POIID: 1, POIName: "宽窄巷子", Coordinate: &source.Coordinate{Longitude: 104.0617, Latitude: 30.6636}}},
		{Card: source.Card{POIID: 2, POIName: "宽窄巷子", Coordinate: &source.Coordinate{Longitude: 104.0620, Latitude: 30.6640}}},
		{Card: source.Card{POIID: 3, POIName: "大熊猫繁育研究基地", Coordinate: &source.Coordinate{Longitude: 104.1465, Latitude: 30.7345}}},
	}}

	out := e.Extract(context.Background(), page)
	require.Len(t, out, 2)
	// First-seen wins, order stable.
	assert.Equal(t, int64(1), out[0].ID)
	assert.Equal(t, int64(3), out[1].ID)
}

func TestExtract_NilGeocoder(t *testing.T) {
	e := NewExtractor(nil, spot.NewClassifier(), spot.NewMatcher())
	page := &source.Page{Attractions: []source.Item{
		{Card: source.Card{POIID: 1, POIName: "人民公园", Coordinate: &source.Coordinate{Longitude: 104.055, Latitude: 30.664}}},
	}}

	out := e.Extract(context.Background(), page)
	require.Len(t, out, 1)
	assert.True(t, out[0].HasCoordinates())
}
