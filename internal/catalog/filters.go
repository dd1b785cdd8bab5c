package catalog

import (
	"github.com/paulmach/orb/geojson"

	"skyhaul/internal/daterange"
)

// Filter payloads mirror the service's search grammar. Heterogeneous filter
// lists marshal through any.

type andFilter struct {
	Type   string `json:"type"`
	Config []any  `json:"config"`
}

type geometryFilter struct {
	Type      string            `json:"type"`
	FieldName string            `json:"field_name"`
	Config    *geojson.Geometry `json:"config"`
}

type dateRangeFilter struct {
	Type      string          `json:"type"`
	FieldName string          `json:"field_name"`
	Config    dateRangeConfig `json:"config"`
}

type dateRangeConfig struct {
	GTE string `json:"gte"`
	LTE string `json:"lte"`
}

type rangeFilter struct {
	Type      string      `json:"type"`
	FieldName string      `json:"field_name"`
	Config    rangeConfig `json:"config"`
}

type rangeConfig struct {
	LTE float64 `json:"lte"`
}

type assetFilter struct {
	Type   string   `json:"type"`
	Config []string `json:"config"`
}

type stringInFilter struct {
	Type      string   `json:"type"`
	FieldName string   `json:"field_name"`
	Config    []string `json:"config"`
}

// searchFilter combines the geometry, acquisition window, cloud cover cap,
// asset availability, and quality tier constraints for a scene search.
func searchFilter(geom *geojson.Geometry, window daterange.Range, bundle string, cloudCoverMax float64, quality string) andFilter {
	return andFilter{
		Type: "AndFilter",
		Config: []any{
			geometryFilter{
				Type:      "GeometryFilter",
				FieldName: "geometry",
				Config:    geom,
			},
			dateRangeFilter{
				Type:      "DateRangeFilter",
				FieldName: "acquired",
				Config: dateRangeConfig{
					GTE: daterange.FormatDate(window.Start) + "T00:00:00Z",
					LTE: daterange.FormatDate(window.End) + "T23:59:59Z",
				},
			},
			rangeFilter{
				Type:      "RangeFilter",
				FieldName: "cloud_cover",
				Config:    rangeConfig{LTE: cloudCoverMax},
			},
			assetFilter{
				Type:   "AssetFilter",
				Config: []string{bundle},
			},
			stringInFilter{
				Type:      "StringInFilter",
				FieldName: "quality_category",
				Config:    []string{quality},
			},
		},
	}
}
