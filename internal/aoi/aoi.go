// Package aoi loads areas of interest from GeoJSON files and derives the
// canonical label used to key orders and storage paths.
package aoi

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/paulmach/orb/geojson"

	"skyhaul/internal/geometry"
)

// AOI is a named area of interest.
type AOI struct {
	// Label is the normalized name used in order records and storage paths.
	Label    string
	Geometry *geojson.Geometry
	AreaSqKm float64
}

// Load reads an AOI from a GeoJSON file. The file may hold a bare geometry,
// a Feature, or a FeatureCollection; multiple features merge into one
// geometry. The label derives from the file name.
func Load(path string) (*AOI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read aoi file: %w", err)
	}
	g, err := ParseGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &AOI{
		Label:    NormalizeLabel(stem),
		Geometry: g,
		AreaSqKm: geometry.AreaSqKm(g),
	}, nil
}

// ParseGeometry extracts a single geometry from GeoJSON input.
func ParseGeometry(data []byte) (*geojson.Geometry, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("invalid geojson: %w", err)
	}

	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature collection: %w", err)
		}
		geoms := make([]*geojson.Geometry, 0, len(fc.Features))
		for _, feature := range fc.Features {
			if feature.Geometry == nil {
				continue
			}
			geoms = append(geoms, geojson.NewGeometry(feature.Geometry))
		}
		if len(geoms) == 0 {
			return nil, errors.New("feature collection has no geometries")
		}
		return geometry.Union(geoms...)
	case "Feature":
		feature, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature: %w", err)
		}
		if feature.Geometry == nil {
			return nil, errors.New("feature has no geometry")
		}
		return geojson.NewGeometry(feature.Geometry), nil
	case "":
		return nil, errors.New("geojson missing type")
	default:
		g := &geojson.Geometry{}
		if err := g.UnmarshalJSON(data); err != nil {
			return nil, fmt.Errorf("decode geometry: %w", err)
		}
		return g, nil
	}
}

var (
	labelPrefix = regexp.MustCompile(`^(DrySpy_)?AOI_`)
	labelSuffix = regexp.MustCompile(`(?i)_(central|north|south|east|west)$`)
)

// NormalizeLabel strips the AOI file prefix and any directional suffix so
// that split areas share one label.
func NormalizeLabel(name string) string {
	name = labelPrefix.ReplaceAllString(name, "")
	return labelSuffix.ReplaceAllString(name, "")
}
