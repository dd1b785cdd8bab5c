// Package geometry provides the footprint overlap and area primitives used
// by scene selection and quota estimation.
package geometry

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/peterstace/simplefeatures/geom"
)

// ErrEmptyArea marks an area of interest whose geometry encloses nothing.
var ErrEmptyArea = errors.New("geometry: area of interest has zero area")

// Coverage returns the share of the AOI covered by the footprint, in
// percent. Areas are planar in lon/lat coordinates.
func Coverage(footprint, aoi *geojson.Geometry) (float64, error) {
	foot, err := toGeom(footprint)
	if err != nil {
		return 0, fmt.Errorf("parse footprint: %w", err)
	}
	target, err := toGeom(aoi)
	if err != nil {
		return 0, fmt.Errorf("parse aoi: %w", err)
	}
	targetArea := target.Area()
	if targetArea == 0 {
		return 0, ErrEmptyArea
	}
	overlap, err := geom.Intersection(foot, target)
	if err != nil {
		return 0, fmt.Errorf("intersect footprint with aoi: %w", err)
	}
	return overlap.Area() / targetArea * 100, nil
}

// AreaSqKm returns the spherical area of a geometry in square kilometres.
func AreaSqKm(g *geojson.Geometry) float64 {
	if g == nil {
		return 0
	}
	return geo.Area(g.Geometry()) / 1e6
}

// Union merges geometries into one. Adjacent and overlapping regions
// dissolve into a single shape.
func Union(geoms ...*geojson.Geometry) (*geojson.Geometry, error) {
	if len(geoms) == 0 {
		return nil, errors.New("geometry: nothing to union")
	}
	if len(geoms) == 1 {
		return geoms[0], nil
	}
	merged, err := toGeom(geoms[0])
	if err != nil {
		return nil, fmt.Errorf("parse geometry 0: %w", err)
	}
	for i, g := range geoms[1:] {
		next, err := toGeom(g)
		if err != nil {
			return nil, fmt.Errorf("parse geometry %d: %w", i+1, err)
		}
		merged, err = geom.Union(merged, next)
		if err != nil {
			return nil, fmt.Errorf("union geometry %d: %w", i+1, err)
		}
	}
	return fromGeom(merged)
}

func toGeom(g *geojson.Geometry) (geom.Geometry, error) {
	if g == nil {
		return geom.Geometry{}, errors.New("nil geometry")
	}
	data, err := g.MarshalJSON()
	if err != nil {
		return geom.Geometry{}, err
	}
	return geom.UnmarshalGeoJSON(data)
}

func fromGeom(g geom.Geometry) (*geojson.Geometry, error) {
	data, err := g.MarshalJSON()
	if err != nil {
		return nil, err
	}
	out := &geojson.Geometry{}
	if err := out.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return out, nil
}
