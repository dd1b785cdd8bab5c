// Package selection thins a flat search result down to at most one scene
// per cadence interval.
package selection

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb/geojson"

	"skyhaul/internal/catalog"
	"skyhaul/internal/daterange"
	"skyhaul/internal/geometry"
)

// Selected pairs a scene with its computed AOI coverage and the cadence
// interval it won.
type Selected struct {
	Scene       catalog.Scene
	CoveragePct float64
	IntervalKey string
}

// Select drops scenes covering less than minCoveragePct of the AOI, groups
// the rest by cadence interval, and keeps the highest-coverage scene per
// interval with ties going to the earliest acquisition. Results come back
// sorted by interval key.
func Select(scenes []catalog.Scene, aoiGeom *geojson.Geometry, cadence daterange.Cadence, minCoveragePct float64) ([]Selected, error) {
	groups := make(map[string][]Selected)
	for _, scene := range scenes {
		cov, err := geometry.Coverage(scene.Geometry, aoiGeom)
		if err != nil {
			return nil, fmt.Errorf("coverage for scene %s: %w", scene.ID, err)
		}
		if cov < minCoveragePct {
			continue
		}
		key := daterange.IntervalKey(scene.Properties.Acquired, cadence)
		groups[key] = append(groups[key], Selected{
			Scene:       scene,
			CoveragePct: cov,
			IntervalKey: key,
		})
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	selected := make([]Selected, 0, len(keys))
	for _, key := range keys {
		group := groups[key]
		sort.Slice(group, func(i, j int) bool {
			if group[i].CoveragePct != group[j].CoveragePct {
				return group[i].CoveragePct > group[j].CoveragePct
			}
			return group[i].Scene.Properties.Acquired.Before(group[j].Scene.Properties.Acquired)
		})
		selected = append(selected, group[0])
	}
	return selected, nil
}

// ItemIDs lists the scene identifiers of a selection, in order.
func ItemIDs(selected []Selected) []string {
	ids := make([]string, len(selected))
	for i, s := range selected {
		ids[i] = s.Scene.ID
	}
	return ids
}
