// Package artifacts maps order results onto delivery destinations.
//
// Scene orders deliver one imagery raster per week into a bands/AOI layout;
// basemap orders deliver every quad under the mosaic's year_month. Keys are
// slash-separated and relative, so the same plan works for a local directory
// or an object-store bucket.
package artifacts

import (
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"skyhaul/internal/catalog"
	"skyhaul/internal/daterange"
)

// Item is one file to fetch and the destination key it lands at.
type Item struct {
	Name string
	URL  string
	Key  string
}

// Plan is the result of mapping order results onto destination keys.
type Plan struct {
	Items []Item
	// Candidates counts imagery rasters considered before weekly thinning.
	Candidates int
	// Skipped lists auxiliary files excluded from delivery (usability
	// masks, metadata sidecars, manifests).
	Skipped []string
	// Unparsed lists imagery files whose name carries no acquisition date.
	Unparsed []string
}

var (
	acquisitionPattern = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})_`)
	scenePattern       = regexp.MustCompile(`\d{8}_(\w+)_`)
)

// AcquisitionDate extracts the capture date embedded in a product filename.
func AcquisitionDate(name string) (time.Time, bool) {
	m := acquisitionPattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102", m[1]+m[2]+m[3])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SceneID extracts the scene identifier following the date block, or
// "unknown" when the name doesn't carry one.
func SceneID(name string) string {
	m := scenePattern.FindStringSubmatch(name)
	if m == nil {
		return "unknown"
	}
	return m[1]
}

// PlanScenes maps scene order results onto weekly delivery keys under
// "planetscope analytic/<bands>/<aoi>". Duplicate result names are collapsed,
// non-raster files are skipped, and within each week only the earliest
// acquisition is kept. Delivered files are renamed to
// "<yyyy_mm_dd>_<sceneID>.tiff".
func PlanScenes(results []catalog.ResultLink, aoiLabel, bands string) Plan {
	if bands == "" {
		bands = "four_bands"
	}
	prefix := path.Join("planetscope analytic", bands, aoiLabel)

	type candidate struct {
		name string
		url  string
		date time.Time
		week string
		id   string
	}

	var plan Plan
	seen := make(map[string]struct{})
	var candidates []candidate
	for _, link := range results {
		name := path.Base(link.Name)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		lower := strings.ToLower(name)
		if !strings.HasSuffix(lower, ".tif") || strings.Contains(lower, "udm") {
			plan.Skipped = append(plan.Skipped, name)
			continue
		}

		date, ok := AcquisitionDate(name)
		if !ok {
			plan.Unparsed = append(plan.Unparsed, name)
			continue
		}

		candidates = append(candidates, candidate{
			name: name,
			url:  link.Location,
			date: date,
			week: daterange.FormatDate(daterange.WeekStart(date)),
			id:   SceneID(name),
		})
	}
	plan.Candidates = len(candidates)

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].week != candidates[j].week {
			return candidates[i].week < candidates[j].week
		}
		return candidates[i].date.Before(candidates[j].date)
	})

	taken := make(map[string]struct{})
	for _, c := range candidates {
		if _, ok := taken[c.week]; ok {
			continue
		}
		taken[c.week] = struct{}{}
		fileName := c.date.Format("2006_01_02") + "_" + c.id + ".tiff"
		plan.Items = append(plan.Items, Item{
			Name: c.name,
			URL:  c.url,
			Key:  path.Join(prefix, fileName),
		})
	}
	return plan
}

// PlanMosaic maps basemap order results onto "basemaps/<aoi>/<year_month>"
// keys, keeping original file names. The year and month come from the mosaic
// name when it carries them ("global_monthly_2024_01_mosaic" -> "2024_01").
func PlanMosaic(results []catalog.ResultLink, aoiLabel, mosaicName string) Plan {
	prefix := path.Join("basemaps", aoiLabel, mosaicPeriod(mosaicName))

	var plan Plan
	for _, link := range results {
		name := path.Base(link.Name)
		plan.Items = append(plan.Items, Item{
			Name: name,
			URL:  link.Location,
			Key:  path.Join(prefix, name),
		})
	}
	plan.Candidates = len(plan.Items)
	return plan
}

func mosaicPeriod(mosaicName string) string {
	tokens := strings.Split(mosaicName, "_")
	if len(tokens) >= 4 && len(tokens[2]) == 4 {
		return tokens[2] + "_" + tokens[3]
	}
	return "unknown_date"
}
