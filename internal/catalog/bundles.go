package catalog

import (
	"fmt"
	"strings"
)

// Bands selects the spectral depth of ordered imagery.
type Bands string

const (
	BandsFour  Bands = "four_bands"
	BandsEight Bands = "eight_bands"
)

// ParseBands validates a band selection label.
func ParseBands(value string) (Bands, error) {
	switch Bands(strings.ToLower(strings.TrimSpace(value))) {
	case BandsFour:
		return BandsFour, nil
	case BandsEight:
		return BandsEight, nil
	}
	return "", fmt.Errorf("invalid band selection %q: must be four_bands or eight_bands", value)
}

// SearchBundle picks the asset bundle to search for. An explicit override
// wins. Eight band surface reflectance only exists from 2021 onward, so
// earlier windows fall back to four bands.
func SearchBundle(bands Bands, startYear int, override string) string {
	if override != "" {
		return override
	}
	if bands == BandsEight && startYear >= 2021 {
		return "ortho_analytic_8b_sr"
	}
	return "ortho_analytic_4b_sr"
}

// OrderBundle maps a search bundle onto the bundle name the ordering
// endpoint expects. Unknown bundles pass through unchanged.
func OrderBundle(searchBundle string) string {
	switch searchBundle {
	case "ortho_analytic_4b_sr":
		return "analytic_sr_udm2"
	case "ortho_analytic_8b_sr":
		return "analytic_8b_sr_udm2"
	}
	return searchBundle
}
