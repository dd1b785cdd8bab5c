package catalog_test

import (
	"testing"

	"skyhaul/internal/catalog"
)

func TestParseBands(t *testing.T) {
	for _, valid := range []string{"four_bands", "Eight_Bands", " FOUR_BANDS "} {
		if _, err := catalog.ParseBands(valid); err != nil {
			t.Errorf("ParseBands(%q): %v", valid, err)
		}
	}
	if _, err := catalog.ParseBands("sixteen_bands"); err == nil {
		t.Error("ParseBands accepted unknown value")
	}
}

func TestSearchBundle(t *testing.T) {
	cases := []struct {
		name      string
		bands     catalog.Bands
		startYear int
		override  string
		want      string
	}{
		{"four bands", catalog.BandsFour, 2023, "", "ortho_analytic_4b_sr"},
		{"eight bands recent", catalog.BandsEight, 2021, "", "ortho_analytic_8b_sr"},
		{"eight bands predates sensor", catalog.BandsEight, 2020, "", "ortho_analytic_4b_sr"},
		{"override wins", catalog.BandsFour, 2023, "custom_bundle", "custom_bundle"},
		{"override wins over eight bands", catalog.BandsEight, 2023, "custom_bundle", "custom_bundle"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := catalog.SearchBundle(tc.bands, tc.startYear, tc.override); got != tc.want {
				t.Errorf("SearchBundle = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestOrderBundle(t *testing.T) {
	cases := map[string]string{
		"ortho_analytic_4b_sr": "analytic_sr_udm2",
		"ortho_analytic_8b_sr": "analytic_8b_sr_udm2",
		"custom_bundle":        "custom_bundle",
	}
	for in, want := range cases {
		if got := catalog.OrderBundle(in); got != want {
			t.Errorf("OrderBundle(%q) = %q, want %q", in, got, want)
		}
	}
}
