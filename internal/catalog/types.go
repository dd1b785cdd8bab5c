package catalog

import (
	"time"

	"github.com/paulmach/orb/geojson"
)

// Scene is one catalog item returned by a search.
type Scene struct {
	ID         string            `json:"id"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties SceneProperties   `json:"properties"`
	Links      SceneLinks        `json:"_links"`
}

// SceneProperties carries the item metadata used by selection.
type SceneProperties struct {
	Acquired        time.Time `json:"acquired"`
	CloudCover      float64   `json:"cloud_cover"`
	QualityCategory string    `json:"quality_category"`
}

// SceneLinks holds secondary resources attached to a scene.
type SceneLinks struct {
	Thumbnail string `json:"thumbnail"`
}

// OrderStatus is the remote view of a fulfillment order.
type OrderStatus struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	State      string     `json:"state"`
	SourceType string     `json:"source_type"`
	ErrorHints []string   `json:"error_hints"`
	Links      OrderLinks `json:"_links"`
}

// OrderLinks lists the downloadable results of an order.
type OrderLinks struct {
	Results []ResultLink `json:"results"`
}

// ResultLink is one downloadable artifact.
type ResultLink struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Mosaic describes a prebuilt basemap available for ordering.
type Mosaic struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	FirstAcquired string `json:"first_acquired"`
}

type searchRequest struct {
	ItemTypes []string  `json:"item_types"`
	Filter    andFilter `json:"filter"`
}

type searchResponse struct {
	Features []Scene   `json:"features"`
	Links    pageLinks `json:"_links"`
}

type mosaicsResponse struct {
	Mosaics []Mosaic  `json:"mosaics"`
	Links   pageLinks `json:"_links"`
}

type pageLinks struct {
	Next string `json:"_next"`
}

type orderRequest struct {
	Name       string         `json:"name"`
	SourceType string         `json:"source_type,omitempty"`
	Products   []orderProduct `json:"products"`
	Tools      []orderTool    `json:"tools"`
}

type orderProduct struct {
	ItemIDs       []string          `json:"item_ids,omitempty"`
	ItemType      string            `json:"item_type,omitempty"`
	ProductBundle string            `json:"product_bundle,omitempty"`
	MosaicName    string            `json:"mosaic_name,omitempty"`
	Geometry      *geojson.Geometry `json:"geometry,omitempty"`
}

type orderTool struct {
	Clip clipTool `json:"clip"`
}

type clipTool struct {
	AOI *geojson.Geometry `json:"aoi,omitempty"`
}

type submitResponse struct {
	ID string `json:"id"`
}
