package model

import (
	"github.com/twpayne/go-geom"
)

// Municipality is one entry of the static municipality catalog.
type Municipality struct {
	Name       string             `json:"name" yaml:"name"`
	Geocode    int64              `json:"geocode" yaml:"geocode"`
	Population int64              `json:"population" yaml:"population"`
	Geometry   *geom.MultiPolygon `json:"-" yaml:"-"`
}

// BBox is a longitude/latitude bounding box.
type BBox struct {
	MinLon float64 `json:"min_lon" yaml:"min_lon"`
	MinLat float64 `json:"min_lat" yaml:"min_lat"`
	MaxLon float64 `json:"max_lon" yaml:"max_lon"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat"`
}

// Center returns the midpoint of the box as (lon, lat).
func (b BBox) Center() (float64, float64) {
	return (b.MinLon + b.MaxLon) / 2, (b.MinLat + b.MaxLat) / 2
}

// BBox returns the bounding box of the boundary, or false when the
// municipality has no geometry.
func (m *Municipality) BBox() (BBox, bool) {
	if m.Geometry == nil || m.Geometry.Empty() {
		return BBox{}, false
	}
	b := m.Geometry.Bounds()
	return BBox{
		MinLon: b.Min(0),
		MinLat: b.Min(1),
		MaxLon: b.Max(0),
		MaxLat: b.Max(1),
	}, true
}

// Area returns the planar area of the boundary in squared degrees.
func (m *Municipality) Area() float64 {
	if m.Geometry == nil {
		return 0
	}
	return m.Geometry.Area()
}
