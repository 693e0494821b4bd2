package catalog

import (
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/w-datascientist/arbovirose/internal/model"
)

// Feature property names used by the municipality dataset.
const (
	propName       = "_id"
	propGeocode    = "cod_mun"
	propPopulation = "populacao"
)

// ReadGeoJSON decodes a FeatureCollection whose features carry _id,
// cod_mun and populacao properties. Features without a name or geocode
// are skipped.
func ReadGeoJSON(r io.Reader) ([]model.Municipality, error) {
	var fc geojson.FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, eris.Wrap(err, "catalog: decode geojson")
	}

	log := zap.L().With(zap.String("component", "catalog"))

	munis := make([]model.Municipality, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f == nil {
			continue
		}
		name, _ := f.Properties[propName].(string)
		name = strings.TrimSpace(name)
		geocode, ok := intProperty(f.Properties[propGeocode])
		if name == "" || !ok {
			log.Debug("catalog: skipping feature without name or geocode", zap.Int("index", i))
			continue
		}
		pop, _ := intProperty(f.Properties[propPopulation])

		munis = append(munis, model.Municipality{
			Name:       name,
			Geocode:    geocode,
			Population: max(pop, 0),
			Geometry:   toMultiPolygon(f.Geometry),
		})
	}
	return munis, nil
}

// WriteGeoJSON encodes municipalities as a FeatureCollection with the same
// property names ReadGeoJSON expects.
func WriteGeoJSON(w io.Writer, munis []*model.Municipality) error {
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(munis))}
	for _, m := range munis {
		fc.Features = append(fc.Features, ToFeature(m))
	}
	if err := json.NewEncoder(w).Encode(&fc); err != nil {
		return eris.Wrap(err, "catalog: encode geojson")
	}
	return nil
}

// ToFeature converts a municipality to a GeoJSON feature.
func ToFeature(m *model.Municipality) *geojson.Feature {
	f := &geojson.Feature{
		ID: strconv.FormatInt(m.Geocode, 10),
		Properties: map[string]interface{}{
			propName:       m.Name,
			propGeocode:    m.Geocode,
			propPopulation: m.Population,
		},
	}
	if m.Geometry != nil {
		f.Geometry = m.Geometry
	}
	return f
}

func toMultiPolygon(g geom.T) *geom.MultiPolygon {
	switch g := g.(type) {
	case *geom.MultiPolygon:
		return g
	case *geom.Polygon:
		mp := geom.NewMultiPolygon(g.Layout()).SetSRID(g.SRID())
		if err := mp.Push(g); err != nil {
			return nil
		}
		return mp
	}
	return nil
}

// intProperty accepts JSON numbers and numeric strings.
func intProperty(v interface{}) (int64, bool) {
	switch v := v.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(math.Round(v)), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return intProperty(f)
		}
	}
	return 0, false
}
