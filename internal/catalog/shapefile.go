package catalog

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/w-datascientist/arbovirose/internal/model"
)

// ReadShapefile loads municipalities from an ESRI shapefile whose DBF has
// the _id, cod_mun and populacao columns. The .dbf must sit next to the
// .shp.
func ReadShapefile(path string) ([]model.Municipality, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: open shapefile")
	}
	defer func() { _ = reader.Close() }()

	nameIdx := fieldIndex(reader, propName)
	codeIdx := fieldIndex(reader, propGeocode)
	popIdx := fieldIndex(reader, propPopulation)
	if nameIdx < 0 || codeIdx < 0 {
		return nil, eris.Errorf("catalog: required shapefile fields (%s, %s) not found", propName, propGeocode)
	}

	log := zap.L().With(zap.String("component", "catalog"))

	var munis []model.Municipality
	for reader.Next() {
		row, shape := reader.Shape()

		name := attribute(reader, nameIdx)
		geocode, err := strconv.ParseInt(attribute(reader, codeIdx), 10, 64)
		if name == "" || err != nil {
			log.Debug("catalog: skipping shapefile row without name or geocode", zap.Int("row", row))
			continue
		}

		var pop int64
		if popIdx >= 0 {
			if f, err := strconv.ParseFloat(attribute(reader, popIdx), 64); err == nil && f > 0 {
				pop = int64(f)
			}
		}

		var mp *geom.MultiPolygon
		if poly, ok := shape.(*shp.Polygon); ok {
			mp = polygonToMultiPolygon(poly)
		}

		munis = append(munis, model.Municipality{
			Name:       name,
			Geocode:    geocode,
			Population: pop,
			Geometry:   mp,
		})
	}

	return munis, nil
}

func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// attribute trims the space and NUL padding of a DBF value.
func attribute(reader *shp.Reader, idx int) string {
	return strings.Trim(reader.Attribute(idx), " \x00")
}

// polygonToMultiPolygon converts shapefile parts to polygons. Clockwise
// rings start a new polygon; counter-clockwise rings are holes of the
// polygon before them.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	var current *geom.Polygon

	flush := func() {
		if current == nil {
			return
		}
		if err := mp.Push(current); err != nil {
			zap.L().Debug("catalog: skipping malformed polygon", zap.Error(err))
		}
		current = nil
	}

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if start < 0 || end > int32(len(p.Points)) || end-start < 3 {
			continue
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		if current == nil || signedArea(flat) < 0 {
			flush()
			current = geom.NewPolygon(geom.XY)
		}
		if err := current.Push(ring); err != nil {
			zap.L().Debug("catalog: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
		}
	}
	flush()

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// signedArea is negative for clockwise rings.
func signedArea(flat []float64) float64 {
	var sum float64
	n := len(flat) / 2
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += flat[2*i]*flat[2*j+1] - flat[2*j]*flat[2*i+1]
	}
	return sum / 2
}
