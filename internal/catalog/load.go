package catalog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/w-datascientist/arbovirose/internal/model"
)

// Load reads the catalog at path, choosing the shapefile reader for .shp
// files and GeoJSON otherwise. Any failure, including an empty dataset,
// is reported as model.ErrCatalogUnavailable.
func Load(path string) (*Catalog, error) {
	var (
		munis []model.Municipality
		err   error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		munis, err = ReadShapefile(path)
	default:
		munis, err = readGeoJSONFile(path)
	}
	if err != nil {
		return nil, eris.Wrapf(model.ErrCatalogUnavailable, "catalog: load %s: %v", path, err)
	}
	if len(munis) == 0 {
		return nil, eris.Wrapf(model.ErrCatalogUnavailable, "catalog: load %s: no municipalities", path)
	}

	c := New(munis)
	zap.L().Info("catalog loaded",
		zap.String("component", "catalog"),
		zap.String("path", path),
		zap.Int("municipalities", c.Len()),
	)
	return c, nil
}

func readGeoJSONFile(path string) ([]model.Municipality, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: open geojson")
	}
	defer f.Close() //nolint:errcheck
	return ReadGeoJSON(f)
}
