package geometry

import (
	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/wkb"
	"github.com/go-spatial/geom/encoding/wkt"

	"github.com/geobench/geobench/pkg/errors"
)

// Parse decodes a WKT geometry string.
func Parse(s string) (geom.Geometry, error) {
	g, err := wkt.DecodeString(s)
	if err != nil {
		return nil, errors.Newf(errors.ErrCodeConversionFailed, "malformed WKT geometry").
			WithComponent("geometry").WithCause(err)
	}
	return g, nil
}

// Parts returns the number of single-part geometries derivable from g. A
// record with N parts expands to N output records when splitting.
func Parts(g geom.Geometry) int {
	switch mg := g.(type) {
	case geom.MultiPolygon:
		return len(mg)
	case *geom.MultiPolygon:
		return len(*mg)
	case geom.MultiLineString:
		return len(mg)
	case geom.MultiPoint:
		return len(mg)
	default:
		return 1
	}
}

// Split expands a multipart geometry into its single-part components.
// Single-part geometries come back unchanged as a one-element slice.
func Split(g geom.Geometry) []geom.Geometry {
	switch mg := g.(type) {
	case geom.MultiPolygon:
		return splitMultiPolygon(mg)
	case *geom.MultiPolygon:
		return splitMultiPolygon(*mg)
	default:
		return []geom.Geometry{g}
	}
}

func splitMultiPolygon(mp geom.MultiPolygon) []geom.Geometry {
	parts := make([]geom.Geometry, 0, len(mp))
	for _, poly := range mp {
		parts = append(parts, geom.Polygon(poly))
	}
	return parts
}

// EncodeWKB encodes a geometry as little-endian WKB, the representation both
// the GeoParquet and GeoPackage writers store.
func EncodeWKB(g geom.Geometry) ([]byte, error) {
	bs, err := wkb.EncodeBytes(g)
	if err != nil {
		return nil, errors.Newf(errors.ErrCodeConversionFailed, "cannot encode geometry as WKB").
			WithComponent("geometry").WithCause(err)
	}
	return bs, nil
}

// EncodeWKT encodes a geometry back to WKT, used by writers that keep
// geometry textual.
func EncodeWKT(g geom.Geometry) (string, error) {
	s, err := wkt.EncodeString(g)
	if err != nil {
		return "", errors.Newf(errors.ErrCodeConversionFailed, "cannot encode geometry as WKT").
			WithComponent("geometry").WithCause(err)
	}
	return s, nil
}
