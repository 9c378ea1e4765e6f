package writer

import (
	shp "github.com/jonas-p/go-shp"

	"github.com/go-spatial/geom"

	"github.com/geobench/geobench/pkg/errors"
)

// dbfFieldLen is the width of every attribute field in the DBF companion
// file. The source attributes are short strings (ids, confidence scores), so
// a fixed width keeps the writer simple.
const dbfFieldLen = 64

// WriteShapefile writes the table as an ESRI shapefile. Attributes become
// fixed-width character fields; polygon and multipolygon geometries become
// POLYGON shapes, a multipolygon contributing all of its rings to one shape.
func WriteShapefile(path string, table *Table) error {
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return errors.Newf(errors.ErrCodeConversionFailed, "cannot create %s", path).
			WithComponent("writer").WithCause(err)
	}
	defer w.Close()

	fields := make([]shp.Field, len(table.Columns))
	for i, col := range table.Columns {
		fields[i] = shp.StringField(col, dbfFieldLen)
	}
	w.SetFields(fields)

	for i, row := range table.Rows {
		shape, err := polygonShape(table.Geoms[i])
		if err != nil {
			return err
		}
		w.Write(shape)
		for c, v := range row {
			if err := w.WriteAttribute(i, c, v); err != nil {
				return errors.New(errors.ErrCodeConversionFailed, "attribute write failed").
					WithComponent("writer").WithCause(err)
			}
		}
	}
	return nil
}

// polygonShape converts a polygon or multipolygon into one POLYGON shape.
// Outer rings are wound clockwise and holes counter-clockwise, as the
// shapefile format requires.
func polygonShape(g geom.Geometry) (shp.Shape, error) {
	var polys [][][][2]float64
	switch v := g.(type) {
	case geom.Polygon:
		polys = [][][][2]float64{v}
	case *geom.Polygon:
		polys = [][][][2]float64{*v}
	case geom.MultiPolygon:
		polys = v
	case *geom.MultiPolygon:
		polys = *v
	default:
		return nil, errors.New(errors.ErrCodeConversionFailed, "shapefile output requires polygonal geometry").
			WithComponent("writer")
	}

	var parts [][]shp.Point
	for _, poly := range polys {
		for r, ring := range poly {
			pts := make([]shp.Point, len(ring))
			for p, c := range ring {
				pts[p] = shp.Point{X: c[0], Y: c[1]}
			}
			pts = closeRing(pts)
			outer := r == 0
			if outer == counterClockwise(pts) {
				reversePoints(pts)
			}
			parts = append(parts, pts)
		}
	}

	pl := shp.NewPolyLine(parts)
	return (*shp.Polygon)(pl), nil
}

// closeRing appends the first point when the ring is not explicitly closed.
func closeRing(pts []shp.Point) []shp.Point {
	if len(pts) == 0 {
		return pts
	}
	first, last := pts[0], pts[len(pts)-1]
	if first.X != last.X || first.Y != last.Y {
		pts = append(pts, first)
	}
	return pts
}

// counterClockwise reports whether the ring has positive signed area.
func counterClockwise(pts []shp.Point) bool {
	var sum float64
	for i := 0; i < len(pts)-1; i++ {
		sum += (pts[i+1].X - pts[i].X) * (pts[i+1].Y + pts[i].Y)
	}
	return sum < 0
}

func reversePoints(pts []shp.Point) {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
}
