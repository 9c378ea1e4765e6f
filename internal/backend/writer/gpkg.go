package writer

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/go-spatial/geom"
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

	"github.com/geobench/geobench/internal/geometry"
	"github.com/geobench/geobench/pkg/errors"
)

// gpkgApplicationID is the SQLite application_id for GeoPackage ("GPKG").
const gpkgApplicationID = 0x47504B47

// gpkgSRSID is the spatial reference the writer declares for all features.
const gpkgSRSID = 4326

// gpkgLayer names the single feature table in the output container.
const gpkgLayer = "buildings"

// WriteGeoPackage writes the table as a GeoPackage with one feature layer.
// Attributes become TEXT columns, geometries standard GeoPackage binary
// blobs.
func WriteGeoPackage(path string, table *Table) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return errors.Newf(errors.ErrCodeConversionFailed, "cannot create %s", path).
			WithComponent("writer").WithCause(err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return errors.New(errors.ErrCodeConversionFailed, "cannot begin geopackage transaction").
			WithComponent("writer").WithCause(err)
	}
	defer tx.Rollback()

	if err := gpkgCreateSchema(tx, table.Columns); err != nil {
		return err
	}
	if err := gpkgInsertFeatures(tx, table); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.New(errors.ErrCodeConversionFailed, "cannot commit geopackage").
			WithComponent("writer").WithCause(err)
	}
	return nil
}

func gpkgCreateSchema(tx *sql.Tx, columns []string) error {
	stmts := []string{
		fmt.Sprintf("PRAGMA application_id = %d;", gpkgApplicationID),
		"PRAGMA user_version = 10300;",
		`CREATE TABLE gpkg_spatial_ref_sys (
			srs_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL PRIMARY KEY,
			organization TEXT NOT NULL,
			organization_coordsys_id INTEGER NOT NULL,
			definition TEXT NOT NULL,
			description TEXT
		);`,
		`INSERT INTO gpkg_spatial_ref_sys VALUES
			('Undefined cartesian SRS', -1, 'NONE', -1, 'undefined', NULL),
			('Undefined geographic SRS', 0, 'NONE', 0, 'undefined', NULL),
			('WGS 84 geodetic', 4326, 'EPSG', 4326,
			 'GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]]',
			 NULL);`,
		`CREATE TABLE gpkg_contents (
			table_name TEXT NOT NULL PRIMARY KEY,
			data_type TEXT NOT NULL,
			identifier TEXT UNIQUE,
			description TEXT DEFAULT '',
			last_change DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			min_x DOUBLE, min_y DOUBLE, max_x DOUBLE, max_y DOUBLE,
			srs_id INTEGER,
			CONSTRAINT fk_gc_r_srs_id FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys(srs_id)
		);`,
		`CREATE TABLE gpkg_geometry_columns (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			geometry_type_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL,
			z TINYINT NOT NULL,
			m TINYINT NOT NULL,
			CONSTRAINT pk_geom_cols PRIMARY KEY (table_name, column_name)
		);`,
		fmt.Sprintf(
			"INSERT INTO gpkg_contents (table_name, data_type, identifier, srs_id) VALUES ('%s', 'features', '%s', %d);",
			gpkgLayer, gpkgLayer, gpkgSRSID),
		fmt.Sprintf(
			"INSERT INTO gpkg_geometry_columns VALUES ('%s', 'geom', 'GEOMETRY', %d, 0, 0);",
			gpkgLayer, gpkgSRSID),
		gpkgFeatureTableSQL(columns),
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return errors.New(errors.ErrCodeConversionFailed, "geopackage schema statement failed").
				WithComponent("writer").WithContext("statement", stmt).WithCause(err)
		}
	}
	return nil
}

func gpkgFeatureTableSQL(columns []string) string {
	cols := make([]string, 0, len(columns)+2)
	cols = append(cols, "fid INTEGER PRIMARY KEY AUTOINCREMENT")
	for _, c := range columns {
		cols = append(cols, fmt.Sprintf("%q TEXT", c))
	}
	cols = append(cols, "geom BLOB")
	return fmt.Sprintf("CREATE TABLE %q (%s);", gpkgLayer, strings.Join(cols, ", "))
}

func gpkgInsertFeatures(tx *sql.Tx, table *Table) error {
	placeholders := make([]string, 0, len(table.Columns)+1)
	names := make([]string, 0, len(table.Columns)+1)
	for _, c := range table.Columns {
		names = append(names, fmt.Sprintf("%q", c))
		placeholders = append(placeholders, "?")
	}
	names = append(names, "geom")
	placeholders = append(placeholders, "?")

	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT INTO %q (%s) VALUES (%s);",
		gpkgLayer, strings.Join(names, ", "), strings.Join(placeholders, ", ")))
	if err != nil {
		return errors.New(errors.ErrCodeConversionFailed, "cannot prepare feature insert").
			WithComponent("writer").WithCause(err)
	}
	defer stmt.Close()

	for i, row := range table.Rows {
		blob, err := gpkgGeometryBlob(table.Geoms[i])
		if err != nil {
			return err
		}
		args := make([]interface{}, 0, len(row)+1)
		for _, v := range row {
			args = append(args, v)
		}
		args = append(args, blob)
		if _, err := stmt.Exec(args...); err != nil {
			return errors.New(errors.ErrCodeConversionFailed, "feature insert failed").
				WithComponent("writer").WithCause(err)
		}
	}
	return nil
}

// gpkgGeometryBlob encodes a geometry as a GeoPackage binary: the "GP" header
// with little-endian byte order and no envelope, followed by WKB.
func gpkgGeometryBlob(g geom.Geometry) ([]byte, error) {
	wkbBytes, err := geometry.EncodeWKB(g)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteByte('G')
	buf.WriteByte('P')
	buf.WriteByte(0x00) // version 1
	buf.WriteByte(0x01) // little-endian, no envelope
	if err := binary.Write(&buf, binary.LittleEndian, int32(gpkgSRSID)); err != nil {
		return nil, errors.New(errors.ErrCodeConversionFailed, "cannot encode geometry header").
			WithComponent("writer").WithCause(err)
	}
	buf.Write(wkbBytes)
	return buf.Bytes(), nil
}
