// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

// Package dataset loads geographic points from CSV files and writes back a
// selection of them.
//
// A file may carry a header row. The first record is a header when its
// first field is not a number; the latitude and longitude columns are then
// looked up by name. Without a header, or when the names are not found,
// column 0 is the latitude and column 1 the longitude.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/serg-kovalev/go-dbscan-filter/spatial"
	"github.com/serg-kovalev/go-dbscan-filter/utils/textutils"
)

var (
	latitudeNames  = []string{"lat", "latitude", "latitud", "y"}
	longitudeNames = []string{"lon", "lng", "long", "longitude", "longitud", "x"}
)

// Dataset is a parsed CSV file.
type Dataset struct {
	// Header is the header row, nil when the file has none.
	Header []string
	// Records are the data rows, header excluded, as read.
	Records [][]string
	// Points are the valid coordinates, in file order.
	Points spatial.PointList
	// Rows maps each point to its record: Points[i] came from Records[Rows[i]].
	Rows []int
	// Skipped is the number of records that did not yield a point.
	Skipped int
	// LatCol and LonCol are the coordinate columns.
	LatCol, LonCol int
}

// Read parses a CSV stream. Records may have different lengths; those that
// are too short, unparsable or outside the WGS84 bounds are kept in Records
// but do not produce a point.
func Read(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	ds := &Dataset{LatCol: 0, LonCol: 1}
	if len(records) == 0 {
		return ds, nil
	}

	if _, err := parseFloat(records[0][0]); err != nil {
		ds.Header = records[0]
		records = records[1:]

		lat := textutils.FoldedIndex(ds.Header, latitudeNames...)
		lon := textutils.FoldedIndex(ds.Header, longitudeNames...)

		if lat >= 0 && lon >= 0 && lat != lon {
			ds.LatCol, ds.LonCol = lat, lon
		}
	}

	ds.Records = records

	for i, record := range records {
		pt, err := ds.point(record)
		if err != nil {
			ds.Skipped++

			continue
		}

		ds.Points = append(ds.Points, pt)
		ds.Rows = append(ds.Rows, i)
	}

	return ds, nil
}

// ReadFile opens and parses the CSV file at path.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Printf("Error closing %s: %v", path, closeErr)
		}
	}()

	ds, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return ds, nil
}

func (ds *Dataset) point(record []string) (spatial.Point, error) {
	if len(record) <= max(ds.LatCol, ds.LonCol) {
		return spatial.Point{}, errors.New("record too short")
	}

	lat, err := parseFloat(record[ds.LatCol])
	if err != nil {
		return spatial.Point{}, err
	}

	lon, err := parseFloat(record[ds.LonCol])
	if err != nil {
		return spatial.Point{}, err
	}

	pt := spatial.NewPoint(lon, lat)

	return pt, pt.Validate()
}

// LatLon returns the source strings of the coordinates of point i.
func (ds *Dataset) LatLon(i int) (lat, lon string) {
	record := ds.Records[ds.Rows[i]]

	return strings.TrimSpace(record[ds.LatCol]), strings.TrimSpace(record[ds.LonCol])
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// WriteCSV writes the header, if any, followed by the records of the points
// at indices, verbatim and in the order given.
func WriteCSV(w io.Writer, ds *Dataset, indices []int) error {
	writer := csv.NewWriter(w)

	if ds.Header != nil {
		if err := writer.Write(ds.Header); err != nil {
			return err
		}
	}

	for _, i := range indices {
		if err := writer.Write(ds.Records[ds.Rows[i]]); err != nil {
			return err
		}
	}

	writer.Flush()

	return writer.Error()
}

// WriteLatLon writes one "latitude,longitude" line per point at indices.
func WriteLatLon(w io.Writer, ds *Dataset, indices []int) error {
	for _, i := range indices {
		lat, lon := ds.LatLon(i)
		if _, err := fmt.Fprintf(w, "%s,%s\n", lat, lon); err != nil {
			return err
		}
	}

	return nil
}
