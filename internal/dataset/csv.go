// Package dataset reads the tabular, tree and boundary datasets behind the
// charts and keeps imported observations in SQLite.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Column names of the cleaned OECD tables.
const (
	ColCountry    = "Country"
	ColTechnology = "Technology_Types"
	ColCategory   = "Availability_Category"
	ColYear       = "Year"
	ColValue      = "OBS_VALUE"
)

// Observation is one row of a tabular dataset.
type Observation struct {
	ID         string            `json:"id"`
	Country    string            `json:"country"`
	Technology string            `json:"technology,omitempty"`
	Category   string            `json:"category,omitempty"`
	Year       int               `json:"year"`
	Value      float64           `json:"value"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// Field returns a raw column of the row.
func (o Observation) Field(name string) string {
	switch name {
	case ColCountry:
		return o.Country
	case ColTechnology:
		return o.Technology
	case ColCategory:
		return o.Category
	case ColYear:
		return strconv.Itoa(o.Year)
	}
	return o.Fields[name]
}

// ObservationID is the composite identity country|technology|year.
func ObservationID(country, technology string, year int) string {
	return country + "|" + technology + "|" + strconv.Itoa(year)
}

// ReadResult holds the rows of a table. Skipped counts rows with an empty
// Year or OBS_VALUE.
type ReadResult struct {
	Observations []Observation
	Skipped      int
}

// ReadObservations reads a CSV table with a header row. Country, Year and
// OBS_VALUE are required columns.
func ReadObservations(r io.Reader) (ReadResult, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ReadResult{}, fmt.Errorf("reading csv: missing header")
		}
		return ReadResult{}, fmt.Errorf("reading csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, req := range []string{ColCountry, ColYear, ColValue} {
		if _, ok := cols[req]; !ok {
			return ReadResult{}, fmt.Errorf("reading csv: missing column %q", req)
		}
	}
	cell := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var res ReadResult
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ReadResult{}, fmt.Errorf("reading csv: %w", err)
		}
		line, _ := cr.FieldPos(0)

		yearCell, valueCell := cell(rec, ColYear), cell(rec, ColValue)
		if yearCell == "" || valueCell == "" {
			res.Skipped++
			continue
		}
		year, err := strconv.Atoi(yearCell)
		if err != nil {
			return ReadResult{}, fmt.Errorf("line %d: invalid %s %q", line, ColYear, yearCell)
		}
		value, err := strconv.ParseFloat(valueCell, 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			return ReadResult{}, fmt.Errorf("line %d: invalid %s %q", line, ColValue, valueCell)
		}

		o := Observation{
			Country:    cell(rec, ColCountry),
			Technology: cell(rec, ColTechnology),
			Category:   cell(rec, ColCategory),
			Year:       year,
			Value:      value,
			Fields:     make(map[string]string, len(header)),
		}
		for name, i := range cols {
			if i < len(rec) {
				o.Fields[name] = strings.TrimSpace(rec[i])
			}
		}
		o.ID = ObservationID(o.Country, o.Technology, o.Year)
		res.Observations = append(res.Observations, o)
	}
	return res, nil
}
