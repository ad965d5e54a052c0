package data

import (
	"bufio"
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrDataLoad is returned when the dataset cannot be read or violates its schema.
var ErrDataLoad = errors.New("data load error")

// LoadCSV reads a labeled dataset from a CSV file with a header row.
func LoadCSV(path string, schema Schema) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrDataLoad, "open %s: %v", path, err)
	}
	defer file.Close()

	ds, err := Read(bufio.NewReader(file), schema)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return ds, nil
}

// Read parses CSV records from r. The column named schema.Label holds the
// class code, every other column is a numeric feature.
func Read(r io.Reader, schema Schema) (*Dataset, error) {
	if schema.Label == "" {
		return nil, errors.Wrap(ErrDataLoad, "schema has no label column")
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrap(ErrDataLoad, "empty file")
	}
	if err != nil {
		return nil, errors.Wrapf(ErrDataLoad, "header: %v", err)
	}

	labelCol := -1
	names := make([]string, 0, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == schema.Label {
			labelCol = i
			continue
		}
		names = append(names, h)
	}
	if labelCol < 0 {
		return nil, errors.Wrapf(ErrDataLoad, "label column %q not found", schema.Label)
	}
	if len(names) == 0 {
		return nil, errors.Wrap(ErrDataLoad, "no feature columns")
	}
	if schema.Features > 0 && len(names) != schema.Features {
		return nil, errors.Wrapf(ErrDataLoad, "expected %d feature columns, found %d", schema.Features, len(names))
	}

	ds := &Dataset{
		FeatureNames: names,
		LabelName:    schema.Label,
		Classes:      schema.Classes,
	}

	// line numbers are 1-based and count the header
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrapf(ErrDataLoad, "line %d: %v", line, err)
		}

		x := make([]float64, 0, len(names))
		var y int
		for i, s := range rec {
			s = strings.TrimSpace(s)
			if i == labelCol {
				code, err := parseLabel(s)
				if err != nil || !schema.hasCode(code) {
					return nil, errors.Wrapf(ErrDataLoad, "line %d: invalid label %q", line, s)
				}
				y = code
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.Wrapf(ErrDataLoad, "line %d column %q: non-numeric value %q", line, header[i], s)
			}
			x = append(x, v)
		}
		ds.X = append(ds.X, x)
		ds.Y = append(ds.Y, y)
	}

	if len(ds.X) == 0 {
		return nil, errors.Wrap(ErrDataLoad, "no data rows")
	}
	return ds, nil
}

// parseLabel accepts integer codes written either as "2" or "2.0".
func parseLabel(s string) (int, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	r := math.Round(v)
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v-r) > 1e-9 {
		return 0, errors.Errorf("not an integer code: %v", v)
	}
	return int(r), nil
}
