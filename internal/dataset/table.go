package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
)

// Table is an in-memory tabular dataset: numeric feature columns plus
// one integer label column, split out at load time so every row stays
// addressable by index.
type Table struct {
	features [][]float64
	labels   []float64
}

// NewTable builds a table from pre-split, row-aligned features and labels.
func NewTable(features [][]float64, labels []float64) (*Table, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("table has no rows")
	}
	if len(features) != len(labels) {
		return nil, fmt.Errorf("features and labels are misaligned: %d vs %d rows", len(features), len(labels))
	}
	width := len(features[0])
	if width == 0 {
		return nil, fmt.Errorf("table has no feature columns")
	}
	for i, row := range features {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", i, len(row), width)
		}
	}
	return &Table{features: features, labels: labels}, nil
}

// LoadCSV reads a numeric CSV file and splits out the label column.
// A non-numeric first record is treated as a header and skipped.
// Labels must be integer valued.
func LoadCSV(path string, labelColumn int) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset %s is empty", path)
	}
	if isHeader(records[0]) {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset %s has a header but no rows", path)
	}

	width := len(records[0])
	if labelColumn < 0 || labelColumn >= width {
		return nil, fmt.Errorf("label column %d out of range for %d columns", labelColumn, width)
	}

	features := make([][]float64, 0, len(records))
	labels := make([]float64, 0, len(records))
	for i, record := range records {
		if len(record) != width {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", i, len(record), width)
		}
		row := make([]float64, 0, width-1)
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i, j, err)
			}
			if j == labelColumn {
				if math.Trunc(v) != v {
					return nil, fmt.Errorf("row %d: label %g is not an integer", i, v)
				}
				labels = append(labels, v)
				continue
			}
			row = append(row, v)
		}
		features = append(features, row)
	}

	return NewTable(features, labels)
}

// NumRows returns the number of rows in the table.
func (t *Table) NumRows() int { return len(t.features) }

// NumFeatures returns the number of feature columns.
func (t *Table) NumFeatures() int { return len(t.features[0]) }

// Row returns the features and label of row i.
func (t *Table) Row(i int) ([]float64, float64) {
	return t.features[i], t.labels[i]
}

func isHeader(record []string) bool {
	for _, field := range record {
		if _, err := strconv.ParseFloat(field, 64); err != nil {
			return true
		}
	}
	return false
}
