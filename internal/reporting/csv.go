package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"dex-spillover-lab/internal/domain"
)

// FeatureFileName returns the file name of a variant's feature table.
func FeatureFileName(variant string) string {
	return fmt.Sprintf("features_ref%s.csv", variant)
}

// WriteFeatureCSV writes rows under the given header. Missing values are empty cells.
func WriteFeatureCSV(w io.Writer, columns []string, rows []domain.FeatureRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}

	record := make([]string, len(columns))
	for i := range rows {
		if len(rows[i].Values) != len(columns) {
			return fmt.Errorf("row %d of variant %s has %d values for %d columns",
				i, rows[i].Variant, len(rows[i].Values), len(columns))
		}
		for j, v := range rows[i].Values {
			record[j] = formatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFeatureFiles writes one CSV per variant into dir and returns the paths
// in variant order.
func WriteFeatureFiles(dir string, columns []string, byVariant map[string][]domain.FeatureRow) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	variants := make([]string, 0, len(byVariant))
	for v := range byVariant {
		variants = append(variants, v)
	}
	sort.Strings(variants)

	paths := make([]string, 0, len(variants))
	for _, v := range variants {
		path := filepath.Join(dir, FeatureFileName(v))
		if err := writeFile(path, columns, byVariant[v]); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, columns []string, rows []domain.FeatureRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteFeatureCSV(f, columns, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
