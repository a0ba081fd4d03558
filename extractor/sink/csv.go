package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/borges12matheus/pipeline-aws-price/extractor/provider"
)

func writeCSV[T provider.Record](path string, rows []T) (err error) {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var zero T
	w := csv.NewWriter(f)
	if err := w.Write(columnNames(zero.Columns())); err != nil {
		return err
	}
	record := make([]string, len(zero.Columns()))
	for _, row := range rows {
		for i, v := range row.Values() {
			record[i] = formatCell(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatCell(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case *float64:
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func columnNames(cols []provider.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
