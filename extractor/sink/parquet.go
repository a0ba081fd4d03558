package sink

import (
	"github.com/parquet-go/parquet-go"
)

// writeParquet derives the schema from T's parquet struct tags; pointer
// fields tagged optional become nullable columns.
func writeParquet[T any](path string, rows []T) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return parquet.WriteFile(path, rows, parquet.Compression(&parquet.Snappy))
}
