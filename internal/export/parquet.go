package export

import (
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/rotisserie/eris"

	"github.com/facility-watch/detention-cli/internal/model"
)

// parquetName flattens a dotted column name into a single parquet field.
func parquetName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

// parquetSchema builds an all-string schema over cols. Empty values are
// written as nulls.
func parquetSchema(cols []Column) *parquet.Schema {
	group := make(parquet.Group, len(cols))
	for _, c := range cols {
		group[parquetName(c.Name)] = parquet.Optional(parquet.String())
	}
	return parquet.NewSchema("facility", group)
}

// WriteParquet writes one row per facility under the flat column set.
func WriteParquet(snap *model.Snapshot, path string, opts Options) error {
	cols := Columns(opts.Debug)
	schema := parquetSchema(cols)

	// The schema orders leaf columns by name; map each to its position.
	index := make(map[string]int, len(cols))
	for i, p := range schema.Columns() {
		index[strings.Join(p, ".")] = i
	}

	facilities := sorted(snap)
	rows := make([]parquet.Row, 0, len(facilities))
	for _, f := range facilities {
		values := Row(f, cols)
		row := make(parquet.Row, len(cols))
		for i, c := range cols {
			idx := index[parquetName(c.Name)]
			if values[i] == "" {
				row[idx] = parquet.NullValue().Level(0, 0, idx)
				continue
			}
			row[idx] = parquet.ByteArrayValue([]byte(values[i])).Level(0, 1, idx)
		}
		rows = append(rows, row)
	}

	out, err := create(path)
	if err != nil {
		return err
	}
	defer out.Close() //nolint:errcheck

	w := parquet.NewWriter(out, schema)
	if _, err := w.WriteRows(rows); err != nil {
		return eris.Wrap(err, "export: write parquet rows")
	}
	if err := w.Close(); err != nil {
		return eris.Wrap(err, "export: close parquet writer")
	}
	return out.Close()
}
