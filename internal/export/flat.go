package export

import (
	"encoding/csv"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/facility-watch/detention-cli/internal/model"
)

// WriteCSV writes one row per facility under the flat column set.
func WriteCSV(snap *model.Snapshot, path string, opts Options) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	cols := Columns(opts.Debug)
	w := csv.NewWriter(f)
	if err := w.Write(Header(cols)); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, fac := range sorted(snap) {
		if err := w.Write(Row(fac, cols)); err != nil {
			return eris.Wrapf(err, "export: write csv row %q", fac.Name)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return f.Close()
}

// WriteJSON writes the whole snapshot, diagnostics included, in the form
// read back by --load-existing.
func WriteJSON(snap *model.Snapshot, path string) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return eris.Wrap(err, "export: encode json")
	}
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck
	if _, err := f.Write(data); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return f.Close()
}

// WriteXLSX writes a single "Facilities" sheet under the flat column set.
func WriteXLSX(snap *model.Snapshot, path string, opts Options) error {
	book := xlsx.NewFile()
	sheet, err := book.AddSheet("Facilities")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}
	cols := Columns(opts.Debug)
	addRow(sheet, Header(cols))
	for _, fac := range sorted(snap) {
		addRow(sheet, Row(fac, cols))
	}
	if err := book.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
