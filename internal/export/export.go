package export

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/facility-watch/detention-cli/internal/model"
)

// Format is an output file type.
type Format string

// Supported formats.
const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatXLSX    Format = "xlsx"
	FormatParquet Format = "parquet"
	FormatGeoJSON Format = "geojson"
	FormatShape   Format = "shp"
)

// Formats lists every supported format.
var Formats = []Format{FormatCSV, FormatJSON, FormatXLSX, FormatParquet, FormatGeoJSON, FormatShape}

// ErrUnknownFormat is returned by ParseFormat for an unsupported name.
var ErrUnknownFormat = eris.New("export: unknown file type")

// ParseFormat validates a --file-type value.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", eris.Wrapf(ErrUnknownFormat, "%q", s)
}

// Options controls an export.
type Options struct {
	// Debug adds the diagnostic columns to the flat formats.
	Debug bool
}

// Write renders snap as <base>.<format> and returns the path written. The
// output directory is created when missing.
func Write(snap *model.Snapshot, format Format, base string, opts Options) (string, error) {
	path := base + "." + string(format)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", eris.Wrapf(err, "export: create %s", dir)
		}
	}

	var err error
	switch format {
	case FormatCSV:
		err = WriteCSV(snap, path, opts)
	case FormatJSON:
		err = WriteJSON(snap, path)
	case FormatXLSX:
		err = WriteXLSX(snap, path, opts)
	case FormatParquet:
		err = WriteParquet(snap, path, opts)
	case FormatGeoJSON:
		err = WriteGeoJSON(snap, path)
	case FormatShape:
		err = WriteShapefile(snap, path)
	default:
		return "", eris.Wrapf(ErrUnknownFormat, "%q", format)
	}
	if err != nil {
		return "", err
	}
	zap.L().Info("export: wrote facilities",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("facilities", len(snap.Facilities)),
	)
	return path, nil
}

// sorted returns the facilities in key order.
func sorted(snap *model.Snapshot) []*model.Facility {
	keys := snap.Keys()
	out := make([]*model.Facility, 0, len(keys))
	for _, k := range keys {
		out = append(out, snap.Facilities[k])
	}
	return out
}

func create(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: create %s", path)
	}
	return f, nil
}
