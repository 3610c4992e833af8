package reconcile

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/facility-watch/detention-cli/internal/model"
)

// LoadFile reads a snapshot previously written by the JSON exporter. It
// stands in for stages 1 to 5 when re-enriching or re-exporting.
func LoadFile(path string) (*model.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "reconcile: open %s", path)
	}
	defer f.Close()

	var snap model.Snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, eris.Wrapf(err, "reconcile: decode %s", path)
	}
	if snap.Facilities == nil {
		return nil, eris.Errorf("reconcile: %s holds no facilities", path)
	}
	for key, fac := range snap.Facilities {
		if fac == nil {
			delete(snap.Facilities, key)
		}
	}
	zap.L().Info("reconcile: loaded existing snapshot",
		zap.String("path", path), zap.Int("facilities", len(snap.Facilities)))
	return &snap, nil
}
