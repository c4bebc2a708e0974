package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/usb-cleaner-box/ucb/internal/hw"
	"github.com/usb-cleaner-box/ucb/internal/model"
)

// DirDevices treats every entry of a directory as a plugged device named
// after the entry. An optional "<id>.json" file holds its DeviceInfo.
//
//	touch /tmp/ucb/devices/sdb     # plug
//	rm /tmp/ucb/devices/sdb        # unplug
type DirDevices struct {
	dir string
}

var _ hw.Devices = (*DirDevices)(nil)

func NewDirDevices(dir string) *DirDevices {
	return &DirDevices{dir: dir}
}

// Dir creates the directory if needed and returns its path.
func (d *DirDevices) Dir() (string, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating devices directory: %w", err)
	}
	return d.dir, nil
}

func (d *DirDevices) ListRemovableDeviceIDs(_ context.Context) (hw.DeviceSet, error) {
	entries, err := os.ReadDir(d.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return hw.NewDeviceSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	set := hw.NewDeviceSet()
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".json") {
			continue
		}
		set[name] = struct{}{}
	}
	return set, nil
}

func (d *DirDevices) DeviceInfo(_ context.Context, id string) (model.DeviceInfo, error) {
	info := model.NewDeviceInfo(id)
	b, err := os.ReadFile(filepath.Join(d.dir, id+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return info, nil
	}
	if err != nil {
		return info, fmt.Errorf("reading device info: %w", err)
	}
	if err := json.Unmarshal(b, &info); err != nil {
		return model.NewDeviceInfo(id), fmt.Errorf("parsing device info: %w", err)
	}
	info.Device = id
	return info, nil
}
