// Package usb enumerates removable block devices with lsblk and udevadm.
package usb

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/usb-cleaner-box/ucb/internal/hw"
	"github.com/usb-cleaner-box/ucb/internal/model"
)

// Commander runs an external tool and returns its stdout.
type Commander func(ctx context.Context, name string, args ...string) ([]byte, error)

func execCommander(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

var knownFilesystems = []string{"vfat", "ntfs", "exfat", "ext4", "ext3", "ext2"}

// Detector implements hw.Devices on top of lsblk and udevadm.
type Detector struct {
	run Commander
}

var _ hw.Devices = (*Detector)(nil)

func NewDetector() *Detector {
	return &Detector{run: execCommander}
}

// WithCommander replaces the command execution. It exists for tests.
func (d *Detector) WithCommander(run Commander) *Detector {
	d.run = run
	return d
}

// ListRemovableDeviceIDs returns every disk whose name starts with "sd".
func (d *Detector) ListRemovableDeviceIDs(ctx context.Context) (hw.DeviceSet, error) {
	out, err := d.run(ctx, "lsblk", "-ndo", "NAME,TYPE")
	if err != nil {
		return nil, err
	}
	return ParseDisks(out), nil
}

// DeviceInfo queries size, label and filesystem, and udev properties in
// parallel. Each query is best effort: the returned info is always usable and
// the error reports the first failed query.
func (d *Detector) DeviceInfo(ctx context.Context, id string) (model.DeviceInfo, error) {
	info := model.NewDeviceInfo(id)
	var size, label, fstype, vendor, product, serial string

	var g errgroup.Group
	g.Go(func() error {
		out, err := d.run(ctx, "lsblk", "-no", "SIZE", "/dev/"+id)
		if err != nil {
			return fmt.Errorf("device size: %w", err)
		}
		size = ParseSize(out)
		return nil
	})
	g.Go(func() error {
		out, err := d.run(ctx, "lsblk", "-no", "LABEL,FSTYPE", "/dev/"+id+"1")
		if err != nil {
			return fmt.Errorf("device label: %w", err)
		}
		label, fstype = ParseLabelFSType(out)
		return nil
	})
	g.Go(func() error {
		out, err := d.run(ctx, "udevadm", "info", "--query=property", "/dev/"+id)
		if err != nil {
			return fmt.Errorf("device properties: %w", err)
		}
		vendor, product, serial = ParseUdevProperties(out)
		return nil
	})
	err := g.Wait()

	setIf(&info.Size, size)
	setIf(&info.Label, label)
	setIf(&info.FSType, fstype)
	setIf(&info.Vendor, vendor)
	setIf(&info.Model, product)
	setIf(&info.Serial, serial)
	return info, err
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ParseDisks parses the output of "lsblk -ndo NAME,TYPE".
func ParseDisks(out []byte) hw.DeviceSet {
	set := hw.NewDeviceSet()
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		if fields[1] == "disk" && strings.HasPrefix(fields[0], "sd") {
			set[fields[0]] = struct{}{}
		}
	}
	return set
}

// ParseSize returns the first line of "lsblk -no SIZE".
func ParseSize(out []byte) string {
	first, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(first)
}

// ParseLabelFSType parses "lsblk -no LABEL,FSTYPE". An empty label makes
// lsblk print the filesystem alone, so a lone well known filesystem name is
// taken as the type.
func ParseLabelFSType(out []byte) (label, fstype string) {
	first, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	fields := strings.Fields(first)
	switch {
	case len(fields) == 0:
		return "", ""
	case slices.Contains(knownFilesystems, fields[0]):
		return "", fields[0]
	case len(fields) == 1:
		return fields[0], ""
	default:
		return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
	}
}

// ParseUdevProperties extracts vendor, model and serial from
// "udevadm info --query=property". Database names win over raw USB ones.
func ParseUdevProperties(out []byte) (vendor, product, serial string) {
	props := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		k, v, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		props[k] = strings.TrimSpace(v)
	}
	return first(props["ID_VENDOR_FROM_DATABASE"], props["ID_VENDOR"]),
		first(props["ID_MODEL_FROM_DATABASE"], props["ID_MODEL"]),
		props["ID_SERIAL_SHORT"]
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
