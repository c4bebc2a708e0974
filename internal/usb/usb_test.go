package usb_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/usb-cleaner-box/ucb/internal/model"
	"github.com/usb-cleaner-box/ucb/internal/usb"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return b
}

func TestParseDisks(t *testing.T) {
	t.Parallel()
	set := usb.ParseDisks(readFixture(t, "lsblk_disks.txt"))
	require.Equal(t, []string{"sda", "sdb"}, set.IDs())
	require.Empty(t, usb.ParseDisks(nil))
}

func TestParseLabelFSType(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		scenario string
		given    string
		label    string
		fstype   string
	}{
		{"label and type", "BACKUP vfat\n", "BACKUP", "vfat"},
		{"type only", "exfat\n", "", "exfat"},
		{"label only", "BACKUP\n", "BACKUP", ""},
		{"label with spaces", "MY DATA ntfs\n", "MY DATA", "ntfs"},
		{"empty", "\n", "", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			label, fstype := usb.ParseLabelFSType([]byte(tc.given))
			require.Equal(t, tc.label, label)
			require.Equal(t, tc.fstype, fstype)
		})
	}
}

func TestParseUdevProperties(t *testing.T) {
	t.Parallel()
	vendor, product, serial := usb.ParseUdevProperties(readFixture(t, "udevadm_sdb.txt"))
	require.Equal(t, "SanDisk Corp.", vendor)
	require.Equal(t, "Cruzer_Blade", product)
	require.Equal(t, "4C530001", serial)
}

func fakeCommander(t *testing.T, outputs map[string]string) usb.Commander {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		key := name + " " + strings.Join(args, " ")
		out, ok := outputs[key]
		if !ok {
			return nil, errors.New("exit status 32")
		}
		if strings.HasPrefix(out, "@") {
			return readFixture(t, out[1:]), nil
		}
		return []byte(out), nil
	}
}

func TestDetector(t *testing.T) {
	t.Parallel()
	d := usb.NewDetector().WithCommander(fakeCommander(t, map[string]string{
		"lsblk -ndo NAME,TYPE":                   "@lsblk_disks.txt",
		"lsblk -no SIZE /dev/sdb":                "  14.9G\n",
		"lsblk -no LABEL,FSTYPE /dev/sdb1":       "KEY vfat\n",
		"udevadm info --query=property /dev/sdb": "@udevadm_sdb.txt",
	}))

	ids, err := d.ListRemovableDeviceIDs(t.Context())
	require.NoError(t, err)
	require.True(t, ids.Has("sdb"))

	info, err := d.DeviceInfo(t.Context(), "sdb")
	require.NoError(t, err)
	require.Equal(t, model.DeviceInfo{
		Device: "sdb",
		Size:   "14.9G",
		Label:  "KEY",
		FSType: "vfat",
		Vendor: "SanDisk Corp.",
		Model:  "Cruzer_Blade",
		Serial: "4C530001",
	}, info)
}

func TestDetector_BestEffort(t *testing.T) {
	t.Parallel()
	d := usb.NewDetector().WithCommander(fakeCommander(t, map[string]string{
		"lsblk -no SIZE /dev/sdc": "7.5G\n",
	}))

	_, err := d.ListRemovableDeviceIDs(t.Context())
	require.Error(t, err)

	info, err := d.DeviceInfo(t.Context(), "sdc")
	require.Error(t, err)
	want := model.NewDeviceInfo("sdc")
	want.Size = "7.5G"
	require.Equal(t, want, info)
}
