package model

const (
	Unknown = "Unknown"
	NoLabel = "No label"
)

// DeviceInfo is a best-effort snapshot of a removable block device.
type DeviceInfo struct {
	Device string `json:"device"`
	Size   string `json:"size"`
	Label  string `json:"label"`
	FSType string `json:"fstype"`
	Vendor string `json:"vendor"`
	Model  string `json:"model"`
	Serial string `json:"serial"`
}

// NewDeviceInfo returns the info with every field set to its fallback value.
func NewDeviceInfo(device string) DeviceInfo {
	return DeviceInfo{
		Device: device,
		Size:   Unknown,
		Label:  NoLabel,
		FSType: Unknown,
		Vendor: Unknown,
		Model:  Unknown,
		Serial: Unknown,
	}
}
