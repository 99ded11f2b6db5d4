package domain

import "time"

// DeviceRecord is one device entry in the end-of-run report.
type DeviceRecord struct {
	MAC     string `json:"mac"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// Report is the end-of-run summary artifact. It is write-only factory
// traceability data; it is never read back, so it carries no dedup state
// between runs.
type Report struct {
	ModelNumber string         `json:"model_number"`
	GeneratedAt time.Time      `json:"generated_at"`
	Devices     []DeviceRecord `json:"devices"`
}
