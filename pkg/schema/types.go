package schema

import "time"

// RegressionNotice is the webhook envelope sent when a driver run finishes.
type RegressionNotice struct {
	Branch        string    `json:"branch"`
	Suite         string    `json:"suite"`
	Timestamp     time.Time `json:"timestamp"`
	Regressed     bool      `json:"regressed"`
	FailedModules []string  `json:"failed_modules,omitempty"`
	ReportPath    string    `json:"report_path,omitempty"`
}
