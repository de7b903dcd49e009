package api

import (
	"github.com/smazurov/procman/internal/logging"
	"github.com/smazurov/procman/internal/supervisor"
	"github.com/smazurov/procman/internal/version"
)

// HealthData reports API liveness.
type HealthData struct {
	Status string `json:"status" example:"ok" doc:"Health status"`
}

// HealthResponse wraps HealthData.
type HealthResponse struct {
	Body HealthData
}

// VersionResponse wraps build metadata.
type VersionResponse struct {
	Body version.Info
}

// ProcessListResponse lists all supervised processes.
type ProcessListResponse struct {
	Body struct {
		Processes []supervisor.Status `json:"processes" doc:"All supervised processes"`
	}
}

// ProcessDetail is one process with its buffered console output.
type ProcessDetail struct {
	supervisor.Status
	Console string `json:"console,omitempty" doc:"Recent console output"`
}

// ProcessResponse wraps ProcessDetail.
type ProcessResponse struct {
	Body ProcessDetail
}

// ProcessActionResponse reports the result of a start/stop/restart.
type ProcessActionResponse struct {
	Body struct {
		Name   string `json:"name" doc:"Process name"`
		Action string `json:"action" example:"restart" doc:"Performed action"`
	}
}

// LogsResponse returns the recent daemon log entries.
type LogsResponse struct {
	Body struct {
		Entries []logging.Entry `json:"entries" doc:"Recent log entries, oldest first"`
	}
}
