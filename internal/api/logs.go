package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/procman/internal/logging"
)

func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent logs",
		Description: "Daemon log entries from the in-memory ring buffer.",
		Tags:        []string{"logs"},
	}, func(_ context.Context, _ *struct{}) (*LogsResponse, error) {
		resp := &LogsResponse{}
		if history := logging.GetHistory(); history != nil {
			resp.Body.Entries = history.Snapshot()
		}
		return resp, nil
	})
}
