package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// ProcessNameInput captures the path parameter shared by the per-process routes.
type ProcessNameInput struct {
	Name string `path:"name" doc:"Process name"`
}

func (s *Server) registerProcessRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-processes",
		Method:      http.MethodGet,
		Path:        "/api/processes",
		Summary:     "List processes",
		Tags:        []string{"processes"},
	}, func(_ context.Context, _ *struct{}) (*ProcessListResponse, error) {
		resp := &ProcessListResponse{}
		resp.Body.Processes = s.sup.List()
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-process",
		Method:      http.MethodGet,
		Path:        "/api/processes/{name}",
		Summary:     "Process detail",
		Tags:        []string{"processes"},
		Errors:      []int{404},
	}, func(_ context.Context, input *ProcessNameInput) (*ProcessResponse, error) {
		status, ok := s.sup.Status(input.Name)
		if !ok {
			return nil, huma.Error404NotFound(fmt.Sprintf("process %q not found", input.Name))
		}
		console, _ := s.sup.Console(input.Name)
		return &ProcessResponse{Body: ProcessDetail{Status: status, Console: console}}, nil
	})

	s.registerAction("start", s.sup.Start)
	s.registerAction("stop", s.sup.Stop)
	s.registerAction("restart", s.sup.Restart)
}

// registerAction wires one POST /api/processes/{name}/<action> route.
func (s *Server) registerAction(action string, run func(name string) error) {
	huma.Register(s.api, huma.Operation{
		OperationID: action + "-process",
		Method:      http.MethodPost,
		Path:        "/api/processes/{name}/" + action,
		Summary:     "Process " + action,
		Tags:        []string{"processes"},
		Errors:      []int{404, 409},
	}, func(_ context.Context, input *ProcessNameInput) (*ProcessActionResponse, error) {
		if _, ok := s.sup.Status(input.Name); !ok {
			return nil, huma.Error404NotFound(fmt.Sprintf("process %q not found", input.Name))
		}
		if err := run(input.Name); err != nil {
			return nil, huma.Error409Conflict(err.Error())
		}
		resp := &ProcessActionResponse{}
		resp.Body.Name = input.Name
		resp.Body.Action = action
		return resp, nil
	})
}
