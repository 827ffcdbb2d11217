// Package mcpserver exposes the reservation system as a closed set of
// schema-described tools behind a JSON-RPC 2.0 envelope. It is the boundary
// past which no internal error type leaks into the conversation layer:
// protocol faults travel on the RPC error channel, domain outcomes inside
// the result payload.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gupta-soham/goodfoods/pkg/reservation"
	"github.com/gupta-soham/goodfoods/pkg/store"
)

const jsonrpcVersion = "2.0"

// Server dispatches tool and resource requests against the reservation
// engine and the entity store.
type Server struct {
	store    *store.Store
	engine   *reservation.Engine
	registry *Registry
	logger   zerolog.Logger
}

// NewServer wires the tool registry over the given store and engine.
func NewServer(st *store.Store, engine *reservation.Engine, logger zerolog.Logger) (*Server, error) {
	s := &Server{
		store:    st,
		engine:   engine,
		registry: NewRegistry(),
		logger:   logger.With().Str("component", "mcpserver").Logger(),
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}

	s.logger.Info().Int("tools", s.registry.Count()).Msg("Tool registry initialized")

	return s, nil
}

// Registry exposes the tool registry, primarily for schema export.
func (s *Server) Registry() *Registry {
	return s.registry
}

// ListTools returns every registered tool definition in registration order.
func (s *Server) ListTools() []ToolDefinition {
	return s.registry.List()
}

// HandleData decodes a raw JSON payload and dispatches it. Undecodable
// payloads produce a ParseError response with an empty id.
func (s *Server) HandleData(ctx context.Context, data []byte) RPCResponse {
	var req RPCRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to parse request")
		return RPCResponse{
			JSONRPC: jsonrpcVersion,
			Error:   &RPCError{Code: ParseError, Message: "parse error"},
		}
	}
	return s.HandleRequest(ctx, req)
}

// HandleRequest routes a decoded request to its method handler.
func (s *Server) HandleRequest(ctx context.Context, req RPCRequest) (resp RPCResponse) {
	resp.ID = req.ID
	resp.JSONRPC = jsonrpcVersion

	// The dispatcher must answer every request, a handler bug included.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("method", req.Method).Msg("Handler panicked")
			resp.Result = nil
			resp.Error = &RPCError{Code: InternalError, Message: "internal error"}
		}
	}()

	if req.JSONRPC != "" && req.JSONRPC != jsonrpcVersion {
		resp.Error = &RPCError{Code: InvalidRequest, Message: fmt.Sprintf("unsupported jsonrpc version %q", req.JSONRPC)}
		return resp
	}

	switch req.Method {
	case "tools/list":
		resp.Result = map[string]interface{}{"tools": s.registry.List()}
	case "tools/call":
		result, rpcErr := s.callTool(ctx, req.Params)
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			resp.Result = result
		}
	case "resources/list":
		resp.Result = map[string]interface{}{"resources": s.listResources()}
	case "resources/read":
		result, rpcErr := s.readResource(req.Params)
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			resp.Result = result
		}
	default:
		resp.Error = &RPCError{Code: MethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
	}

	return resp
}

// callTool validates the argument mapping against the tool schema and runs
// the handler. Schema violations become InvalidParams; handler faults become
// InternalError.
func (s *Server) callTool(ctx context.Context, params map[string]interface{}) (*ToolResult, *RPCError) {
	name, _ := params["name"].(string)
	if name == "" {
		return nil, &RPCError{Code: InvalidParams, Message: "missing tool name"}
	}

	tool := s.registry.Get(name)
	if tool == nil {
		return nil, &RPCError{Code: MethodNotFound, Message: fmt.Sprintf("tool not found: %s", name)}
	}

	args, _ := params["arguments"].(map[string]interface{})
	if err := s.registry.ValidateParams(name, args); err != nil {
		s.logger.Warn().Str("tool", name).Err(err).Msg("Parameter validation failed")
		return nil, &RPCError{Code: InvalidParams, Message: err.Error()}
	}

	s.logger.Debug().Str("tool", name).Msg("Executing tool")

	result, err := tool.Handler(ctx, args)
	if err != nil {
		s.logger.Error().Str("tool", name).Err(err).Msg("Tool execution failed")
		return nil, &RPCError{Code: InternalError, Message: err.Error()}
	}

	return result, nil
}

func (s *Server) listResources() []Resource {
	return []Resource{
		{
			URI:         "restaurants://list",
			Name:        "Restaurant catalog",
			Description: "Every restaurant with location, hours, capacity and rating",
			MimeType:    "application/json",
		},
		{
			URI:         "restaurants://{id}",
			Name:        "Restaurant detail",
			Description: "Full record for one restaurant by id",
			MimeType:    "application/json",
		},
	}
}

// readResource serves the restaurants:// URI scheme.
func (s *Server) readResource(params map[string]interface{}) (interface{}, *RPCError) {
	uri, _ := params["uri"].(string)
	if uri == "" {
		return nil, &RPCError{Code: InvalidParams, Message: "missing resource uri"}
	}

	const scheme = "restaurants://"
	if !strings.HasPrefix(uri, scheme) {
		return nil, &RPCError{Code: InvalidParams, Message: fmt.Sprintf("unsupported resource uri: %s", uri)}
	}

	rest := strings.TrimPrefix(uri, scheme)
	if rest == "list" {
		return map[string]interface{}{
			"uri":         uri,
			"restaurants": s.store.ListRestaurants(store.RestaurantFilter{}),
		}, nil
	}

	r, ok := s.store.GetRestaurant(rest)
	if !ok {
		return nil, &RPCError{Code: InvalidParams, Message: fmt.Sprintf("unknown restaurant id: %s", rest)}
	}
	return map[string]interface{}{
		"uri":        uri,
		"restaurant": r,
	}, nil
}
