package flight

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/plancodec/internal/msgpack"
	"github.com/hugr-lab/plancodec/internal/recovery"
	"github.com/hugr-lab/plancodec/logical"
)

// Action types served by DoAction.
const (
	ActionDecodePlan    = "decode_plan"
	ActionEncodePlan    = "encode_plan"
	ActionValidatePlan  = "validate_plan"
	ActionListFunctions = "list_functions"
	ActionListTables    = "list_tables"
)

var actionTypes = []*flight.ActionType{
	{Type: ActionDecodePlan, Description: "Decode a binary plan and return it as JSON text"},
	{Type: ActionEncodePlan, Description: "Encode a JSON text plan and return the binary form"},
	{Type: ActionValidatePlan, Description: "Check that a binary plan decodes against this server's session"},
	{Type: ActionListFunctions, Description: "List function names known to this server's session"},
	{Type: ActionListTables, Description: "List tables of a schema with their Arrow schemas"},
}

// ValidateResult is the msgpack body returned by validate_plan.
type ValidateResult struct {
	Valid bool   `msgpack:"valid"`
	Error string `msgpack:"error,omitempty"`
	// Nodes is the number of plan nodes, subqueries excluded.
	Nodes int    `msgpack:"nodes"`
	Plan  string `msgpack:"plan,omitempty"`
}

// TableInfo is the msgpack body of each list_tables result.
type TableInfo struct {
	Schema  string `msgpack:"schema"`
	Name    string `msgpack:"name"`
	Comment string `msgpack:"comment,omitempty"`
	// ArrowSchema is the table schema as a serialized Arrow IPC message.
	ArrowSchema []byte `msgpack:"arrow_schema"`
}

// ListActions returns the supported action types.
func (s *Server) ListActions(_ *flight.Empty, stream flight.FlightService_ListActionsServer) error {
	for _, at := range actionTypes {
		if err := stream.Send(at); err != nil {
			return err
		}
	}
	return nil
}

// DoAction executes plan exchange actions:
//   - decode_plan: binary plan in, JSON text out
//   - encode_plan: JSON text in, binary plan out
//   - validate_plan: binary plan in, msgpack ValidateResult out
//   - list_functions: msgpack list of function names out
//   - list_tables: msgpack {"schema"} in, one msgpack TableInfo per table out
func (s *Server) DoAction(action *flight.Action, stream flight.FlightService_DoActionServer) error {
	ctx := stream.Context()

	meta, _ := RequestMeta(ctx)
	s.logger.Info("DoAction called",
		"type", action.GetType(),
		"body_size", len(action.GetBody()),
		"request", meta,
	)

	err := recovery.RecoverToError(s.logger, action.GetType(), func() error {
		switch action.GetType() {
		case ActionDecodePlan:
			return s.handleDecodePlan(ctx, action, stream)
		case ActionEncodePlan:
			return s.handleEncodePlan(ctx, action, stream)
		case ActionValidatePlan:
			return s.handleValidatePlan(ctx, action, stream)
		case ActionListFunctions:
			return s.handleListFunctions(stream)
		case ActionListTables:
			return s.handleListTables(ctx, action, stream)
		default:
			return status.Errorf(codes.Unimplemented, "unknown action type: %s", action.GetType())
		}
	})
	var pe *recovery.PanicError
	if errors.As(err, &pe) {
		return status.Errorf(codes.Internal, "%s failed: %v", action.GetType(), pe)
	}
	return err
}

func (s *Server) handleDecodePlan(ctx context.Context, action *flight.Action, stream flight.FlightService_DoActionServer) error {
	plan, err := s.serializer.PlanFromBytesWithCodec(ctx, action.GetBody(), s.session, s.codec)
	if err != nil {
		s.logger.Error("Failed to decode plan", "error", err)
		return statusError("failed to decode plan", err)
	}
	defer logical.ReleaseSources(plan)
	text, err := s.serializer.PlanToJSONWithCodec(plan, s.codec)
	if err != nil {
		s.logger.Error("Failed to render plan", "error", err)
		return statusError("failed to render plan", err)
	}
	return stream.Send(&flight.Result{Body: []byte(text)})
}

func (s *Server) handleEncodePlan(ctx context.Context, action *flight.Action, stream flight.FlightService_DoActionServer) error {
	plan, err := s.serializer.PlanFromJSONWithCodec(ctx, string(action.GetBody()), s.session, s.codec)
	if err != nil {
		s.logger.Error("Failed to parse plan", "error", err)
		return statusError("failed to parse plan", err)
	}
	defer logical.ReleaseSources(plan)
	data, err := s.serializer.PlanToBytesWithCodec(plan, s.codec)
	if err != nil {
		s.logger.Error("Failed to encode plan", "error", err)
		return statusError("failed to encode plan", err)
	}
	return stream.Send(&flight.Result{Body: data})
}

// handleValidatePlan reports decode failures in the result body. Only
// cancellation and internal faults become gRPC errors.
func (s *Server) handleValidatePlan(ctx context.Context, action *flight.Action, stream flight.FlightService_DoActionServer) error {
	var result ValidateResult
	plan, err := s.serializer.PlanFromBytesWithCodec(ctx, action.GetBody(), s.session, s.codec)
	if err != nil {
		switch statusCode(err) {
		case codes.Canceled, codes.DeadlineExceeded:
			return statusError("failed to validate plan", err)
		}
		result.Error = err.Error()
	} else {
		defer logical.ReleaseSources(plan)
		result.Valid = true
		result.Plan = logical.Format(plan)
		_ = logical.Walk(plan, func(logical.Plan) error {
			result.Nodes++
			return nil
		})
	}

	body, err := msgpack.Encode(result)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to encode result: %v", err)
	}

	s.logger.Debug("validate_plan completed",
		"valid", result.Valid,
		"nodes", result.Nodes,
	)
	return stream.Send(&flight.Result{Body: body})
}

func (s *Server) handleListFunctions(stream flight.FlightService_DoActionServer) error {
	names := []string{}
	if s.session != nil {
		names = s.session.Names()
	}
	body, err := msgpack.Encode(names)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to encode function names: %v", err)
	}
	return stream.Send(&flight.Result{Body: body})
}

func (s *Server) handleListTables(ctx context.Context, action *flight.Action, stream flight.FlightService_DoActionServer) error {
	var params struct {
		Schema string `msgpack:"schema"`
	}
	if err := msgpack.Decode(action.GetBody(), &params); err != nil {
		s.logger.Error("Failed to decode list_tables parameters", "error", err)
		return status.Errorf(codes.InvalidArgument, "invalid parameters: %v", err)
	}
	if s.session == nil || s.session.Catalog() == nil {
		return status.Error(codes.FailedPrecondition, "server has no catalog")
	}

	schema, err := s.session.Catalog().Schema(ctx, params.Schema)
	if err != nil {
		return statusError("failed to get schema", err)
	}
	if schema == nil {
		return status.Errorf(codes.NotFound, "schema not found: %s", params.Schema)
	}
	tables, err := schema.Tables(ctx)
	if err != nil {
		return statusError("failed to list tables", err)
	}

	for _, t := range tables {
		info := TableInfo{
			Schema:      schema.Name(),
			Name:        t.Name(),
			Comment:     t.Comment(),
			ArrowSchema: flight.SerializeSchema(t.ArrowSchema(), s.allocator),
		}
		body, err := msgpack.Encode(info)
		if err != nil {
			return status.Errorf(codes.Internal, "failed to encode table %s: %v", t.Name(), err)
		}
		if err := stream.Send(&flight.Result{Body: body}); err != nil {
			return fmt.Errorf("failed to send table %s: %w", t.Name(), err)
		}
	}

	s.logger.Debug("list_tables completed",
		"schema", schema.Name(),
		"tables", len(tables),
	)
	return nil
}
