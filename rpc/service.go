package rpc

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/obinexus/obiengine/engine"
	"github.com/obinexus/obiengine/rejection"
)

// AdmitRequest is the wire shape of one Admit call. RequestID is assigned
// server-side if the caller leaves it empty, so every admission — success
// or rejection — can be correlated in logs and metrics.
type AdmitRequest struct {
	RequestID string `json:"request_id,omitempty"`
	Raw       []byte `json:"raw"`
}

// AdmitResponse mirrors engine.Result without exposing the IR stream's
// owned byte slices directly as anything but plain JSON bytes.
type AdmitResponse struct {
	RequestID string         `json:"request_id"`
	Accepted  bool           `json:"accepted"`
	State     string         `json:"state"`
	Cost      float64        `json:"cost"`
	Zone      string         `json:"zone"`
	NodeKinds []string       `json:"node_kinds,omitempty"`
	Rejection *RejectionInfo `json:"rejection,omitempty"`
}

// RejectionInfo is the wire shape of a *rejection.Error.
type RejectionInfo struct {
	Reason   string `json:"reason"`
	Position int    `json:"position"`
	StateID  int    `json:"state_id"`
	Message  string `json:"message"`
}

// CostRequest/CostResponse back the Cost RPC.
type CostRequest struct{}
type CostResponse struct {
	Cost float64 `json:"cost"`
}

// Server implements AdmissionServer over one engine.EngineInstance. Modeled
// on grpccas.Server: a thin struct embedding the domain type and mapping
// its errors to grpc status codes at the boundary.
type Server struct {
	Engine *engine.EngineInstance
}

func (s *Server) admit(ctx context.Context, req *AdmitRequest) (*AdmitResponse, error) {
	if s == nil || s.Engine == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing engine")
	}
	// Cancellation is honoured only here, before Admit starts; Admit itself
	// runs to completion.
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	reqID := req.RequestID
	if reqID == "" {
		reqID = uuid.NewString()
	}

	result, err := s.Engine.Admit(req.Raw)
	if err != nil {
		resp := &AdmitResponse{RequestID: reqID, Accepted: false, Rejection: rejectionInfo(err)}
		return resp, mapErr(err)
	}

	kinds := make([]string, 0)
	if result.Stream != nil {
		for _, k := range result.Stream.Kinds() {
			kinds = append(kinds, string(k))
		}
	}
	return &AdmitResponse{
		RequestID: reqID,
		Accepted:  true,
		State:     result.State.String(),
		Cost:      result.Cost,
		Zone:      string(result.Zone),
		NodeKinds: kinds,
	}, nil
}

func (s *Server) cost(ctx context.Context, _ *CostRequest) (*CostResponse, error) {
	_ = ctx
	if s == nil || s.Engine == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing engine")
	}
	return &CostResponse{Cost: s.Engine.Cost()}, nil
}

func rejectionInfo(err error) *RejectionInfo {
	var e *rejection.Error
	if !errors.As(err, &e) {
		return &RejectionInfo{Reason: "Unknown", Position: -1, StateID: -1, Message: err.Error()}
	}
	return &RejectionInfo{Reason: string(e.Reason), Position: e.Position, StateID: e.StateID, Message: e.Message}
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case rejection.IsReason(err, rejection.ReasonBudgetExceeded):
		return status.Error(codes.ResourceExhausted, err.Error())
	case rejection.IsReason(err, rejection.ReasonUnnormalized),
		rejection.IsReason(err, rejection.ReasonNoMatch),
		rejection.IsReason(err, rejection.ReasonBufferOverflow),
		rejection.IsReason(err, rejection.ReasonInvalidUTF8):
		return status.Error(codes.InvalidArgument, err.Error())
	case rejection.IsReason(err, rejection.ReasonInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// serviceDesc is hand-written in place of protoc-generated code: there is
// no .proto source and no protoc invocation in this build. The method
// table below is the same shape grpc's generated _grpc.pb.go files use,
// just assembled by hand against the jsonCodec.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: "obiengine.rpc.Admission",
	HandlerType: (*AdmissionServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Admit",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				req := new(AdmitRequest)
				if err := dec(req); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(AdmissionServer).Admit(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/obiengine.rpc.Admission/Admit"}
				handler := func(ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(AdmissionServer).Admit(ctx, req.(*AdmitRequest))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
		{
			MethodName: "Cost",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				req := new(CostRequest)
				if err := dec(req); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(AdmissionServer).Cost(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/obiengine.rpc.Admission/Cost"}
				handler := func(ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(AdmissionServer).Cost(ctx, req.(*CostRequest))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
	},
	Metadata: "obiengine/rpc/admission.json",
}

// AdmissionServer is the service interface RegisterAdmissionServer expects.
type AdmissionServer interface {
	Admit(context.Context, *AdmitRequest) (*AdmitResponse, error)
	Cost(context.Context, *CostRequest) (*CostResponse, error)
}

// RegisterAdmissionServer registers srv against s, the same call shape a
// generated RegisterXxxServer function would have.
func RegisterAdmissionServer(s grpc.ServiceRegistrar, srv AdmissionServer) {
	s.RegisterService(&serviceDesc, srv)
}

// Admit implements AdmissionServer.
func (s *Server) Admit(ctx context.Context, req *AdmitRequest) (*AdmitResponse, error) {
	return s.admit(ctx, req)
}

// Cost implements AdmissionServer.
func (s *Server) Cost(ctx context.Context, req *CostRequest) (*CostResponse, error) {
	return s.cost(ctx, req)
}
