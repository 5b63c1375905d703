// Package rpc exposes the predictor over gRPC as climacast.v1.Predictor.
//
// The service uses well-known protobuf types so no generated code is needed:
// the request is a google.protobuf.Struct of named numeric features and the
// response is a google.protobuf.DoubleValue.
//
//	service Predictor {
//	  rpc Predict(google.protobuf.Struct) returns (google.protobuf.DoubleValue);
//	}
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName       = "climacast.v1.Predictor"
	PredictFullMethod = "/" + ServiceName + "/Predict"
)

// PredictorServer is the server API for climacast.v1.Predictor.
type PredictorServer interface {
	Predict(context.Context, *structpb.Struct) (*wrapperspb.DoubleValue, error)
}

// RegisterPredictorServer registers srv on s.
func RegisterPredictorServer(s grpc.ServiceRegistrar, srv PredictorServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func predictHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PredictorServer).Predict(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: PredictFullMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PredictorServer).Predict(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc describes climacast.v1.Predictor.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PredictorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Predict",
			Handler:    predictHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "climacast/v1/predictor.proto",
}
