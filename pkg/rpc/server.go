package rpc

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/HatiCode/climacast/pkg/predictor"
)

// Observer is notified of every prediction. Nil is allowed.
type Observer interface {
	ObservePrediction(transport string, err error)
}

// Server implements PredictorServer on top of a Predictor.
type Server struct {
	predictor *predictor.Predictor
	observer  Observer
	logger    *slog.Logger
}

// NewServer returns a Server. A nil logger falls back to slog.Default().
func NewServer(p *predictor.Predictor, observer Observer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{predictor: p, observer: observer, logger: logger}
}

// Predict implements PredictorServer.
func (s *Server) Predict(ctx context.Context, req *structpb.Struct) (*wrapperspb.DoubleValue, error) {
	v, err := s.predictor.PredictRaw(req.AsMap())
	if s.observer != nil {
		s.observer.ObservePrediction("grpc", err)
	}
	if err != nil {
		if predictor.IsValidation(err) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		s.logger.Error("grpc prediction failed", "error", err)
		return nil, status.Error(codes.Internal, "prediction failed")
	}
	return wrapperspb.Double(v), nil
}
