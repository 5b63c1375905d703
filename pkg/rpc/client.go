package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls climacast.v1.Predictor.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Predict sends named features and returns the rounded prediction.
func (c *Client) Predict(ctx context.Context, features map[string]float64, opts ...grpc.CallOption) (float64, error) {
	fields := make(map[string]any, len(features))
	for k, v := range features {
		fields[k] = v
	}
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return 0, fmt.Errorf("encode features: %w", err)
	}

	out := new(wrapperspb.DoubleValue)
	if err := c.cc.Invoke(ctx, PredictFullMethod, in, out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}
