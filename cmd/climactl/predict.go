package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/HatiCode/climacast/pkg/client"
	"github.com/HatiCode/climacast/pkg/rpc"
)

func newPredictCmd(opts *options) *cobra.Command {
	var (
		co2      float64
		extra    map[string]string
		grpcAddr string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the temperature anomaly for a feature record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			features, err := buildFeatures(cmd.Flags().Changed("co2"), co2, extra)
			if err != nil {
				return err
			}

			var v float64
			if grpcAddr != "" {
				v, err = predictGRPC(cmd, grpcAddr, opts, features)
			} else {
				v, err = opts.httpClient().Predict(cmd.Context(), features)
			}
			if err != nil {
				if client.IsBadRequest(err) {
					return fmt.Errorf("rejected input: %w", err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, client.PredictResponse{Prediction: v})
			}
			fmt.Fprintf(out, "Estimated anomaly: %.2f °C\n", v)
			return nil
		},
	}

	cmd.Flags().Float64Var(&co2, "co2", 0, "CO2 concentration in ppm")
	cmd.Flags().StringToStringVar(&extra, "feature", nil, "additional feature as name=value (repeatable)")
	cmd.Flags().StringVar(&grpcAddr, "grpc", "", "gRPC address; predicts over gRPC instead of HTTP")
	return cmd
}

func buildFeatures(hasCO2 bool, co2 float64, extra map[string]string) (map[string]float64, error) {
	features := make(map[string]float64, len(extra)+1)
	if hasCO2 {
		features["co2"] = co2
	}
	for name, raw := range extra {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %q is not a number", name, raw)
		}
		features[name] = v
	}
	if len(features) == 0 {
		return nil, errors.New("no features given; use --co2 or --feature name=value")
	}
	return features, nil
}

func predictGRPC(cmd *cobra.Command, addr string, opts *options, features map[string]float64) (float64, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return 0, fmt.Errorf("connect %s: %w", addr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()
	return rpc.NewClient(conn).Predict(ctx, features)
}
