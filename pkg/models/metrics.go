package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MeanAbsoluteError returns mean(|actual - predicted|).
func MeanAbsoluteError(actual, predicted []float64) (float64, error) {
	if err := sameLength(actual, predicted); err != nil {
		return 0, err
	}
	return floats.Distance(actual, predicted, 1) / float64(len(actual)), nil
}

// RootMeanSquaredError returns sqrt(mean((actual - predicted)^2)).
func RootMeanSquaredError(actual, predicted []float64) (float64, error) {
	if err := sameLength(actual, predicted); err != nil {
		return 0, err
	}
	d := floats.Distance(actual, predicted, 2)
	return d / math.Sqrt(float64(len(actual))), nil
}

// R2 returns the coefficient of determination of predicted against actual.
func R2(actual, predicted []float64) (float64, error) {
	if err := sameLength(actual, predicted); err != nil {
		return 0, err
	}
	return stat.RSquaredFrom(predicted, actual, nil), nil
}

func sameLength(a, b []float64) error {
	if len(a) == 0 {
		return fmt.Errorf("no values to score")
	}
	if len(a) != len(b) {
		return fmt.Errorf("length mismatch: %d != %d", len(a), len(b))
	}
	return nil
}
