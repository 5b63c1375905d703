package models

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LinearRegressor is an ordinary least squares fit with an intercept.
type LinearRegressor struct {
	Intercept float64
	Coef      []float64
}

// NewLinearRegressor returns an unfitted linear model.
func NewLinearRegressor() *LinearRegressor { return &LinearRegressor{} }

// Name implements Regressor.
func (m *LinearRegressor) Name() string { return "linear" }

// Fit implements Regressor.
func (m *LinearRegressor) Fit(X [][]float64, y []float64) error {
	p, err := validateXY(X, y)
	if err != nil {
		return fmt.Errorf("linear: %w", err)
	}
	n := len(X)

	// Column 0 is the intercept.
	a := mat.NewDense(n, p+1, nil)
	for i, row := range X {
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
	}
	b := mat.NewVecDense(n, append([]float64(nil), y...))

	var beta mat.VecDense
	if err := beta.SolveVec(a, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return fmt.Errorf("linear: least squares: %w", err)
		}
	}

	m.Intercept = beta.AtVec(0)
	m.Coef = make([]float64, p)
	for j := range p {
		m.Coef[j] = beta.AtVec(j + 1)
	}
	return nil
}

// Predict implements Regressor.
func (m *LinearRegressor) Predict(X [][]float64) ([]float64, error) {
	if m.Coef == nil {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, x := range X {
		if len(x) != len(m.Coef) {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(x), len(m.Coef))
		}
		v := m.Intercept
		for j, c := range m.Coef {
			v += c * x[j]
		}
		out[i] = v
	}
	return out, nil
}
