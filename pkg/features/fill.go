package features

import (
	"gonum.org/v1/gonum/stat"
)

// FillForward fills missing values of the named columns in place, walking
// rows in order. A missing value takes the most recent earlier value of the
// same column. A gap before the first value of a column stays missing.
func FillForward(rows []map[string]float64, columns []string) {
	for _, col := range columns {
		var lastValid float64
		hasLastValid := false

		for i := range rows {
			if val, exists := rows[i][col]; exists {
				lastValid = val
				hasLastValid = true
			} else if hasLastValid {
				rows[i][col] = lastValid
			}
		}
	}
}

// RollingMean writes the trailing mean of src over window rows into dst.
// dst is left unset for the first window-1 rows and for any row whose window
// holds a missing src value.
func RollingMean(rows []map[string]float64, src, dst string, window int) {
	buf := make([]float64, 0, window)
	for i := range rows {
		if i < window-1 {
			continue
		}
		buf = buf[:0]
		for j := i - window + 1; j <= i; j++ {
			v, ok := rows[j][src]
			if !ok {
				break
			}
			buf = append(buf, v)
		}
		if len(buf) == window {
			rows[i][dst] = stat.Mean(buf, nil)
		}
	}
}

// Diff writes rows[i][src] - rows[i-1][src] into dst. dst is left unset for
// the first row and whenever either operand is missing.
func Diff(rows []map[string]float64, src, dst string) {
	for i := 1; i < len(rows); i++ {
		cur, ok := rows[i][src]
		if !ok {
			continue
		}
		prev, ok := rows[i-1][src]
		if !ok {
			continue
		}
		rows[i][dst] = cur - prev
	}
}
