package pipeline

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// MSE is the mean squared error between actual and predicted values.
func MSE(actual, predicted []float64) (float64, error) {
	if len(actual) != len(predicted) {
		return 0, fmt.Errorf("mse: %d actual values but %d predictions", len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return 0, fmt.Errorf("mse: no values")
	}
	d := floats.Distance(actual, predicted, 2)
	return d * d / float64(len(actual)), nil
}

// FormatMSE renders an error value the way the results screen shows it.
func FormatMSE(mse float64) string {
	return fmt.Sprintf("%.2f", mse)
}
