package profiling

// Summary holds describe-style statistics for one numeric column.
type Summary struct {
	Count    int
	Mean     float64
	StdDev   float64 // sample standard deviation
	Min      float64
	Q25      float64
	Median   float64
	Q75      float64
	Max      float64
	Skewness float64
	Outliers int // outside 1.5 IQR of the quartiles
}

// ColumnProfile pairs a column name with its summary.
type ColumnProfile struct {
	Name     string
	IsTarget bool
	Summary  Summary
}
