package indicator

// Regression holds the least-squares line fit over a value window.
// Strength is the coefficient of determination R², in [0,1].
type Regression struct {
	Slope     float64
	Intercept float64
	Strength  float64
}

// LinearRegression fits a least-squares line y = slope*x + intercept over
// values with x = 0..n-1 and returns the fit plus R² as trend strength.
// Fewer than 2 values (or a perfectly flat series) yields a zero-strength fit.
func LinearRegression(values []float64) Regression {
	n := len(values)
	if n < 2 {
		return Regression{}
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}

	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return Regression{}
	}
	slope := (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn

	// R² = 1 - SSres/SStot
	meanY := sumY / fn
	var ssRes, ssTot float64
	for i, v := range values {
		pred := slope*float64(i) + intercept
		ssRes += (v - pred) * (v - pred)
		ssTot += (v - meanY) * (v - meanY)
	}
	if ssTot == 0 {
		return Regression{Slope: slope, Intercept: intercept}
	}

	r2 := 1 - ssRes/ssTot
	if r2 < 0 {
		r2 = 0
	}
	return Regression{Slope: slope, Intercept: intercept, Strength: r2}
}
