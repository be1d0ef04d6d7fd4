package market

// sparkMinDenominator bounds the interpolation denominator away from
// zero; a 24h change of -100% or lower would otherwise divide by zero.
const sparkMinDenominator = 1e-6

// Sparkline derives a 7-point trailing trend line from a single price
// and its 24h change, assuming the change accrued linearly. The series
// runs oldest to newest and ends exactly at lastPrice. It exists so the
// watchlist can show a trend without one history fetch per instrument;
// consumers must treat it as an interpolation, not as sampled history.
func Sparkline(lastPrice, changePct float64) []float64 {
	points := make([]float64, 0, SparkPoints)
	for i := SparkPoints - 1; i >= 0; i-- {
		denom := 1 + changePct/100*(float64(i)/float64(SparkPoints-1))
		if denom < sparkMinDenominator {
			denom = sparkMinDenominator
		}
		points = append(points, lastPrice/denom)
	}
	return points
}
