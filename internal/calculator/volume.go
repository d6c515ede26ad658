package calculator

// CalculateVolumeRatio divides the latest volume by the average of the last period volumes.
// Returns 0 when there is no volume to compare against.
func CalculateVolumeRatio(volumes []float64, period int) float64 {
	if len(volumes) == 0 || period <= 0 {
		return 0
	}
	if len(volumes) < period {
		period = len(volumes)
	}
	avg, err := CalculateSMA(volumes, period)
	if err != nil || avg == 0 {
		return 0
	}
	return volumes[len(volumes)-1] / avg
}
