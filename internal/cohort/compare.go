package cohort

import (
	"userinsight/internal/dataset"
	"userinsight/internal/scoring"
)

// RatioUndefined stands in for a power/non-power ratio or percent
// difference whose denominator mean is 0. It is a compatibility
// sentinel, not a meaningful number; consumers should render it as
// "very large / undefined" rather than as a literal value.
const RatioUndefined = 999.0

// MetricComparison is one metric's power-vs-non-power summary.
type MetricComparison struct {
	Metric      Metric  `json:"metric"`
	Power       Stats   `json:"power"`
	NonPower    Stats   `json:"non_power"`
	Ratio       float64 `json:"ratio"`
	PercentDiff float64 `json:"percent_diff"`
}

// ComparisonResult is the binary comparison over the manual
// classification partition of the population.
type ComparisonResult struct {
	PowerCount    int                `json:"power_count"`
	NonPowerCount int                `json:"non_power_count"`
	UnmarkedCount int                `json:"unmarked_count"`
	Metrics       []MetricComparison `json:"metrics"`
}

// Compare partitions the population by manual classification and
// reports per-metric descriptive statistics for the power and non-power
// groups plus their ratio and percent difference. Unlabeled users are
// counted but excluded from both groups.
func Compare(pop []scoring.ScoredUser) ComparisonResult {
	var power, nonPower []scoring.ScoredUser
	unmarked := 0
	for _, u := range pop {
		switch u.Classification {
		case dataset.MarkedPower:
			power = append(power, u)
		case dataset.MarkedNonPower:
			nonPower = append(nonPower, u)
		default:
			unmarked++
		}
	}

	result := ComparisonResult{
		PowerCount:    len(power),
		NonPowerCount: len(nonPower),
		UnmarkedCount: unmarked,
		Metrics:       make([]MetricComparison, 0, len(Metrics)),
	}

	for _, m := range Metrics {
		ps := Calculate(metricValues(power, m))
		ns := Calculate(metricValues(nonPower, m))
		result.Metrics = append(result.Metrics, MetricComparison{
			Metric:      m,
			Power:       ps,
			NonPower:    ns,
			Ratio:       safeRatio(ps.Mean, ns.Mean),
			PercentDiff: safePercentDiff(ps.Mean, ns.Mean),
		})
	}
	return result
}

// safeRatio divides the power mean by the non-power mean, resolving the
// zero denominator to 0 when both means are 0 and to RatioUndefined
// otherwise, so no NaN or Inf crosses the package boundary.
func safeRatio(power, nonPower float64) float64 {
	if nonPower == 0 {
		if power == 0 {
			return 0
		}
		return RatioUndefined
	}
	return power / nonPower
}

func safePercentDiff(power, nonPower float64) float64 {
	if nonPower == 0 {
		if power == 0 {
			return 0
		}
		return RatioUndefined
	}
	return (power - nonPower) / nonPower * 100
}
