package seasonal

import (
	"math"

	"OraclePortfolio/internal/domain/models"
	"OraclePortfolio/pkg/util"
)

// AdjustIndicators adjusts every indicator that belongs to a seasonal family.
// Each family's factor is drawn once per call so related indicators move together.
// GDP growth and unemployment are already seasonally adjusted at the source and pass through.
func (a *Adjuster) AdjustIndicators(indicators models.IndicatorSet, country string, month int) models.SeasonalReport {
	report := models.SeasonalReport{
		Country:  country,
		Month:    month,
		Season:   util.Season(month),
		Adjusted: indicators.Clone(),
	}
	if !util.ValidMonth(month) {
		report.Recommendations = []string{"month out of range: indicators left unadjusted"}
		return report
	}

	factors := make(map[models.IndicatorFamily]factorResult)
	for _, name := range indicators.Names() {
		raw, _ := indicators.Get(name)
		family, seasonal := familyOf[name]
		if !seasonal {
			continue
		}

		f, ok := factors[family]
		if !ok {
			if f, ok = a.factor(family, country, month); !ok {
				continue
			}
			factors[family] = f
		}

		line := models.IndicatorAdjustment{
			Indicator:  name,
			Family:     family,
			Raw:        raw,
			Factor:     f.value,
			Confidence: Confidence(f.value),
		}
		switch name {
		case models.IndicatorElectricityGrowth:
			line.Adjusted = raw - (f.value-1)*0.5
			line.Score = score(clamp((line.Adjusted+5)/10, 0, 1))
		case models.IndicatorPMI:
			line.Adjusted = applyFactor(family, raw, f.value)
			line.Score = score(clamp((line.Adjusted-40)/20, 0, 1))
		case models.IndicatorBalticDryIndex:
			line.Adjusted = applyFactor(family, raw, f.value)
			line.Score = score(clamp(line.Adjusted/2000*0.7, 0, 1))
			line.Interpretation = MaritimeInterpretation(line.Adjusted)
		default:
			line.Adjusted = applyFactor(family, raw, f.value)
		}

		report.Adjusted[name] = line.Adjusted
		report.Details = append(report.Details, line)
	}

	if len(factors) > 0 {
		var total float64
		for _, f := range factors {
			total += math.Abs(f.value-1) * 100
		}
		report.AverageMagnitude = total / float64(len(factors))
	}
	report.Recommendations = recommendations(report.AverageMagnitude, month)
	return report
}

// MaritimeInterpretation grades a Baltic Dry Index reading.
func MaritimeInterpretation(bdi float64) string {
	switch {
	case bdi > 2200:
		return "very_strong"
	case bdi > 1800:
		return "strong"
	case bdi > 1400:
		return "moderate"
	case bdi > 1000:
		return "weak"
	}
	return "very_weak"
}

func recommendations(magnitude float64, month int) []string {
	var out []string
	switch {
	case magnitude > 15:
		out = append(out, "strong seasonal effects: base decisions on adjusted values")
	case magnitude > 8:
		out = append(out, "moderate seasonal effects: compare adjusted and raw trends")
	default:
		out = append(out, "limited seasonal effects: raw values remain usable")
	}

	switch month {
	case 12, 1, 2:
		out = append(out, "winter: heating inflates electricity demand")
	case 7, 8:
		out = append(out, "summer: industrial holidays depress PMI readings")
	case 9, 10, 11:
		out = append(out, "pre-winter: shipping volumes seasonally strong")
	}

	return append(out, "use the same adjustment for every country being compared")
}

func score(v float64) *float64 { return &v }
