package speech

// Severity and confidence scoring. Confidence blends aggregate test strength
// with window sample sizes; severity derives from confidence and the count
// of significant metrics, then narrative context may dampen it.

// highImpactWeight marks the event types (death, trauma, illness in the
// default table) that always justify a speech change enough to dampen.
const highImpactWeight = 0.8

// lowImpactConfidenceCeiling: below-high-impact events only dampen when the
// statistical case is not overwhelming.
const lowImpactConfidenceCeiling = 0.85

// sampleSaturation is the per-window word count at which the sample-size
// component of confidence maxes out.
const sampleSaturation = 400.0

// Confidence combines mean test strength over the significant metrics with
// the smaller window's sample size, clipped to [0,1].
func Confidence(records []ChangeRecord, a, b Metrics) float64 {
	strengthSum := 0.0
	sig := 0
	for _, r := range records {
		if !r.Significant {
			continue
		}
		sig++
		strengthSum += clamp01(1 - r.PValue)
	}
	if sig == 0 {
		return 0
	}
	strength := strengthSum / float64(sig)

	minWords := a.SampleSize
	if b.SampleSize < minWords {
		minWords = b.SampleSize
	}
	sizeFactor := clamp01(float64(minWords) / sampleSaturation)

	return clamp01(0.7*strength + 0.3*sizeFactor)
}

// BaseSeverity is monotone in confidence for a fixed significant count.
func BaseSeverity(confidence float64, significant int) Severity {
	switch {
	case confidence > 0.85 && significant >= 4:
		return SeverityHigh
	case confidence > 0.7 && significant >= 3:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Dampen lowers severity exactly one level when the narrative justifies the
// change: unconditionally for high-impact events, and only while confidence
// stays at or below the ceiling for the rest.
func Dampen(sev Severity, ctx NarrativeContext, confidence float64) Severity {
	if !ctx.HasDramaticEvent {
		return sev
	}
	if ctx.Weight >= highImpactWeight {
		return downgrade(sev)
	}
	if confidence <= lowImpactConfidenceCeiling {
		return downgrade(sev)
	}
	return sev
}

func downgrade(sev Severity) Severity {
	switch sev {
	case SeverityHigh:
		return SeverityMedium
	case SeverityMedium:
		return SeverityLow
	default:
		return SeverityLow
	}
}
