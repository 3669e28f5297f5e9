package speech

import (
	"math"

	"speech_tracker/internal/stats"
)

// Thresholds are the minimum changes worth reporting per metric: relative
// change for the rate and length metrics, absolute difference for the 0-1
// formality score.
type Thresholds struct {
	FillerRate        float64
	FormalityScore    float64
	AvgSentenceLength float64
	LexicalDiversity  float64
	ExclamationRate   float64
	QuestionRate      float64
}

// Detector compares metric vectors pairwise. A metric is significant only
// when it clears its change threshold AND the configured statistical test
// agrees; a pair becomes an alert candidate only with at least two
// simultaneously significant metrics.
type Detector struct {
	tester stats.Tester
	th     Thresholds
}

func NewDetector(tester stats.Tester, th Thresholds) *Detector {
	return &Detector{tester: tester, th: th}
}

// MinSignificantMetrics is the candidate floor: one changed metric is not
// evidence, it is noise.
const MinSignificantMetrics = 2

func (d *Detector) Compare(a, b Metrics) []ChangeRecord {
	records := make([]ChangeRecord, 0, 6)

	// Rate-like metrics: recover occurrence counts, chi-square the 2x2.
	records = append(records, d.countRecord("filler_rate",
		a.FillerRate, b.FillerRate, d.th.FillerRate,
		perWords(a.FillerRate, a.SampleSize), a.SampleSize,
		perWords(b.FillerRate, b.SampleSize), b.SampleSize))
	records = append(records, d.countRecord("exclamation_rate",
		a.ExclamationRate, b.ExclamationRate, d.th.ExclamationRate,
		perSentences(a.ExclamationRate, a.SentenceCount), a.SentenceCount,
		perSentences(b.ExclamationRate, b.SentenceCount), b.SentenceCount))
	records = append(records, d.countRecord("question_rate",
		a.QuestionRate, b.QuestionRate, d.th.QuestionRate,
		perSentences(a.QuestionRate, a.SentenceCount), a.SentenceCount,
		perSentences(b.QuestionRate, b.SentenceCount), b.SentenceCount))

	// Continuous metrics: z-tests.
	formality := d.tester.ZProportion(a.FormalityScore, a.SampleSize, b.FormalityScore, b.SampleSize)
	records = append(records, ChangeRecord{
		Metric:      "formality_score",
		Before:      a.FormalityScore,
		After:       b.FormalityScore,
		PValue:      formality.PValue,
		Significant: math.Abs(b.FormalityScore-a.FormalityScore) > d.th.FormalityScore && formality.Significant,
	})

	asl := d.tester.ZMeans(a.AvgSentenceLength, a.SentenceCount, b.AvgSentenceLength, b.SentenceCount)
	records = append(records, ChangeRecord{
		Metric:      "avg_sentence_length",
		Before:      a.AvgSentenceLength,
		After:       b.AvgSentenceLength,
		PValue:      asl.PValue,
		Significant: relativeChange(a.AvgSentenceLength, b.AvgSentenceLength) > d.th.AvgSentenceLength && asl.Significant,
	})

	ttr := d.tester.ZProportion(a.LexicalDiversity, a.SampleSize, b.LexicalDiversity, b.SampleSize)
	records = append(records, ChangeRecord{
		Metric:      "lexical_diversity",
		Before:      a.LexicalDiversity,
		After:       b.LexicalDiversity,
		PValue:      ttr.PValue,
		Significant: relativeChange(a.LexicalDiversity, b.LexicalDiversity) > d.th.LexicalDiversity && ttr.Significant,
	})

	return records
}

func (d *Detector) countRecord(metric string, before, after, threshold float64, countA, totalA, countB, totalB int) ChangeRecord {
	res := d.tester.ChiSquare(countA, totalA, countB, totalB)
	return ChangeRecord{
		Metric:      metric,
		Before:      before,
		After:       after,
		PValue:      res.PValue,
		Significant: relativeChange(before, after) > threshold && res.Significant,
	}
}

// SignificantCount returns how many records in a comparison are significant.
func SignificantCount(records []ChangeRecord) int {
	n := 0
	for _, r := range records {
		if r.Significant {
			n++
		}
	}
	return n
}

func relativeChange(before, after float64) float64 {
	if before == 0 && after == 0 {
		return 0
	}
	base := math.Abs(before)
	if base < 1e-9 {
		base = 1e-9
	}
	return math.Abs(after-before) / base
}

func perWords(ratePer100 float64, words int) int {
	return int(math.Round(ratePer100 * float64(words) / 100))
}

func perSentences(ratePer100 float64, sentences int) int {
	return int(math.Round(ratePer100 * float64(sentences) / 100))
}
