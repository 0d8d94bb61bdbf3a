package models

// ProbabilityComponents holds the five independent sub-scores of a scored
// candidate, each in [0,100], and the weighted composite. FinalProbability
// is a pure function of the five sub-scores and the pipeline weights; it
// carries no hidden state.
type ProbabilityComponents struct {
	MarketScore      float64
	TrendScore       float64
	MomentumScore    float64
	VolumeScore      float64
	RiskScore        float64
	FinalProbability float64
}
