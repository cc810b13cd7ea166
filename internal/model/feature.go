package model

// Feature names. Every FeatureVector carries all of them; extraction fills
// in what applies and leaves the rest at the neutral default.
const (
	FeatVocabDiversity  = "text_vocab_diversity"
	FeatUppercaseRatio  = "text_uppercase_ratio"
	FeatDigitRatio      = "text_digit_ratio"
	FeatSuspiciousHits  = "text_suspicious_hits"
	FeatAgeDays         = "time_age_days"
	FeatFutureTimestamp = "time_future"
	FeatStaleTimestamp  = "time_stale"
	FeatMissingRequired = "struct_missing_required"
	FeatNestingDepth    = "struct_nesting_depth"
	FeatMagnitude       = "num_magnitude"
	FeatNegativeValue   = "num_negative"
)

// featureDefaults maps every schema key to its neutral default. Vocabulary
// diversity defaults to 1.0 so records with no text fields are not scored
// as low-diversity.
var featureDefaults = map[string]float64{
	FeatVocabDiversity:  1.0,
	FeatUppercaseRatio:  0,
	FeatDigitRatio:      0,
	FeatSuspiciousHits:  0,
	FeatAgeDays:         0,
	FeatFutureTimestamp: 0,
	FeatStaleTimestamp:  0,
	FeatMissingRequired: 0,
	FeatNestingDepth:    0,
	FeatMagnitude:       0,
	FeatNegativeValue:   0,
}

// FeatureVector is a fixed-schema mapping of feature name to numeric value,
// derived deterministically from one Record. Boolean features use 0/1.
type FeatureVector map[string]float64

// NewFeatureVector returns a vector with every schema key at its neutral
// default.
func NewFeatureVector() FeatureVector {
	fv := make(FeatureVector, len(featureDefaults))
	for name, def := range featureDefaults {
		fv[name] = def
	}
	return fv
}

// FeatureNames returns the full feature schema.
func FeatureNames() []string {
	names := make([]string, 0, len(featureDefaults))
	for name := range featureDefaults {
		names = append(names, name)
	}
	return names
}
