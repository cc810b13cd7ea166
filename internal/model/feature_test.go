package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFeatureVectorDefaults(t *testing.T) {
	fv := NewFeatureVector()

	require.Len(t, fv, len(FeatureNames()))
	assert.Equal(t, 1.0, fv[FeatVocabDiversity], "no text means full diversity")
	assert.Zero(t, fv[FeatSuspiciousHits])
	assert.Zero(t, fv[FeatMissingRequired])
	assert.Zero(t, fv[FeatFutureTimestamp])
}

func TestFeatureNamesComplete(t *testing.T) {
	names := FeatureNames()
	assert.Contains(t, names, FeatVocabDiversity)
	assert.Contains(t, names, FeatNestingDepth)
	assert.Contains(t, names, FeatMagnitude)
}
