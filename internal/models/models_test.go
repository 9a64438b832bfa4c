package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelInvert(t *testing.T) {
	assert.Equal(t, LabelFraudulent, LabelLegitimate.Invert())
	assert.Equal(t, LabelLegitimate, LabelFraudulent.Invert())

	// Involution: inverting twice restores the label.
	for _, l := range []Label{LabelLegitimate, LabelFraudulent} {
		assert.Equal(t, l, l.Invert().Invert())
	}
}

func TestParseLabel(t *testing.T) {
	label, err := ParseLabel("legitimate")
	require.NoError(t, err)
	assert.Equal(t, LabelLegitimate, label)

	label, err = ParseLabel("fraudulent")
	require.NoError(t, err)
	assert.Equal(t, LabelFraudulent, label)

	for _, bad := range []string{"", "spam", "LEGITIMATE", "2"} {
		_, err := ParseLabel(bad)
		assert.Error(t, err, bad)
	}
}

func TestLabelJSON(t *testing.T) {
	raw, err := json.Marshal(LabelFraudulent)
	require.NoError(t, err)
	assert.Equal(t, `"fraudulent"`, string(raw))

	var label Label
	require.NoError(t, json.Unmarshal([]byte(`"legitimate"`), &label))
	assert.Equal(t, LabelLegitimate, label)

	assert.Error(t, json.Unmarshal([]byte(`"maybe"`), &label))
	assert.Error(t, json.Unmarshal([]byte(`1`), &label))
}

func TestLabelScan(t *testing.T) {
	var label Label
	require.NoError(t, label.Scan(int64(1)))
	assert.Equal(t, LabelFraudulent, label)

	require.NoError(t, label.Scan(int64(0)))
	assert.Equal(t, LabelLegitimate, label)

	assert.Error(t, label.Scan(int64(2)))
	assert.Error(t, label.Scan("1"))
}

func TestFamilyOther(t *testing.T) {
	assert.Equal(t, FamilyRandomForest, FamilyNaiveBayes.Other())
	assert.Equal(t, FamilyNaiveBayes, FamilyRandomForest.Other())
}

func TestParseFamilyRoundTrip(t *testing.T) {
	for _, family := range AllFamilies() {
		parsed, err := ParseFamily(family.String())
		require.NoError(t, err)
		assert.Equal(t, family, parsed)
	}

	_, err := ParseFamily("svm")
	assert.Error(t, err)
}

func TestFamilyScan(t *testing.T) {
	var family ModelFamily
	require.NoError(t, family.Scan("random_forest"))
	assert.Equal(t, FamilyRandomForest, family)

	require.NoError(t, family.Scan([]byte("naive_bayes")))
	assert.Equal(t, FamilyNaiveBayes, family)

	assert.Error(t, family.Scan("unknown"))
	assert.Error(t, family.Scan(int64(1)))
}

func TestModelArtifactJSONHidesBundle(t *testing.T) {
	art := ModelArtifact{Family: FamilyNaiveBayes, Bundle: []byte("secret-bytes")}
	raw, err := json.Marshal(art)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-bytes")
	assert.NotContains(t, string(raw), "bundle")
}
