package v1alpha1

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisSnapshotAccessors(t *testing.T) {
	payload := []byte(`{
		"analysis_data": {
			"status": "processing",
			"progress": 62.5,
			"current_step": "extracting skills"
		}
	}`)

	var snapshot AnalysisSnapshot
	require.NoError(t, json.Unmarshal(payload, &snapshot))

	assert.Equal(t, AnalysisStatusProcessing, snapshot.Status())
	progress, ok := snapshot.Progress()
	assert.True(t, ok)
	assert.Equal(t, 62.5, progress)
	assert.Equal(t, "extracting skills", snapshot.CurrentStep())
}

func TestAnalysisSnapshotMissingFields(t *testing.T) {
	var nilSnapshot *AnalysisSnapshot
	assert.Equal(t, AnalysisStatus(""), nilSnapshot.Status())

	empty := &AnalysisSnapshot{}
	assert.Equal(t, AnalysisStatus(""), empty.Status())
	_, ok := empty.Progress()
	assert.False(t, ok)
	assert.Empty(t, empty.CurrentStep())

	malformed := &AnalysisSnapshot{AnalysisData: map[string]any{"status": 7, "progress": "half"}}
	assert.Equal(t, AnalysisStatus(""), malformed.Status())
	_, ok = malformed.Progress()
	assert.False(t, ok)
}

func TestServiceErrorShape(t *testing.T) {
	var svcErr ServiceError
	require.NoError(t, json.Unmarshal(
		[]byte(`{"error":{"message":"file too large","details":"limit is 10MB"}}`), &svcErr))
	assert.Equal(t, "file too large", svcErr.Error.Message)
	assert.Equal(t, "limit is 10MB", svcErr.Error.Details)
}
