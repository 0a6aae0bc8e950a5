package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ListsSurveyTasks(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	for _, taskType := range []string{"survey-form-load", "survey-form-submit"} {
		a, ok := reg.Find(taskType)
		require.True(t, ok, taskType)
		assert.NotEmpty(t, a.InputSchema)
		assert.Contains(t, a.ErrorCodes, "INVALID_INPUT")
	}

	_, ok := reg.Find("send-email")
	assert.False(t, ok)
}

func TestInputContract_Load(t *testing.T) {
	v := InputContract("survey-form-load")

	res, err := v.Validate(map[string]interface{}{
		"fileName": "store-checklist.json",
		"params":   map[string]interface{}{"outletId": "42"},
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = v.Validate(map[string]interface{}{"fileName": "  "})
	require.NoError(t, err)
	assert.False(t, res.Valid)

	res, err = v.Validate(map[string]interface{}{"query": "a=b"})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, Describe(res), "fileName")
}

func TestInputContract_SubmitValues(t *testing.T) {
	v := InputContract("survey-form-submit")

	res, err := v.Validate(map[string]interface{}{
		"fileName": "store-checklist.json",
		"values": map[string]interface{}{
			"outlet": "Corner Shop",
			"brands": []interface{}{"alpha", "beta"},
		},
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = v.Validate(map[string]interface{}{
		"fileName": "store-checklist.json",
		"values":   map[string]interface{}{"outlet": map[string]interface{}{"nested": true}},
	})
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestInputContract_UnknownTaskPanics(t *testing.T) {
	assert.Panics(t, func() { InputContract("nope") })
}

func TestParse_RejectsDuplicates(t *testing.T) {
	_, err := Parse([]byte(`{"activities":[{"id":"a","taskType":"x"},{"id":"b","taskType":"x"}]}`))
	assert.ErrorContains(t, err, `duplicate taskType "x"`)

	_, err = Parse([]byte(`{"activities":[{"id":"a"}]}`))
	assert.ErrorContains(t, err, "has no taskType")

	_, err = Parse([]byte(`{`))
	assert.Error(t, err)
}

func TestLoadRegistry_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, builtin, 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, reg.Activities, 2)

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
