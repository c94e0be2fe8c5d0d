package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_BuiltinCatalog(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, c.All())

	ex, err := c.Get("back_squat")
	require.NoError(t, err)
	assert.Equal(t, "quadriceps", ex.MuscleGroup)
	require.NotNil(t, ex.Ratio)
	assert.Equal(t, "squat", ex.Ratio.Benchmark)
}

func TestGet_Unknown(t *testing.T) {
	c := MustLoad()
	_, err := c.Get("moon_press")
	assert.ErrorIs(t, err, ErrExerciseNotFound)
}

func TestFilter_EquipmentAndOrdering(t *testing.T) {
	c := MustLoad()

	got := c.Filter("chest", map[string]bool{"dumbbell": true})
	ids := make([]string, 0, len(got))
	for _, ex := range got {
		ids = append(ids, ex.ID)
	}

	// barbell, machine and cable are excluded; bodyweight is always allowed
	assert.Equal(t, []string{"incline_dumbbell_press", "push_up"}, ids)

	all := c.Filter("biceps", nil)
	assert.Len(t, all, 3)
}

func TestParse_RejectsBadEntries(t *testing.T) {
	_, err := Parse([]byte("exercises:\n  - id: a\n    equipment: barbell\n  - id: a\n    equipment: barbell\n"))
	assert.ErrorContains(t, err, "duplicate")

	_, err = Parse([]byte("exercises:\n  - name: no id\n    equipment: barbell\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("exercises:\n  - id: x\n    equipment: trampoline\n"))
	assert.ErrorContains(t, err, "unknown equipment")
}
