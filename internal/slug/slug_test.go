package slug

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func existsIn(set map[string]struct{}) ExistsFunc {
	return func(_ context.Context, s string) (bool, error) {
		_, ok := set[s]
		return ok, nil
	}
}

func TestGenerateBaseForm(t *testing.T) {
	id := "f47ac10b-58cc-4372-a567-0e02b2c3d479"
	got, err := Generate(context.Background(), "Academic Calendar 2026", id, existsIn(nil))
	require.NoError(t, err)
	assert.Equal(t, "academic-calendar-2026-f47ac10b", got)
}

func TestGenerateNumericSuffixAfterCollision(t *testing.T) {
	id := "f47ac10b-58cc-4372-a567-0e02b2c3d479"
	taken := map[string]struct{}{
		"form-a-f47ac10b":   {},
		"form-a-f47ac10b-1": {},
	}
	got, err := Generate(context.Background(), "Form A", id, existsIn(taken))
	require.NoError(t, err)
	assert.Equal(t, "form-a-f47ac10b-2", got)
}

func TestGenerateEmptyNameFallsBackToID(t *testing.T) {
	id := "f47ac10b-58cc-4372-a567-0e02b2c3d479"
	got, err := Generate(context.Background(), "!!!", id, existsIn(nil))
	require.NoError(t, err)
	assert.Equal(t, id+"-f47ac10b", got)
}

func TestGenerateSequencePairwiseDistinct(t *testing.T) {
	taken := map[string]struct{}{}
	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		got, err := Generate(context.Background(), "Term Dates", uuid.NewString(), existsIn(taken))
		require.NoError(t, err)
		_, dup := seen[got]
		require.False(t, dup, "duplicate slug %q", got)
		seen[got] = struct{}{}
		taken[got] = struct{}{}
	}
}

func TestGenerateSameInputsSameBase(t *testing.T) {
	id := uuid.NewString()
	want := fmt.Sprintf("school-policies-%s", id[:8])
	for i := 0; i < 3; i++ {
		got, err := Generate(context.Background(), "School Policies", id, existsIn(nil))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestGeneratePropagatesLookupError(t *testing.T) {
	boom := fmt.Errorf("db down")
	_, err := Generate(context.Background(), "Form A", uuid.NewString(), func(context.Context, string) (bool, error) {
		return false, boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
