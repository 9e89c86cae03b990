package hierarchy

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "siscof/pkg/domain"
	dErrors "siscof/pkg/domain-errors"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("  Sede ")
	require.NoError(t, err)
	assert.Equal(t, LevelSede, level)

	_, err = ParseLevel("diocese")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestIsValidParentLevel(t *testing.T) {
	levels := []Level{LevelMatriz, LevelSede, LevelSubsede, LevelCongregacao, LevelCelula}

	// The only legal parent levels per child level; every other pairing
	// must be rejected.
	validParents := map[Level][]Level{
		LevelMatriz:      nil,
		LevelSede:        {LevelMatriz},
		LevelSubsede:     {LevelSede},
		LevelCongregacao: {LevelSubsede, LevelSede},
		LevelCelula:      {LevelMatriz, LevelSede, LevelSubsede, LevelCongregacao},
	}

	for _, child := range levels {
		for _, parent := range levels {
			want := slices.Contains(validParents[child], parent)
			assert.Equalf(t, want, IsValidParentLevel(child, parent),
				"child %s under parent %s", child, parent)
		}
	}
}

func TestNewUnit(t *testing.T) {
	now := time.Now()
	parentID := id.NewUnitID()

	t.Run("matriz with no parent", func(t *testing.T) {
		unit, err := NewUnit(id.NewUnitID(), "Igreja Matriz", LevelMatriz, nil, "sp", now)
		require.NoError(t, err)
		assert.True(t, unit.Active)
		assert.Equal(t, "SP", unit.RegionCode)
	})

	t.Run("matriz with parent rejected", func(t *testing.T) {
		_, err := NewUnit(id.NewUnitID(), "Matriz", LevelMatriz, &parentID, "SP", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("non-matriz requires parent", func(t *testing.T) {
		_, err := NewUnit(id.NewUnitID(), "Sede BA", LevelSede, nil, "BA", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := NewUnit(id.NewUnitID(), "   ", LevelSede, &parentID, "BA", now)
		require.Error(t, err)
	})

	t.Run("empty region rejected", func(t *testing.T) {
		_, err := NewUnit(id.NewUnitID(), "Sede BA", LevelSede, &parentID, " ", now)
		require.Error(t, err)
	})
}
