package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	id "siscof/pkg/domain"
)

func TestUnitSet(t *testing.T) {
	a := id.NewUnitID()
	b := id.NewUnitID()
	c := id.NewUnitID()

	t.Run("empty set contains nothing", func(t *testing.T) {
		set := NewUnitSet()
		assert.True(t, set.Empty())
		assert.False(t, set.Contains(a))
	})

	t.Run("add and contains", func(t *testing.T) {
		set := NewUnitSet()
		set.Add(a)
		set.AddAll([]id.UnitID{b})
		assert.True(t, set.Contains(a))
		assert.True(t, set.Contains(b))
		assert.False(t, set.Contains(c))
		assert.Equal(t, 2, set.Len())
	})

	t.Run("all subsumes everything", func(t *testing.T) {
		set := AllUnits()
		assert.True(t, set.All())
		assert.True(t, set.Contains(c))
		assert.False(t, set.Empty())
		set.Add(a)
		assert.Equal(t, 0, set.Len())
	})

	t.Run("union folds members", func(t *testing.T) {
		left := NewUnitSet()
		left.Add(a)
		right := NewUnitSet()
		right.Add(b)
		left.Union(right)
		assert.True(t, left.Contains(a))
		assert.True(t, left.Contains(b))
	})

	t.Run("union with all becomes all", func(t *testing.T) {
		set := NewUnitSet()
		set.Add(a)
		set.Union(AllUnits())
		assert.True(t, set.All())
	})

	t.Run("zero value behaves as empty", func(t *testing.T) {
		var set UnitSet
		assert.True(t, set.Empty())
		set.Add(a)
		assert.True(t, set.Contains(a))
	})
}
