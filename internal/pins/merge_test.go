package pins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/sprinkler/internal/model"
)

func numbers(pins []model.Pin) []int {
	out := make([]int, len(pins))
	for i, p := range pins {
		out[i] = p.Number
	}
	return out
}

func TestNewCatalogRejectsBadInput(t *testing.T) {
	_, err := NewCatalog(nil)
	require.Error(t, err)
	_, err = NewCatalog([]int{4, 0})
	require.ErrorContains(t, err, "invalid pin 0")
	_, err = NewCatalog([]int{4, 5, 4})
	require.ErrorContains(t, err, "duplicate pin 4")
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, 16, c.Len())
	assert.True(t, c.Contains(27))
	assert.False(t, c.Contains(2))

	defaults := c.Defaults()
	assert.Equal(t, c.Numbers(), numbers(defaults))
	for _, p := range defaults {
		assert.False(t, p.Enabled())
		assert.False(t, p.Active())
		assert.Nil(t, p.Name)
	}
}

func TestMergeAbsentRemote(t *testing.T) {
	c, err := NewCatalog([]int{1, 2, 3})
	require.NoError(t, err)

	current := []model.Pin{{Number: 2, Name: model.String("Roses")}}
	got := c.Merge(current, nil)
	assert.Equal(t, current, got)

	got[0].Name = model.String("changed")
	assert.Equal(t, "Roses", *current[0].Name, "result must not alias current")

	assert.Equal(t, c.Defaults(), c.Merge(nil, nil))
}

func TestMergeOrdersRemoteFirstThenCatalog(t *testing.T) {
	c, err := NewCatalog([]int{1, 2, 3, 4})
	require.NoError(t, err)

	remote := []model.Pin{
		{Number: 3, IsActive: model.Bool(true)},
		{Number: 1},
	}
	got := c.Merge(nil, remote)
	assert.Equal(t, []int{3, 1, 2, 4}, numbers(got))
	assert.True(t, got[0].Active())
	assert.False(t, got[0].Enabled(), "missing fields fall back to defaults")
}

func TestMergeFieldFallbackToCurrent(t *testing.T) {
	c, err := NewCatalog([]int{1, 2})
	require.NoError(t, err)

	current := []model.Pin{
		{Number: 1, Name: model.String("Lawn"), IsActive: model.Bool(true), IsEnabled: model.Bool(true)},
		{Number: 2, Name: model.String("Beds"), IsEnabled: model.Bool(true)},
	}
	got := c.Merge(current, []model.Pin{{Number: 1}})

	require.Len(t, got, 2)
	assert.Equal(t, current[0], got[0])
	assert.Equal(t, "Beds", *got[1].Name)
	assert.True(t, got[1].Enabled())
	assert.False(t, got[1].Active())
}

func TestMergeRemoteOverridesCurrent(t *testing.T) {
	c, err := NewCatalog([]int{1})
	require.NoError(t, err)

	current := []model.Pin{{Number: 1, Name: model.String("Old"), IsActive: model.Bool(true)}}
	got := c.Merge(current, []model.Pin{{Number: 1, Name: model.String("New"), IsActive: model.Bool(false)}})
	assert.Equal(t, "New", *got[0].Name)
	assert.False(t, got[0].Active())
}

func TestMergePreservesCatalogSize(t *testing.T) {
	c := DefaultCatalog()
	cases := map[string][]model.Pin{
		"empty report":  {},
		"unknown only":  {{Number: 99}, {Number: 2}},
		"duplicates":    {{Number: 4}, {Number: 4, Name: model.String("second")}, {Number: 12}},
		"full reversed": reversed(c.Defaults()),
	}
	for name, remote := range cases {
		t.Run(name, func(t *testing.T) {
			got := c.Merge(nil, remote)
			require.Len(t, got, c.Len())
			seen := map[int]int{}
			for _, p := range got {
				seen[p.Number]++
			}
			for _, n := range c.Numbers() {
				assert.Equal(t, 1, seen[n], "pin %d", n)
			}
		})
	}
}

func TestMergeDuplicateRemoteFirstWins(t *testing.T) {
	c, err := NewCatalog([]int{4})
	require.NoError(t, err)
	got := c.Merge(nil, []model.Pin{{Number: 4, Name: model.String("first")}, {Number: 4, Name: model.String("second")}})
	assert.Equal(t, "first", *got[0].Name)
}

func TestUnknown(t *testing.T) {
	c, err := NewCatalog([]int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{7, 3}, c.Unknown([]model.Pin{{Number: 7}, {Number: 1}, {Number: 3}, {Number: 7}}))
	assert.Nil(t, c.Unknown([]model.Pin{{Number: 2}}))
}

func reversed(in []model.Pin) []model.Pin {
	out := make([]model.Pin, len(in))
	for i, p := range in {
		out[len(in)-1-i] = p
	}
	return out
}
