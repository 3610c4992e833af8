package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatio(t *testing.T) {
	assert.Equal(t, 100, Ratio("abc", "abc"))
	assert.Equal(t, 100, Ratio("", ""))
	assert.Equal(t, 0, Ratio("abc", "xyz"))
	assert.Equal(t, 75, Ratio("abcd", "abce"))
}

func TestPartialRatio(t *testing.T) {
	assert.Equal(t, 100, PartialRatio("abc", "xxabcxx"))
	assert.Equal(t, 100, PartialRatio("xxabcxx", "abc"))
	assert.Equal(t, 0, PartialRatio("", "abc"))
	assert.Equal(t, 100, PartialRatio("STEWART COUNTY JAIL", "STEWART COUNTY JAIL"))
	assert.Less(t, PartialRatio("STEWART CO JAIL", "STEWART COUNTY JAIL"), DefaultFuzzyThreshold)
}

func TestFindFuzzy_AbbreviatedName(t *testing.T) {
	c := New()
	require.NoError(t, c.Insert("k1", facility("Stewart County Jail", "1 Court Sq", "Dover", "TN", "37058")))

	key, score, ok := c.FindFuzzy("Stewart Co Jail", "TN", "Dover", DefaultFuzzyThreshold)
	require.True(t, ok)
	assert.Equal(t, "k1", key)
	assert.Equal(t, 100, score)
}

func TestFindFuzzy_RequiresSameRegionAndLocality(t *testing.T) {
	c := New()
	require.NoError(t, c.Insert("ny", facility("Orange County Jail", "110 Wells Farm Rd", "Goshen", "NY", "10924")))

	_, _, ok := c.FindFuzzy("Orange County Jail", "FL", "Orlando", DefaultFuzzyThreshold)
	assert.False(t, ok)

	key, _, ok := c.FindFuzzy("ORANGE COUNTY JAIL", "ny", "GOSHEN", DefaultFuzzyThreshold)
	assert.True(t, ok)
	assert.Equal(t, "ny", key)
}

func TestFindFuzzy_LocalitySpellingVariant(t *testing.T) {
	c := New()
	require.NoError(t, c.Insert("k", facility("Oldham County Jail", "3405 W HWY 146", "La Grange", "KY", "40031")))

	key, _, ok := c.FindFuzzy("Oldham Co Jail", "KY", "LaGrange", DefaultFuzzyThreshold)
	require.True(t, ok)
	assert.Equal(t, "k", key)

	_, _, ok = c.FindFuzzy("Oldham County Jail", "KY", "Louisville", DefaultFuzzyThreshold)
	assert.False(t, ok)
}

func TestSameLocality(t *testing.T) {
	assert.True(t, sameLocality("LaGrange", "La Grange"))
	assert.True(t, sameLocality("Ste. Genevieve", "STE GENEVIEVE"))
	assert.True(t, sameLocality("", ""))
	assert.False(t, sameLocality("Dover", ""))
	assert.False(t, sameLocality("Goshen", "Orlando"))
}

func TestRatio_CountsRunes(t *testing.T) {
	assert.Equal(t, 100, Ratio("Peñasco", "Peñasco"))
	assert.Equal(t, 86, Ratio("Peñasco", "Penasco"))
}

func TestFindFuzzy_FirstInInsertionOrder(t *testing.T) {
	c := New()
	require.NoError(t, c.Insert("first", facility("Krome Processing Center", "18201 SW 12th St", "Miami", "FL", "33194")))
	require.NoError(t, c.Insert("second", facility("Krome Service Processing Center", "18201 SW 12TH ST", "Miami", "FL", "33194")))

	key, _, ok := c.FindFuzzy("Krome Processing Center", "FL", "Miami", DefaultFuzzyThreshold)
	require.True(t, ok)
	assert.Equal(t, "first", key)
}

func TestFindFuzzy_MatchesAlternateNames(t *testing.T) {
	c := New()
	f := facility("IAH SECURE ADULT DET. FACILITY", "3400 FM 350 South", "Livingston", "TX", "77351")
	f.OtherNames = []string{"IAH Polk Adult Detention Facility"}
	require.NoError(t, c.Insert("k", f))

	key, _, ok := c.FindFuzzy("IAH Polk Adult Detention Facility", "TX", "Livingston", DefaultFuzzyThreshold)
	require.True(t, ok)
	assert.Equal(t, "k", key)
}

func TestFindFuzzy_BelowThreshold(t *testing.T) {
	c := New()
	require.NoError(t, c.Insert("k", facility("Stewart County Jail", "1 Court Sq", "Dover", "TN", "37058")))

	_, _, ok := c.FindFuzzy("Montgomery Processing Center", "TN", "Dover", DefaultFuzzyThreshold)
	assert.False(t, ok)

	_, _, ok = c.FindFuzzy("", "TN", "Dover", DefaultFuzzyThreshold)
	assert.False(t, ok)
}
