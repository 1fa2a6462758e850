package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngredientSet(t *testing.T) {
	s := NewIngredientSet()

	assert.False(t, s.Add(""))
	assert.False(t, s.Add("   "))
	assert.Equal(t, 0, s.Len())

	assert.True(t, s.Add("egg"))
	assert.False(t, s.Add("egg"))
	assert.Equal(t, 1, s.Len())

	assert.True(t, s.Add("  rice "))
	assert.False(t, s.Add("rice"))
	assert.True(t, s.Add("Egg"), "dedup is case-sensitive")
	assert.Equal(t, []string{"egg", "rice", "Egg"}, s.Items())

	assert.True(t, s.Remove("rice"))
	assert.False(t, s.Remove("rice"))
	assert.False(t, s.Remove("tofu"))
	assert.Equal(t, []string{"egg", "Egg"}, s.Items())

	items := s.Items()
	items[0] = "mutated"
	assert.Equal(t, "egg", s.Items()[0], "Items returns a copy")
}

func TestFilter(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Title: "Chicken Rice Bowl"},
		{ID: 2, Title: "Creamy Chicken and Rice"},
		{ID: 3, Title: "Garlic Shrimp Pasta"},
		{ID: 4, Title: "Roasted Eggplant"},
		{ID: 5, Title: "Green Salad"},
	}

	tests := []struct {
		name     string
		disliked []AllergenCategory
		want     []int
	}{
		{"no preferences keeps all", nil, []int{1, 2, 3, 4, 5}},
		{"dairy drops cream", []AllergenCategory{Dairy}, []int{1, 3, 4, 5}},
		{"shellfish and wheat", []AllergenCategory{Shellfish, Wheat}, []int{1, 2, 4, 5}},
		{"eggs over-matches eggplant", []AllergenCategory{Eggs}, []int{1, 2, 3, 5}},
		{"unknown category ignored", []AllergenCategory{"Gluten"}, []int{1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(candidates, tt.disliked)
			ids := make([]int, len(got))
			for i, c := range got {
				ids[i] = c.ID
			}
			assert.Equal(t, tt.want, ids)
			assert.LessOrEqual(t, len(got), len(candidates))
		})
	}
}

func TestFilter_Properties(t *testing.T) {
	candidates := []Candidate{
		{ID: 10, Title: "Peanut Noodles"},
		{ID: 11, Title: "TUNA melt"},
		{ID: 12, Title: "Veggie Stir Fry"},
		{ID: 13, Title: "Soy Glazed Salmon"},
	}
	byID := map[int]Candidate{}
	for _, c := range candidates {
		byID[c.ID] = c
	}

	for _, cat := range AllCategories {
		got := Filter(candidates, []AllergenCategory{cat})
		for _, c := range got {
			assert.Equal(t, byID[c.ID], c, "output elements are unmodified input elements")
			assert.False(t, MatchesDisliked(c.Title, []AllergenCategory{cat}))
		}
		for _, c := range candidates {
			if !MatchesDisliked(c.Title, []AllergenCategory{cat}) {
				assert.Contains(t, got, c)
			}
		}
	}
}

func TestKeywordsTable(t *testing.T) {
	require.Len(t, AllCategories, 7)
	for _, c := range AllCategories {
		kw := Keywords(c)
		assert.GreaterOrEqual(t, len(kw), 3, c)
		assert.LessOrEqual(t, len(kw), 5, c)
	}
	assert.Nil(t, Keywords("Gluten"))
	assert.Equal(t, []AllergenCategory{Dairy, Eggs}, ParseCategories([]string{"Dairy", "Gluten", "Eggs"}))
	assert.Error(t, ValidateCategories([]string{"Dairy", "gluten"}))
	assert.NoError(t, ValidateCategories([]string{"Dairy", "Nuts"}))
}

func TestFormatInstructions(t *testing.T) {
	got := FormatInstructions("Boil water.Add pasta.Serve hot.")
	assert.Equal(t, "• Boil water.\n\n• Add pasta.\n\n• Serve hot.", got)

	// 句點後有空白不斷行
	assert.Equal(t, "• Boil water. Add pasta.", FormatInstructions("Boil water. Add pasta."))

	// 既有換行也會斷開，空段落被丟棄
	assert.Equal(t, "• Step one\n\n• Step two", FormatInstructions("  Step one \n\n\n Step two\n"))

	// 小寫或數字不斷行
	assert.Equal(t, "• Heat to 3.5 units.then stir.", FormatInstructions("Heat to 3.5 units.then stir."))
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Boil water.Add pasta.", StripHTML("<ol><li>Boil water.</li><li>Add pasta.</li></ol>"))
	assert.Equal(t, "onetwo", StripHTML("one<br/>two"))
	assert.Equal(t, "plain", StripHTML("plain"))
}

func TestCleanIngredientLine(t *testing.T) {
	assert.Equal(t, "1 cup rice", CleanIngredientLine("- 1 cup rice"))
	assert.Equal(t, "2 eggs", CleanIngredientLine("•   2 eggs"))
	assert.Equal(t, "salt - to taste", CleanIngredientLine("salt - to taste"))
	assert.Equal(t, "- pepper", CleanIngredientLine("-- pepper"), "only one leading marker is removed")
}

func TestBuildDetail(t *testing.T) {
	d := BuildDetail(7, "Pasta", "img.jpg",
		strPtr("<ol><li>Boil water.</li><li>Add pasta.</li><li>Serve hot.</li></ol>"),
		[]string{"- 1 lb pasta", "• salt", "water"})

	assert.Equal(t, 7, d.ID)
	assert.Equal(t, "• Boil water.\n\n• Add pasta.\n\n• Serve hot.", d.Instructions)
	assert.Equal(t, []string{"1 lb pasta", "salt", "water"}, d.IngredientLines)
}

func TestBuildDetail_MissingInstructions(t *testing.T) {
	d := BuildDetail(1, "Toast", "", nil, nil)
	assert.Equal(t, "• No instructions available.", d.Instructions)
	assert.Empty(t, d.IngredientLines)

	d = BuildDetail(1, "Toast", "", strPtr(""), nil)
	assert.Equal(t, "• No instructions available.", d.Instructions)
}
