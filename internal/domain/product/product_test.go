package product

import "testing"

func TestCategoryPath(t *testing.T) {
	p := Product{Categories: [4]string{"Food", "", "Bakery", ""}}
	got := p.CategoryPath()
	if len(got) != 2 || got[0] != "Food" || got[1] != "Bakery" {
		t.Errorf("CategoryPath() = %v", got)
	}
}

func TestSearchText(t *testing.T) {
	p := Product{Name: "Vegan Roast", Description: "Plant-Based", Brand: "Tofurky"}
	if got := p.SearchText(); got != "vegan roast plant-based tofurky" {
		t.Errorf("SearchText() = %q", got)
	}
}
