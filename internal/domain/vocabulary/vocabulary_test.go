package vocabulary

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestDefault_Loads(t *testing.T) {
	v := Default()
	for _, name := range TaxonomyOrder {
		if len(v.Taxonomy(name)) == 0 {
			t.Errorf("taxonomy %q is empty", name)
		}
	}
	if Default() != v {
		t.Error("Default() returned a different instance")
	}
}

func TestDefault_TaxonomyKeywordsAreLong(t *testing.T) {
	v := Default()
	for _, name := range TaxonomyOrder {
		for _, kw := range v.Taxonomy(name) {
			if len(kw) <= 3 && kw != "bbq" {
				t.Errorf("%s keyword %q is too short", name, kw)
			}
			if kw != strings.ToLower(kw) {
				t.Errorf("%s keyword %q is not lower case", name, kw)
			}
		}
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	v := Default()
	cats := v.Taxonomy(Categories)
	cats[0] = "mutated"
	if v.Taxonomy(Categories)[0] == "mutated" {
		t.Error("Taxonomy() exposes internal slice")
	}

	chips := v.Chips()
	chips.Generic[0] = "mutated"
	if v.Chips().Generic[0] == "mutated" {
		t.Error("Chips() exposes internal slice")
	}
}

func TestStopwords(t *testing.T) {
	v := Default()
	for _, w := range []string{"sale", "NEW", "all", "best", "top", "food"} {
		if !v.IsStopword(w) {
			t.Errorf("IsStopword(%q) = false", w)
		}
	}
	if v.IsStopword("SKU123") {
		t.Error("IsStopword(SKU123) = true")
	}
}

func TestOccasionFoods(t *testing.T) {
	c, ok := Default().Concept("thanksgiving")
	if !ok {
		t.Fatal("thanksgiving not found")
	}
	foods := c.Foods()
	for _, want := range []string{"turkey", "stuffing", "cranberry sauce"} {
		if !slices.Contains(foods, want) {
			t.Errorf("Foods() missing %q: %v", want, foods)
		}
	}
	if c.Phrases()[0] != "thanksgiving" {
		t.Errorf("Phrases()[0] = %q", c.Phrases()[0])
	}
}

func TestAlternativesFor(t *testing.T) {
	v := Default()
	got := v.AlternativesFor("vegan", "thanksgiving")
	want := []string{"tofurky", "plant-based roast", "gardein turkey", "vegan stuffing", "mushroom gravy"}
	if !slices.Equal(got, want) {
		t.Errorf("AlternativesFor() = %v, want %v", got, want)
	}
	if got := v.AlternativesFor("keto", "diwali"); len(got) != 0 {
		t.Errorf("unmapped pair returned %v", got)
	}
}

func TestGenericAlternatives(t *testing.T) {
	v := Default()
	if got := v.GenericAlternatives("vegan"); !slices.Equal(got, []string{"plant-based", "meat alternative"}) {
		t.Errorf("GenericAlternatives(vegan) = %v", got)
	}
	if got := v.GenericAlternatives("kosher"); got != nil {
		t.Errorf("GenericAlternatives(kosher) = %v, want nil", got)
	}
}

func TestIsAlternativeBrand(t *testing.T) {
	v := Default()
	tests := []struct {
		brand string
		want  bool
	}{
		{"Tofurky", true},
		{"Beyond Meat", true},
		{"Field Roast", true},
		{"  Gardein ", true},
		{"Butterball", false},
		{"Beyondly", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := v.IsAlternativeBrand(tt.brand); got != tt.want {
			t.Errorf("IsAlternativeBrand(%q) = %v, want %v", tt.brand, got, tt.want)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "taxonomies: [unterminated"},
		{"missing taxonomy", "taxonomies:\n  categories: [cheese]\n"},
		{"dietary without tag", "taxonomies:\n  categories: [cheese]\n  attributes: [vegan]\n  intents: [picnic]\n  descriptors: [ideas]\ndietary:\n  - synonyms: [x]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	data := "taxonomies:\n  categories: [Cheese]\n  attributes: [vegan]\n  intents: [picnic]\n  descriptors: [ideas]\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	v, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := v.Taxonomy(Categories); !slices.Equal(got, []string{"cheese"}) {
		t.Errorf("Taxonomy(categories) = %v", got)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
