package persona

import (
	"testing"

	"github.com/halverson/concierge-bot/internal/models"
)

func TestNameForCategory(t *testing.T) {
	catalog := NewCatalog("gpt-4o")
	tests := []struct {
		category models.Category
		want     string
	}{
		{models.CategoryTravel, "TravelAssistant"},
		{models.CategorySchedule, "CalendarAssistant"},
		{models.CategoryFamily, "FamilyAssistant"},
		{models.CategoryTodo, "TodoAssistant"},
		{models.CategoryDocument, "DocumentAssistant"},
		{models.CategoryGeneral, "GeneralAssistant"},
		{models.Category("nonsense"), "GeneralAssistant"},
	}
	for _, tt := range tests {
		if got := catalog.NameForCategory(tt.category); got != tt.want {
			t.Errorf("NameForCategory(%q) = %q, want %q", tt.category, got, tt.want)
		}
	}
}

func TestNamesCoverEveryCategory(t *testing.T) {
	catalog := NewCatalog("gpt-4o")
	names := catalog.Names()
	if len(names) != 6 {
		t.Errorf("expected 6 personas, got %d: %v", len(names), names)
	}
}

func TestDescribeTravelAssistant(t *testing.T) {
	catalog := NewCatalog("gpt-4o")
	d := catalog.Describe("TravelAssistant")

	if d.Model != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %q", d.Model)
	}
	if len(d.Tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(d.Tools))
	}

	wantNames := map[string]bool{"search_flights": false, "search_hotels": false, "plan_trip": false}
	for _, tool := range d.Tools {
		if tool.Function == nil {
			t.Fatal("tool without function definition")
		}
		if _, known := wantNames[tool.Function.Name]; !known {
			t.Errorf("unexpected tool %q", tool.Function.Name)
			continue
		}
		wantNames[tool.Function.Name] = true
	}
	for name, seen := range wantNames {
		if !seen {
			t.Errorf("missing tool %q", name)
		}
	}
}

func TestDescribeDefaultPersona(t *testing.T) {
	catalog := NewCatalog("gpt-4o")
	d := catalog.Describe("TodoAssistant")

	if d.Instructions != "You are a TodoAssistant." {
		t.Errorf("unexpected instructions: %q", d.Instructions)
	}
	if len(d.Tools) != 0 {
		t.Errorf("expected no tools, got %d", len(d.Tools))
	}
}
