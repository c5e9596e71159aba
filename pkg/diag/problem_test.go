package diag

import "testing"

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, err := ParseCategory(string(c))
		if err != nil {
			t.Errorf("ParseCategory(%q): %v", c, err)
		}
		if got != c {
			t.Errorf("ParseCategory(%q) = %q", c, got)
		}
	}

	for _, bad := range []string{"", "engines", "ENGINE", "air-conditioning"} {
		if _, err := ParseCategory(bad); err == nil {
			t.Errorf("ParseCategory(%q): expected error", bad)
		}
	}
}

func TestSeverityRank(t *testing.T) {
	order := []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("Rank(%s) = %d not below Rank(%s) = %d",
				order[i-1], order[i-1].Rank(), order[i], order[i].Rank())
		}
	}
	if Severity("bogus").Rank() != 0 {
		t.Errorf("unknown severity rank = %d, want 0", Severity("bogus").Rank())
	}

	if _, err := ParseSeverity("critical"); err != nil {
		t.Errorf("ParseSeverity(critical): %v", err)
	}
	if _, err := ParseSeverity("urgent"); err == nil {
		t.Error("ParseSeverity(urgent): expected error")
	}
}

func TestSortCatalogOrder(t *testing.T) {
	problems := []Problem{
		{Name: "B", Severity: SeverityLow},
		{Name: "A", Severity: SeverityCritical},
		{Name: "C", Severity: SeverityCritical},
		{Name: "A", Severity: SeverityLow},
	}
	SortCatalogOrder(problems)

	want := []struct {
		name string
		sev  Severity
	}{
		{"A", SeverityCritical},
		{"C", SeverityCritical},
		{"A", SeverityLow},
		{"B", SeverityLow},
	}
	for i, w := range want {
		if problems[i].Name != w.name || problems[i].Severity != w.sev {
			t.Errorf("position %d = %s/%s, want %s/%s",
				i, problems[i].Name, problems[i].Severity, w.name, w.sev)
		}
	}
}
