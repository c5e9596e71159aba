package diag

import "testing"

func problemWithSymptoms(name string, symptoms ...string) Problem {
	return Problem{
		ID:       "p-" + name,
		Name:     name,
		Category: CategoryEngine,
		Severity: SeverityMedium,
		Symptoms: symptoms,
		Active:   true,
	}
}

func TestScore_SymptomOverlap(t *testing.T) {
	tests := []struct {
		name     string
		reported []string
		problem  Problem
		want     int
	}{
		{
			name:     "all keywords match, no text bonus",
			reported: []string{"motor", "ruido"},
			problem:  problemWithSymptoms("Alpha", "motor", "ruido"),
			want:     70,
		},
		{
			name:     "half the reported symptoms match",
			reported: []string{"motor", "freio"},
			problem:  problemWithSymptoms("Alpha", "motor"),
			want:     35,
		},
		{
			name:     "two of three match, sum rounded once",
			reported: []string{"motor", "ruido", "freio"},
			problem:  problemWithSymptoms("Barulho", "motor", "ruido"),
			want:     47, // 2/3*70 = 46.67, text 0, round(46.67)
		},
		{
			name:     "keyword overlap plus full text match caps the split",
			reported: []string{"motor", "ruido"},
			problem:  problemWithSymptoms("Ruido do motor", "motor", "ruido"),
			want:     100, // 70 + 30
		},
		{
			name:     "partial overlap with text bonus",
			reported: []string{"motor", "ruido"},
			problem:  problemWithSymptoms("Ruido do motor", "motor"),
			want:     65, // 35 + 100*0.30
		},
		{
			name:     "nothing matches",
			reported: []string{"pneu careca"},
			problem:  problemWithSymptoms("Superaquecimento", "temperatura alta"),
			want:     0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.reported, tt.problem)
			if got != tt.want {
				t.Errorf("Score(%v, %q) = %d, want %d", tt.reported, tt.problem.Name, got, tt.want)
			}
		})
	}
}

func TestScore_CaseAndAccentInsensitive(t *testing.T) {
	p := problemWithSymptoms("Alpha", "motor")
	base := Score([]string{"motor"}, p)
	for _, variant := range []string{"MOTOR", "Motor", "mótor", "MÓTOR"} {
		if got := Score([]string{variant}, p); got != base {
			t.Errorf("Score([%q]) = %d, want %d (same as plain form)", variant, got, base)
		}
	}
	if base == 0 {
		t.Fatal("base score = 0, want a match")
	}
}

func TestScore_SubstringContainment(t *testing.T) {
	p := problemWithSymptoms("Brake wear", "freio")

	// Reported phrase contains the cataloged keyword.
	if got := Score([]string{"barulho no freio ao frear"}, p); got < 70 {
		t.Errorf("Score(phrase containing keyword) = %d, want >= 70", got)
	}

	// Cataloged keyword contains the reported phrase.
	long := problemWithSymptoms("Brake wear", "barulho no freio")
	if got := Score([]string{"freio"}, long); got < 70 {
		t.Errorf("Score(keyword containing phrase) = %d, want >= 70", got)
	}
}

func TestScore_MonotonicCoverage(t *testing.T) {
	p := problemWithSymptoms("Alpha", "motor", "ruido")
	one := Score([]string{"motor"}, p)
	two := Score([]string{"motor", "ruido"}, p)
	if one > two {
		t.Errorf("Score with 1 matched symptom = %d > %d with 2 matched", one, two)
	}
}

func TestScore_EmptySymptomSetUsesTextOnly(t *testing.T) {
	p := Problem{
		ID:          "p1",
		Name:        "Vazamento de oleo",
		Description: "Oleo pingando embaixo do carro",
		Category:    CategoryEngine,
		Severity:    SeverityHigh,
		Active:      true,
	}

	tests := []struct {
		reported []string
		want     int
	}{
		{[]string{"vazamento"}, 100},
		{[]string{"vazamento", "barulho"}, 50},
		{[]string{"de"}, 0},      // short words never match
		{[]string{"barulho"}, 0}, // absent from name and description
	}
	for _, tt := range tests {
		got := Score(tt.reported, p)
		if got != tt.want {
			t.Errorf("Score(%v, keywordless) = %d, want %d", tt.reported, got, tt.want)
		}
	}
}

func TestScore_Bounds(t *testing.T) {
	problems := []Problem{
		problemWithSymptoms("Ruido do motor", "motor", "ruido", "barulho"),
		problemWithSymptoms("Alpha"),
		{ID: "x", Name: "Motor", Description: "motor motor motor"},
	}
	inputs := [][]string{
		{"motor"},
		{"motor", "ruido", "barulho", "motor"},
		{"zzz"},
		{""},
	}
	for _, p := range problems {
		for _, in := range inputs {
			got := Score(in, p)
			if got < 0 || got > 100 {
				t.Errorf("Score(%v, %q) = %d, out of [0,100]", in, p.Name, got)
			}
		}
	}
}

func TestScore_EmptyReportedList(t *testing.T) {
	p := problemWithSymptoms("Alpha", "motor")
	if got := Score(nil, p); got != 0 {
		t.Errorf("Score(nil) = %d, want 0", got)
	}
}

func TestTextMatch(t *testing.T) {
	tests := []struct {
		name     string
		reported []string
		texts    []string
		want     int
	}{
		{"word present in name", []string{"motor falhando"}, []string{"Falha no motor", ""}, 100},
		{"accented report matches plain text", []string{"ruído"}, []string{"Ruido anormal", ""}, 100},
		{"short words ignored", []string{"no ar"}, []string{"Ar condicionado no teto", ""}, 0},
		{"one of two symptoms found", []string{"motor", "pneu"}, []string{"Falha no motor", ""}, 50},
		{"empty input", nil, []string{"Falha no motor"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := textMatch(tt.reported, tt.texts...)
			if got != tt.want {
				t.Errorf("textMatch(%v, %v) = %d, want %d", tt.reported, tt.texts, got, tt.want)
			}
		})
	}
}
