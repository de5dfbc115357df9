package types

import "testing"

func TestDateStateMutualExclusion(t *testing.T) {
	tests := []struct {
		name           string
		setup          func(d *DateState)
		wantEnd        string
		wantIsCurrent  bool
		wantIsExpected bool
	}{
		{
			name: "set current clears end date and expected",
			setup: func(d *DateState) {
				d.SetEndDate("2023-05")
				d.SetExpected("2024-05")
				d.SetCurrent()
			},
			wantEnd:        "",
			wantIsCurrent:  true,
			wantIsExpected: false,
		},
		{
			name: "set expected clears current and keeps date",
			setup: func(d *DateState) {
				d.SetCurrent()
				d.SetExpected("2026-05")
			},
			wantEnd:        "2026-05",
			wantIsCurrent:  false,
			wantIsExpected: true,
		},
		{
			name: "set end date clears both flags",
			setup: func(d *DateState) {
				d.SetCurrent()
				d.SetEndDate("2022-12")
			},
			wantEnd:        "2022-12",
			wantIsCurrent:  false,
			wantIsExpected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d DateState
			tt.setup(&d)

			if d.EndDate != tt.wantEnd {
				t.Errorf("EndDate = %q, want %q", d.EndDate, tt.wantEnd)
			}
			if d.IsCurrent != tt.wantIsCurrent {
				t.Errorf("IsCurrent = %v, want %v", d.IsCurrent, tt.wantIsCurrent)
			}
			if d.IsExpected != tt.wantIsExpected {
				t.Errorf("IsExpected = %v, want %v", d.IsExpected, tt.wantIsExpected)
			}
		})
	}
}

func TestEnhancementKindValid(t *testing.T) {
	for _, k := range []EnhancementKind{EnhanceGrammar, EnhanceKeywords, EnhanceGeneral, EnhanceSummary, EnhanceBulletPoints} {
		if !k.Valid() {
			t.Errorf("kind %q should be valid", k)
		}
	}
	for _, k := range []EnhancementKind{"", "rewrite", "GRAMMAR"} {
		if k.Valid() {
			t.Errorf("kind %q should be invalid", k)
		}
	}
}

func TestSkillSetEmpty(t *testing.T) {
	if !(SkillSet{}).Empty() {
		t.Error("zero SkillSet should be empty")
	}
	if (SkillSet{Soft: []string{"Communication"}}).Empty() {
		t.Error("SkillSet with a soft skill should not be empty")
	}
}
