package core

import (
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare_object",
			input: `{"winner": "inst-1"}`,
			want:  `{"winner": "inst-1"}`,
		},
		{
			name:  "fenced_block",
			input: "Here is my verdict:\n```json\n{\"winner\": \"inst-2\"}\n```\nDone.",
			want:  `{"winner": "inst-2"}`,
		},
		{
			name:  "fenced_block_no_language",
			input: "```\n[1, 2, 3]\n```",
			want:  `[1, 2, 3]`,
		},
		{
			name:  "embedded_in_prose",
			input: `After careful thought, I assign {"member-1": "Analyst", "member-2": "Skeptic"} as requested.`,
			want:  `{"member-1": "Analyst", "member-2": "Skeptic"}`,
		},
		{
			name:  "array_in_prose",
			input: `The subtasks are: [{"description": "research"}] and nothing else.`,
			want:  `[{"description": "research"}]`,
		},
		{
			name:  "braces_inside_strings",
			input: `{"note": "a } inside", "ok": true}`,
			want:  `{"note": "a } inside", "ok": true}`,
		},
		{
			name:    "no_json",
			input:   "I cannot answer in the requested format.",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "   ",
			wantErr: true,
		},
		{
			name:    "unbalanced",
			input:   `{"broken": `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExtractJSONInto(t *testing.T) {
	var roles map[string]string
	err := ExtractJSONInto("Assignments:\n```json\n{\"m1\": \"Analyst\"}\n```", &roles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if roles["m1"] != "Analyst" {
		t.Errorf("roles = %v", roles)
	}

	// Valid JSON of the wrong shape must surface an unmarshal error.
	var list []string
	if err := ExtractJSONInto(`{"not": "a list"}`, &list); err == nil {
		t.Error("expected unmarshal error for mismatched shape")
	}
}

func TestShortModelName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"claude/sonnet", "sonnet"},
		{"sonnet", "sonnet"},
		{"a/b/c", "c"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ShortModelName(tt.in); got != tt.want {
			t.Errorf("ShortModelName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInstanceDisplayName(t *testing.T) {
	inst := Instance{ID: "i1", Model: "claude/sonnet"}
	if got := inst.DisplayName(); got != "sonnet" {
		t.Errorf("DisplayName = %q, want sonnet", got)
	}
	inst.Label = "The Architect"
	if got := inst.DisplayName(); got != "The Architect" {
		t.Errorf("DisplayName = %q, want label", got)
	}
}

func TestUsageAdd(t *testing.T) {
	total := Usage{}
	total = total.Add(&Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15, Cost: 0.01})
	total = total.Add(nil)
	total = total.Add(&Usage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3, Cost: 0.002})

	if total.InputTokens != 11 || total.OutputTokens != 7 || total.TotalTokens != 18 {
		t.Errorf("unexpected totals: %+v", total)
	}
	if total.Cost < 0.0119 || total.Cost > 0.0121 {
		t.Errorf("cost = %v, want ~0.012", total.Cost)
	}
}
