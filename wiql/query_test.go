package wiql

import (
	"strings"
	"testing"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr string
	}{
		{
			name:  "flat query",
			query: "SELECT [System.Id] FROM WorkItems WHERE [System.State] = 'Active'",
		},
		{
			name:  "link query",
			query: "SELECT [System.Id] FROM WorkItemLinks WHERE [System.Links.LinkType] = 'System.LinkTypes.Hierarchy-Forward'",
		},
		{
			name:  "lowercase keywords",
			query: "select [System.Id] from workitems",
		},
		{
			name:    "empty",
			query:   "",
			wantErr: "cannot be empty",
		},
		{
			name:    "missing select",
			query:   "FROM WorkItems WHERE [System.Id] = 1",
			wantErr: "SELECT",
		},
		{
			name:    "missing from",
			query:   "SELECT [System.Id] WHERE WorkItems",
			wantErr: "FROM",
		},
		{
			name:    "bad target",
			query:   "SELECT [System.Id] FROM Users",
			wantErr: "WorkItems or WorkItemLinks",
		},
		{
			name:    "unbalanced open bracket",
			query:   "SELECT [System.Id FROM WorkItems",
			wantErr: "unbalanced",
		},
		{
			name:    "close before open",
			query:   "SELECT System.Id] [ FROM WorkItems",
			wantErr: "unbalanced",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ValidateQuery(tt.query)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("ValidateQuery(%q) should fail", tt.query)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateQuery error = %v", err)
			}
			if q.String() != tt.query {
				t.Errorf("validated query text changed: %q", q.String())
			}
		})
	}
}

func TestValidateQuery_LengthCeiling(t *testing.T) {
	long := "SELECT [System.Id] FROM WorkItems WHERE [System.Title] = '" +
		strings.Repeat("x", MaxQueryLength) + "'"
	if _, err := ValidateQuery(long); err == nil {
		t.Error("query over the length ceiling should fail")
	}
}

func TestSanitizeLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain text", want: "plain text"},
		{in: "O'Brien", want: "O''Brien"},
		{in: "'; DROP TABLE WorkItems; --", want: "''; DROP TABLE WorkItems; --"},
		{in: "''", want: "''''"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		if got := SanitizeLiteral(tt.in); got != tt.want {
			t.Errorf("SanitizeLiteral(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateIterationPath(t *testing.T) {
	got, err := ValidateIterationPath("Sprint 12", "Alpha")
	if err != nil {
		t.Fatalf("ValidateIterationPath error = %v", err)
	}
	if got != `Alpha\Sprint 12` {
		t.Errorf("got %q, want project-prefixed path", got)
	}

	got, err = ValidateIterationPath(`Alpha\Sprint 12`, "Alpha")
	if err != nil {
		t.Fatalf("ValidateIterationPath error = %v", err)
	}
	if got != `Alpha\Sprint 12` {
		t.Errorf("already qualified path changed: %q", got)
	}

	if _, err := ValidateIterationPath(`..\..\secrets`, "Alpha"); err == nil {
		t.Error("path traversal should fail")
	}
	if _, err := ValidateIterationPath("a//b", "Alpha"); err == nil {
		t.Error("double slash should fail")
	}
	if _, err := ValidateIterationPath("", "Alpha"); err == nil {
		t.Error("empty path should fail")
	}
	if _, err := ValidateIterationPath("Sprint 12", ""); err == nil {
		t.Error("empty project should fail")
	}
}
