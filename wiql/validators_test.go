package wiql

import (
	"strings"
	"testing"
)

func TestValidateState(t *testing.T) {
	tests := []struct {
		name    string
		state   string
		want    string
		wantErr bool
	}{
		{name: "canonical", state: "Active", want: "Active"},
		{name: "lowercase normalized", state: "active", want: "Active"},
		{name: "mixed case normalized", state: "iN pRoGrEsS", want: "In Progress"},
		{name: "injection attempt", state: "Active' OR '1'='1", wantErr: true},
		{name: "unknown state", state: "Banana", wantErr: true},
		{name: "empty", state: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateState(tt.state)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ValidateState(%q) = %q, want error", tt.state, got)
				}
				if !IsValidationError(err) {
					t.Errorf("error type = %T, want *ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateState(%q) error = %v", tt.state, err)
			}
			if got != tt.want {
				t.Errorf("ValidateState(%q) = %q, want %q", tt.state, got, tt.want)
			}
		})
	}
}

func TestValidateState_ErrorEnumeratesAllowed(t *testing.T) {
	_, err := ValidateState("Bogus")
	if err == nil {
		t.Fatal("want error for unknown state")
	}
	for _, state := range []string{"Active", "Closed", "New"} {
		if !strings.Contains(err.Error(), state) {
			t.Errorf("error should list allowed state %q: %v", state, err)
		}
	}
}

func TestValidateWorkItemType(t *testing.T) {
	got, err := ValidateWorkItemType("user story")
	if err != nil {
		t.Fatalf("ValidateWorkItemType error = %v", err)
	}
	if got != "User Story" {
		t.Errorf("got %q, want User Story", got)
	}

	if _, err := ValidateWorkItemType("Saga"); err == nil {
		t.Error("unknown work item type should fail")
	}
	if _, err := ValidateWorkItemType(""); err == nil {
		t.Error("empty work item type should fail")
	}
}

func TestValidateFieldName(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		want    string
		wantErr bool
	}{
		{name: "canonical", field: "System.Title", want: "System.Title"},
		{name: "case normalized", field: "system.title", want: "System.Title"},
		{name: "patch path prefix stripped", field: "/fields/System.State", want: "System.State"},
		{name: "unknown field", field: "System.Nope", wantErr: true},
		{name: "injection attempt", field: "System.Id; DROP TABLE", wantErr: true},
		{name: "empty", field: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateFieldName(tt.field)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ValidateFieldName(%q) = %q, want error", tt.field, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateFieldName(%q) error = %v", tt.field, err)
			}
			if got != tt.want {
				t.Errorf("ValidateFieldName(%q) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestValidateFieldNames_FailsOnFirstBad(t *testing.T) {
	_, err := ValidateFieldNames([]string{"System.Id", "System.Evil", "System.Title"})
	if err == nil {
		t.Fatal("want error for list containing unknown field")
	}
}

func TestValidateLinkType(t *testing.T) {
	got, err := ValidateLinkType("system.linktypes.hierarchy-forward")
	if err != nil {
		t.Fatalf("ValidateLinkType error = %v", err)
	}
	if got != "System.LinkTypes.Hierarchy-Forward" {
		t.Errorf("got %q, want canonical spelling", got)
	}

	if _, err := ValidateLinkType("System.LinkTypes.Teleport"); err == nil {
		t.Error("unknown link type should fail")
	}
}

func TestValidatePriority(t *testing.T) {
	for p := 1; p <= 4; p++ {
		if err := ValidatePriority(p); err != nil {
			t.Errorf("ValidatePriority(%d) error = %v", p, err)
		}
	}
	for _, p := range []int{0, 5, -1, 100} {
		if err := ValidatePriority(p); err == nil {
			t.Errorf("ValidatePriority(%d) should fail", p)
		}
	}
}

func TestValidateSeverity(t *testing.T) {
	if err := ValidateSeverity(1); err != nil {
		t.Errorf("ValidateSeverity(1) error = %v", err)
	}
	if err := ValidateSeverity(5); err == nil {
		t.Error("ValidateSeverity(5) should fail")
	}
}

func TestValidateWorkItemID(t *testing.T) {
	if err := ValidateWorkItemID(42); err != nil {
		t.Errorf("ValidateWorkItemID(42) error = %v", err)
	}
	for _, id := range []int{0, -7} {
		if err := ValidateWorkItemID(id); err == nil {
			t.Errorf("ValidateWorkItemID(%d) should fail", id)
		}
	}
}
