package errors

import (
	"strings"
	"testing"
)

func TestValidateProjectName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "code_visualiser", false},
		{"valid with dash", "my-project", false},
		{"empty", "", true},
		{"path traversal", "../etc/passwd", true},
		{"double slash", "a//b", true},
		{"backslash", "a\\b", true},
		{"control char", "name\x01", true},
		{"too long", strings.Repeat("a", 257), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProjectName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProjectName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "src/main.py", false},
		{"valid nested", "frontend/static/app.js", false},
		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "src/../../etc", true},
		{"backslash", "src\\main.py", true},
		{"too long", strings.Repeat("a/", 251), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFileID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"f3b1c9d0-1111-2222-3333-444455556666", false},
		{"42", false},
		{"", true},
		{"id with spaces", true},
		{"a/b", true},
		{strings.Repeat("a", 65), true},
	}

	for _, tt := range tests {
		err := ValidateFileID(tt.id)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFileID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
		}
	}
}

func TestValidateWorkflowName(t *testing.T) {
	if err := ValidateWorkflowName("GET /api/projects"); err != nil {
		t.Errorf("valid workflow name should pass: %v", err)
	}
	if err := ValidateWorkflowName(""); err == nil {
		t.Error("empty workflow name should fail")
	}
	if err := ValidateWorkflowName("GET\x00/api"); err == nil {
		t.Error("control characters should fail")
	}
}
