package errors

import (
	"testing"
)

func TestValidateExportName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "shot010", false},
		{"valid with spaces", "Scene 1 Cut 3", false},
		{"valid unicode", "カット01", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", string(make([]byte, 300)), true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"dot dot", "..", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExportName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateExportName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidName) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidName)
			}
		})
	}
}

func TestValidateAffix(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"", false},
		{"_", false},
		{"v2", false},
		{"a/b", true},
		{"x:y", true},
		{"*", true},
		{"\t", true},
	}
	for _, tt := range tests {
		if err := ValidateAffix("prefix", tt.input); (err != nil) != tt.wantErr {
			t.Errorf("ValidateAffix(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateExportDir(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "out", false},
		{"absolute", "/tmp/export", false},
		{"empty", "", true},
		{"root", "/", true},
		{"null byte", "out\x00dir", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExportDir(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateExportDir(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidExportDirectory) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidExportDirectory)
			}
		})
	}
}
