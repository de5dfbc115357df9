package common

import (
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		expectError      bool
	}{
		{"valid json", "json", supported, false},
		{"valid text", "text", supported, false},
		{"valid markdown", "markdown", supported, false},
		{"unsupported format", "xml", supported, true},
		{"case sensitive", "JSON", supported, true},
		{"empty format", "", supported, true},
		{"no restrictions allows anything", "xml", nil, false},
		{"single format valid", "json", []string{"json"}, false},
		{"single format invalid", "text", []string{"json"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)
			if tt.expectError && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestValidateOutputFormatErrorMessage(t *testing.T) {
	err := ValidateOutputFormat("yaml", []string{"json", "text"})
	if err == nil {
		t.Fatal("Expected error for unsupported format")
	}

	want := "unsupported output format 'yaml'. Supported formats: [json text]"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}
