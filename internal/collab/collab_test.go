package collab

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resumeflow/internal/config"
	"resumeflow/internal/errors"
	"resumeflow/internal/types"
)

func collabConfig(url string) config.CollabConfig {
	return config.CollabConfig{
		ParserURL:    url,
		GeneratorURL: url,
		Timeout:      5 * time.Second,
	}
}

func TestParserClientParse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/parse" {
			t.Errorf("Expected path /parse, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("Expected multipart file field: %v", err)
		}
		defer file.Close()

		content, _ := io.ReadAll(file)
		if string(content) != "raw resume bytes" {
			t.Errorf("Unexpected upload content: %q", content)
		}
		if header.Filename != "resume.pdf" {
			t.Errorf("Expected filename resume.pdf, got %s", header.Filename)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(types.ParseOutput{
			Filename: "resume.pdf",
			Text:     "Jane Doe\nSoftware Engineer",
			Email:    "jane@example.com",
		}); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewParserClient(collabConfig(server.URL), nil)

	output, err := client.Parse(context.Background(), "resume.pdf", strings.NewReader("raw resume bytes"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if output.Text != "Jane Doe\nSoftware Engineer" {
		t.Errorf("Unexpected parsed text: %q", output.Text)
	}
	if output.Email != "jane@example.com" {
		t.Errorf("Unexpected email: %q", output.Email)
	}
}

func TestParserClientFillsMissingFilename(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"some text"}`))
	}))
	defer server.Close()

	client := NewParserClient(collabConfig(server.URL), nil)

	output, err := client.Parse(context.Background(), "cv.docx", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if output.Filename != "cv.docx" {
		t.Errorf("Expected client-side filename fallback, got %q", output.Filename)
	}
}

func TestParserClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported file type", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewParserClient(collabConfig(server.URL), nil)

	_, err := client.Parse(context.Background(), "resume.xyz", strings.NewReader("x"))
	if err == nil {
		t.Fatal("Expected error for non-200 response")
	}
	if !errors.IsCollaborator(err) {
		t.Errorf("Expected collaborator error, got %v", err)
	}
	if !strings.Contains(err.Error(), "422") {
		t.Errorf("Expected status code in error, got %v", err)
	}
}

func TestParserClientUnreachable(t *testing.T) {
	client := NewParserClient(collabConfig("http://127.0.0.1:1"), nil)

	_, err := client.Parse(context.Background(), "resume.pdf", strings.NewReader("x"))
	if err == nil {
		t.Fatal("Expected error for unreachable parser")
	}

	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Type != errors.ErrorTypeNetwork {
		t.Errorf("Expected network error, got %v", err)
	}
}

func TestGeneratorClientGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate" {
			t.Errorf("Expected path /generate, got %s", r.URL.Path)
		}

		var input types.GenerateInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if input.Format != types.FormatPDF {
			t.Errorf("Expected format pdf, got %s", input.Format)
		}
		if input.Template != "classic" {
			t.Errorf("Expected template classic, got %s", input.Template)
		}
		if input.Data.Name != "Jane Doe" {
			t.Errorf("Expected structured data in request, got %+v", input.Data)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(types.GenerateOutput{
			Filename: "jane-doe-resume.pdf",
			URL:      "/downloads/jane-doe-resume.pdf",
		}); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewGeneratorClient(collabConfig(server.URL), nil)

	output, err := client.Generate(context.Background(), types.GenerateInput{
		Data:     types.StructuredResume{Name: "Jane Doe"},
		Format:   types.FormatPDF,
		Template: "classic",
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if output.Filename != "jane-doe-resume.pdf" {
		t.Errorf("Unexpected filename: %q", output.Filename)
	}
	if output.URL == "" {
		t.Error("Expected artifact URL")
	}
}

func TestGeneratorClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "template render failed", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewGeneratorClient(collabConfig(server.URL), nil)

	_, err := client.Generate(context.Background(), types.GenerateInput{
		Data:     types.StructuredResume{Name: "Jane Doe"},
		Format:   types.FormatDOCX,
		Template: "modern",
	})
	if err == nil {
		t.Fatal("Expected error for non-200 response")
	}
	if !errors.IsCollaborator(err) {
		t.Errorf("Expected collaborator error, got %v", err)
	}
}
