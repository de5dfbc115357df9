// Package collab holds HTTP clients for the external document collaborators:
// the resume parser and the document generator.
package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"resumeflow/internal/config"
	"resumeflow/internal/errors"
	"resumeflow/internal/types"
)

// ParserClient talks to the document parsing collaborator, which extracts
// plain text (and best-effort contact details) from an uploaded resume file.
type ParserClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *errors.Logger
}

// NewParserClient creates a parser client from collaborator configuration
func NewParserClient(cfg config.CollabConfig, logger *errors.Logger) *ParserClient {
	return &ParserClient{
		baseURL: strings.TrimRight(cfg.ParserURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// Parse uploads a resume document and returns the extracted content. The
// returned text is carried verbatim into the canonical record; the parser is
// the only component allowed to interpret binary documents.
func (c *ParserClient) Parse(ctx context.Context, filename string, file io.Reader) (*types.ParseOutput, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, errors.NewInternalError("MULTIPART_ENCODE_FAILED",
			"Failed to build parser upload request", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			"Failed to read upload content", err)
	}
	if err := writer.Close(); err != nil {
		return nil, errors.NewInternalError("MULTIPART_ENCODE_FAILED",
			"Failed to finalize parser upload request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/parse", &body)
	if err != nil {
		return nil, errors.NewInternalError("REQUEST_BUILD_FAILED",
			"Failed to build parser request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeNetworkTimeout,
			"Parser collaborator unreachable", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && c.logger != nil {
			c.logger.Warn("Failed to close parser response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, collaboratorHTTPError("parser", resp)
	}

	var output types.ParseOutput
	if err := json.NewDecoder(resp.Body).Decode(&output); err != nil {
		return nil, errors.NewCollaboratorError(errors.ErrCodeCollaboratorFailed,
			"Failed to decode parser response", err)
	}

	if output.Filename == "" {
		output.Filename = filename
	}

	if c.logger != nil {
		c.logger.Debug("Document parsed",
			"filename", output.Filename,
			"text_length", len(output.Text))
	}

	return &output, nil
}

// collaboratorHTTPError converts a non-200 collaborator response into an
// AppError, keeping a bounded excerpt of the body for diagnosis.
func collaboratorHTTPError(name string, resp *http.Response) *errors.AppError {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return errors.NewCollaboratorError(errors.ErrCodeCollaboratorFailed,
		fmt.Sprintf("%s collaborator returned status %d", name, resp.StatusCode),
		fmt.Errorf("%s", strings.TrimSpace(string(excerpt)))).
		WithContext("status", resp.StatusCode)
}
