package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"resumeflow/internal/config"
	"resumeflow/internal/errors"
	"resumeflow/internal/types"
)

// GeneratorClient talks to the document generation collaborator, which
// renders a structured resume into a downloadable PDF or DOCX artifact.
type GeneratorClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *errors.Logger
}

// NewGeneratorClient creates a generator client from collaborator configuration
func NewGeneratorClient(cfg config.CollabConfig, logger *errors.Logger) *GeneratorClient {
	return &GeneratorClient{
		baseURL: strings.TrimRight(cfg.GeneratorURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// Generate renders the structured resume and returns where the artifact can
// be fetched. Format and template are validated by the workflow before the
// call; the generator is still free to reject them.
func (c *GeneratorClient) Generate(ctx context.Context, input types.GenerateInput) (*types.GenerateOutput, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, errors.NewInternalError("REQUEST_BUILD_FAILED",
			"Failed to encode generator request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NewInternalError("REQUEST_BUILD_FAILED",
			"Failed to build generator request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeNetworkTimeout,
			"Generator collaborator unreachable", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && c.logger != nil {
			c.logger.Warn("Failed to close generator response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, collaboratorHTTPError("generator", resp)
	}

	var output types.GenerateOutput
	if err := json.NewDecoder(resp.Body).Decode(&output); err != nil {
		return nil, errors.NewCollaboratorError(errors.ErrCodeCollaboratorFailed,
			"Failed to decode generator response", err)
	}

	if c.logger != nil {
		c.logger.Debug("Document generated",
			"filename", output.Filename,
			"format", input.Format,
			"template", input.Template)
	}

	return &output, nil
}
