// Package analysis talks to the remote forensic analysis service and turns
// its response into tagged per-layer outcomes.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/media-verifier/backend/internal/models"
)

// Analyzer submits one file for analysis. Implemented by Client; tests
// substitute fakes.
type Analyzer interface {
	Analyze(ctx context.Context, filename string, r io.Reader) (*models.AnalysisResult, error)
}

// Client posts files to the analysis endpoint as multipart form data.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for the given endpoint URL.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewClientWithHTTP creates a client with a caller-supplied *http.Client.
func NewClientWithHTTP(endpoint string, httpClient *http.Client) *Client {
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

// Analyze uploads the file under the form field "file" and decodes the JSON
// response. An application-level failure (success=false) is NOT an error
// here; the caller inspects the returned payload. Errors mean the request
// could not be made or the response could not be parsed.
func (c *Client) Analyze(ctx context.Context, filename string, r io.Reader) (*models.AnalysisResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting to analysis endpoint: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("reading analysis response: %w", err)
	}

	result := &models.AnalysisResult{}
	if err := json.Unmarshal(data, result); err != nil {
		// The service answers JSON even for rejected files; anything
		// else is a transport-level failure.
		return nil, fmt.Errorf("malformed analysis response (status %d): %w", resp.StatusCode, err)
	}

	return result, nil
}
