// Package api implements the client for the LenderDesk document-storage API
// (the Remote Folder Service behind the document manager panel).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	nethttp "net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/lenderdesk/docnav/internal/config"
	"github.com/lenderdesk/docnav/internal/constants"
	"github.com/lenderdesk/docnav/internal/http"
	"github.com/lenderdesk/docnav/internal/models"
	"github.com/lenderdesk/docnav/internal/ratelimit"
)

// retryLogger implements the retryablehttp.LeveledLogger interface
type retryLogger struct{}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	log.Printf("[RETRY ERROR] %s %v", msg, keysAndValues)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// Only log errors and warnings, not all info
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	// Only log errors and warnings
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	log.Printf("[RETRY WARN] %s %v", msg, keysAndValues)
}

// apiMetrics tracks API usage statistics
type apiMetrics struct {
	sync.Mutex
	totalCalls    int64
	callsByPath   map[string]int64
	windowStart   time.Time
	callsInWindow int64
}

// Client is the document-storage API client.
type Client struct {
	httpClient *nethttp.Client
	config     *config.Config
	baseURL    string
	apiKey     string
	limiter    *ratelimit.RateLimiter // All document endpoints share one user scope
	metrics    *apiMetrics
}

// NewClient creates a new API client
func NewClient(cfg *config.Config) (*Client, error) {
	// Configure HTTP client with proxy support
	httpClient, err := http.ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	// Wrap with retry logic
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = constants.RetryMax
	retryClient.RetryWaitMin = constants.RetryWaitMin
	retryClient.RetryWaitMax = constants.RetryWaitMax
	retryClient.Logger = &retryLogger{}

	return &Client{
		httpClient: retryClient.StandardClient(),
		config:     cfg,
		baseURL:    strings.TrimSuffix(cfg.APIBaseURL, "/"),
		apiKey:     cfg.APIKey,
		limiter:    ratelimit.NewFolderServiceRateLimiter(),
		metrics: &apiMetrics{
			callsByPath: make(map[string]int64),
			windowStart: time.Now(),
		},
	}, nil
}

// GetConfig returns the configuration used by this API client
func (c *Client) GetConfig() *config.Config {
	return c.config
}

// doRequest performs an HTTP request with authentication and rate limiting.
// A positive contentLength is set on the request so streamed bodies go out
// with a Content-Length header instead of chunked transfer encoding.
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader, contentType string, contentLength int64) (*nethttp.Response, error) {
	// Wait for rate limiter to allow request
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter cancelled: %w", err)
	}

	c.trackCall(path)

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentLength > 0 {
		req.ContentLength = contentLength
	}

	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("API call failed: %s %s - %v", method, path, err)
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode == nethttp.StatusTooManyRequests {
		log.Printf("THROTTLED: %s %s - rate limit exceeded on document scope", method, path)
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			log.Printf("  Retry-After: %s seconds", retryAfter)
		}
	}

	return resp, nil
}

// trackCall updates usage counters and logs the request rate every 30 seconds.
func (c *Client) trackCall(path string) {
	c.metrics.Lock()
	defer c.metrics.Unlock()

	c.metrics.totalCalls++
	c.metrics.callsByPath[path]++
	c.metrics.callsInWindow++

	if time.Since(c.metrics.windowStart) >= 30*time.Second {
		reqPerSec := float64(c.metrics.callsInWindow) / 30.0
		percentOfTarget := (reqPerSec / constants.FolderServiceRatePerSec) * 100
		log.Printf("API usage: %.2f req/sec (%.0f%% of target), %d total calls",
			reqPerSec, percentOfTarget, c.metrics.totalCalls)

		c.metrics.callsInWindow = 0
		c.metrics.windowStart = time.Now()
	}
}

// ListTradeDocuments fetches the root category skeleton for a trade's
// document tree. The response may carry one level of known subfolders per
// category plus stale-tolerant count hints.
func (c *Client) ListTradeDocuments(ctx context.Context, tradeID string) ([]models.FolderTemplateEntry, error) {
	path := fmt.Sprintf("/api/v2/trades/%s/documents/", url.PathEscape(tradeID))
	return c.listDocuments(ctx, path)
}

// ListAssetDocuments fetches the root category skeleton for an asset's
// document tree. Same shape as ListTradeDocuments, different identity axis.
func (c *Client) ListAssetDocuments(ctx context.Context, assetID string) ([]models.FolderTemplateEntry, error) {
	path := fmt.Sprintf("/api/v2/assets/%s/documents/", url.PathEscape(assetID))
	return c.listDocuments(ctx, path)
}

func (c *Client) listDocuments(ctx context.Context, path string) ([]models.FolderTemplateEntry, error) {
	resp, err := c.doRequest(ctx, "GET", path, nil, "", 0)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrRemoteUnavailable, resp.StatusCode, string(body))
	}

	var result models.ListDocumentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !result.Success {
		return nil, fmt.Errorf("%w: backend reported failure", ErrRemoteUnavailable)
	}

	// Defensive defaulting: a success with no folders field is an empty tree
	if result.Folders == nil {
		result.Folders = []models.FolderTemplateEntry{}
	}
	return result.Folders, nil
}

// ListFolderContents lists the folders and files under an exact path.
func (c *Client) ListFolderContents(ctx context.Context, folderPath string) (*models.FolderContents, error) {
	path := "/api/v2/documents/contents/?path=" + url.QueryEscape(folderPath)

	resp, err := c.doRequest(ctx, "GET", path, nil, "", 0)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrRemoteUnavailable, resp.StatusCode, string(body))
	}

	var result models.ListFolderContentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !result.Success {
		return nil, fmt.Errorf("%w: backend reported failure", ErrRemoteUnavailable)
	}

	contents := &models.FolderContents{
		Folders: make([]models.FolderDescriptor, 0, len(result.Folders)),
		Files:   result.Files,
	}
	for _, f := range result.Folders {
		contents.Folders = append(contents.Folders, f.Descriptor())
	}
	if contents.Files == nil {
		contents.Files = []models.FileDescriptor{}
	}

	return contents, nil
}

// UploadFile submits one file into a named category of an asset's document
// tree. The category is the name of the folder currently open in the panel;
// placement within the tree is the backend's concern.
func (c *Client) UploadFile(ctx context.Context, assetID, category, name string, r io.Reader, size int64) error {
	path := fmt.Sprintf("/api/v2/assets/%s/documents/%s/upload/",
		url.PathEscape(assetID), url.PathEscape(category))

	// Stream the multipart body; documents can be large scans
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	bodyLen := multipartBodyLength(mw.Boundary(), name, size)
	resp, err := c.doRequest(ctx, "POST", path, pr, mw.FormDataContentType(), bodyLen)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK && resp.StatusCode != nethttp.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: upload status %d: %s", ErrRemoteUnavailable, resp.StatusCode, string(body))
	}

	var result models.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !result.Success {
		return fmt.Errorf("%w: upload rejected", ErrRemoteUnavailable)
	}

	return nil
}

// multipartBodyLength returns the exact length of a single-part form body
// carrying size file bytes: the part headers plus the closing boundary,
// rendered with the same boundary the real writer uses, plus the file itself.
func multipartBodyLength(boundary, filename string, size int64) int64 {
	var framing bytes.Buffer
	w := multipart.NewWriter(&framing)
	if err := w.SetBoundary(boundary); err != nil {
		return 0
	}
	if _, err := w.CreateFormFile("file", filename); err != nil {
		return 0
	}
	if err := w.Close(); err != nil {
		return 0
	}
	return int64(framing.Len()) + size
}
