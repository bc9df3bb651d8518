package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"physiq/physiq-app/internal/config"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

// ErrProviderUnavailable wraps any transport, timeout, or non-2xx
// failure from a provider endpoint. Callers recover per their documented
// fallback (template plan, fail-open identity check, discarded asset).
var ErrProviderUnavailable = errors.New("ai provider unavailable")

// Client talks to the AI gateway over HTTP. It implements all four
// provider interfaces. Transport-level retries are disabled: every call
// site has its own fallback semantics and a duplicate expensive call is
// worse than a clean failure.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	apiKey  string
	cfg     config.AIConfig
}

// NewClient creates a provider client from the AI config section.
func NewClient(cfg config.AIConfig) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = 0

	return &Client{
		http:    retryClient,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		cfg:     cfg,
	}
}

// postJSON sends the payload and returns the raw response body.
func (c *Client) postJSON(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrProviderUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("WARN: AI provider %s returned status %d", path, resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}
	return raw, nil
}

// AnalyzePhysique implements VisionProvider. The returned bytes are the
// provider's raw JSON verdict; normalization happens in the service layer.
func (c *Client) AnalyzePhysique(ctx context.Context, req VisionRequest) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.VisionTimeout)
	defer cancel()
	return c.postJSON(ctx, "/v1/physique/analyze", req)
}

// CompareSubjects implements IdentityProvider.
func (c *Client) CompareSubjects(ctx context.Context, newImageURL, priorImageURL string) (*IdentityVerdict, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.IdentityTimeout)
	defer cancel()

	payload := map[string]string{
		"imageA": newImageURL,
		"imageB": priorImageURL,
	}
	raw, err := c.postJSON(ctx, "/v1/identity/compare", payload)
	if err != nil {
		return nil, err
	}

	parsed := gjson.ParseBytes(raw)
	verdict := &IdentityVerdict{
		SameSubject: parsed.Get("sameSubject").Bool(),
		Confidence:  int(parsed.Get("confidence").Int()),
		Reason:      parsed.Get("reason").String(),
	}
	return verdict, nil
}

// GeneratePlan implements PlanProvider. Raw JSON out; the planner's
// repair pass is the only path into domain.TrainingPlan.
func (c *Client) GeneratePlan(ctx context.Context, req PlanRequest) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.PlanTimeout)
	defer cancel()
	return c.postJSON(ctx, "/v1/plans/generate", req)
}

// GenerateExerciseImage implements ImageProvider.
func (c *Client) GenerateExerciseImage(ctx context.Context, exerciseName string, phase string) (*GeneratedImage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ImageTimeout)
	defer cancel()

	payload := map[string]string{
		"exerciseName": exerciseName,
		"phase":        phase,
	}
	raw, err := c.postJSON(ctx, "/v1/images/exercise", payload)
	if err != nil {
		return nil, err
	}

	parsed := gjson.ParseBytes(raw)
	encoded := parsed.Get("image").String()
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty image payload", ErrProviderUnavailable)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed image payload: %v", ErrProviderUnavailable, err)
	}

	contentType := parsed.Get("contentType").String()
	if contentType == "" {
		contentType = "image/png"
	}
	return &GeneratedImage{ContentType: contentType, Data: data}, nil
}
