// Package inference implements moderation.Moderator against a hosted
// text-classification inference API that scores text with models such
// as unitary/toxic-bert and returns label/score pairs.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/textmod/textmod-server/internal/config"
	"github.com/textmod/textmod-server/internal/moderation"
)

// Ensure Client implements the moderation.Moderator interface
var _ moderation.Moderator = (*Client)(nil)

// Client calls the classification backend over HTTP. The HTTP client
// handle is owned by the Client and injectable so tests can substitute
// a fake backend.
type Client struct {
	baseURL      string
	token        string
	defaultModel string
	models       map[string]config.ModelConfig
	rules        []moderation.Rule

	httpClient *http.Client
}

// New creates a Client from the moderation configuration. A nil
// httpClient gets a default one bounded by the configured request
// timeout.
func New(cfg *config.ModerationConfig, httpClient *http.Client) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}

	if cfg.APIToken == "" {
		return nil, errors.New("API token is required")
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	rules := make([]moderation.Rule, 0, len(cfg.LabelRules))
	for _, r := range cfg.LabelRules {
		rules = append(rules, moderation.Rule{Match: r.Match, Category: r.Category})
	}

	return &Client{
		baseURL:      cfg.BaseURL,
		token:        cfg.APIToken,
		defaultModel: cfg.DefaultModel,
		models:       cfg.Models,
		rules:        rules,
		httpClient:   httpClient,
	}, nil
}

// ResolveModel maps a public model key to its backend configuration,
// falling back to the default model for unknown or empty keys.
func (c *Client) ResolveModel(modelKey string) (string, config.ModelConfig) {
	if mc, ok := c.models[modelKey]; ok {
		return modelKey, mc
	}
	return c.defaultModel, c.models[c.defaultModel]
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

// ModerateText scores text with the backend model behind modelKey and
// normalizes the response
func (c *Client) ModerateText(ctx context.Context, text, modelKey string) (*moderation.Result, error) {
	resolvedKey, mc := c.ResolveModel(modelKey)

	body, raw, err := c.invoke(ctx, mc.Model, text)
	if err != nil {
		return nil, err
	}

	pairs := decodeLabelPairs(body)
	scores := moderation.Classify(pairs, c.rules)
	if len(scores) == 0 {
		return nil, errors.Wrapf(moderation.ErrMalformedResponse,
			"model %s returned %d raw pairs", mc.Model, len(pairs))
	}

	overall := moderation.OverallScore(scores)
	decision := moderation.Decide(overall, moderation.DefaultPolicy(mc.Threshold))

	return &moderation.Result{
		ModelKey:      resolvedKey,
		Provider:      mc.Provider,
		ProviderModel: mc.Model,
		Scores:        scores,
		OverallScore:  overall,
		Flagged:       overall >= mc.Threshold,
		Threshold:     mc.Threshold,
		Decision:      decision,
		Raw:           raw,
	}, nil
}

// invoke performs the HTTP call and returns the response body. Auth
// failures are mapped to moderation.ErrProviderAuth whether they show
// up as a status code, a response body, or a transport error message.
func (c *Client) invoke(ctx context.Context, model, text string) ([]byte, json.RawMessage, error) {
	reqBody, err := json.Marshal(inferenceRequest{Inputs: text})
	if err != nil {
		return nil, nil, errors.Wrap(err, "error marshaling request")
	}

	endpoint := c.baseURL + "/models/" + model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, nil, errors.Wrap(err, "error creating request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if moderation.IsAuthErrorMessage(err.Error()) {
			return nil, nil, errors.Wrap(moderation.ErrProviderAuth, err.Error())
		}
		return nil, nil, errors.Wrap(err, "error calling classification backend")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read response body (status code: %d)", resp.StatusCode)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, nil, errors.Wrapf(moderation.ErrProviderAuth,
			"backend returned status %d: %s", resp.StatusCode, string(body))
	}

	if resp.StatusCode != http.StatusOK {
		if moderation.IsAuthErrorMessage(string(body)) {
			return nil, nil, errors.Wrapf(moderation.ErrProviderAuth,
				"backend returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, nil, errors.Errorf("backend returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, json.RawMessage(body), nil
}

// decodeLabelPairs accepts both response shapes the backend produces: a
// flat sequence of label/score pairs, or the same sequence nested one
// level deeper. Any other shape yields zero pairs.
func decodeLabelPairs(body []byte) []moderation.LabelScore {
	var flat []moderation.LabelScore
	if err := json.Unmarshal(body, &flat); err == nil {
		return flat
	}

	var nested [][]moderation.LabelScore
	if err := json.Unmarshal(body, &nested); err == nil {
		var pairs []moderation.LabelScore
		for _, group := range nested {
			pairs = append(pairs, group...)
		}
		return pairs
	}

	return nil
}
