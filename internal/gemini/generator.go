// Package gemini is the production text generator: one GenerateContent call per
// prompt, grounded with Google Search and Google Maps.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.5-flash"

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string

	// DisableMaps drops the Google Maps grounding tool and keeps Search only.
	DisableMaps bool

	Logger *zap.Logger
}

type Generator struct {
	client *genai.Client
	model  string
	tools  []*genai.Tool
	log    *zap.Logger
}

func New(ctx context.Context, cfg Config) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}

	// Structured output (ResponseSchema) cannot be combined with grounding
	// tools, so responses come back as markdown text.
	tools := []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	if !cfg.DisableMaps {
		tools = append(tools, &genai.Tool{GoogleMaps: &genai.GoogleMaps{}})
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		client: client,
		model:  model,
		tools:  tools,
		log:    log.Named("gemini"),
	}, nil
}

// Model returns the configured model name.
func (g *Generator) Model() string { return g.model }

// Generate sends prompt as a single request and returns the reply text.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Tools:          g.tools,
			CandidateCount: 1,
		},
	)
	if err != nil {
		return "", markTransient(err)
	}

	if ce := g.log.Check(zap.DebugLevel, "generate content"); ce != nil {
		gr := groundingOf(resp)
		ce.Write(
			zap.String("model", g.model),
			zap.Strings("sources", gr.sources),
			zap.Strings("web_search_queries", gr.queries),
		)
	}
	return resp.Text(), nil
}

// TransientError marks a failure that might succeed if the caller tried again
// later (rate limits, 5xx, network timeouts). Nothing in this module retries;
// the distinction is only reported in logs.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsTransient reports whether err was classified as transient.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// markTransient wraps err in a TransientError when it is worth retrying later.
func markTransient(err error) error {
	if err == nil || !transient(err) {
		return err
	}
	return &TransientError{Err: err}
}

// transient covers rate limits, server-side API failures and timeouts. Other
// API errors (bad key, bad request) are final even if they also carry a
// deadline.
func transient(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	var ne net.Error
	return errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout())
}

// grounding lists what the model consulted for its first candidate.
type grounding struct {
	sources []string
	queries []string
}

func groundingOf(resp *genai.GenerateContentResponse) grounding {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return grounding{}
	}
	md := resp.Candidates[0].GroundingMetadata
	if md == nil {
		return grounding{}
	}

	var uris []string
	for _, chunk := range md.GroundingChunks {
		switch {
		case chunk == nil:
		case chunk.Web != nil:
			uris = append(uris, chunk.Web.URI)
		case chunk.Maps != nil:
			uris = append(uris, chunk.Maps.URI)
		}
	}
	return grounding{sources: uniqueNonBlank(uris), queries: uniqueNonBlank(md.WebSearchQueries)}
}

// uniqueNonBlank trims vals and keeps the first occurrence of each non-empty one.
func uniqueNonBlank(vals []string) []string {
	var out []string
	seen := make(map[string]bool, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
