package studio

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gemstage/gemstage/internal/ai"
	"github.com/gemstage/gemstage/internal/assets"
	"github.com/gemstage/gemstage/internal/prompts"
)

// Options tunes a Studio.
type Options struct {
	AnalysisModel  string
	ImageModel     string
	StaggerDelay   time.Duration
	MaxConcurrency int
}

// Studio orchestrates analysis, staged shoots, try-on composites and edits
// against a generative image provider.
type Studio struct {
	provider ai.Provider
	opts     Options
}

// New creates a Studio over the given provider.
func New(provider ai.Provider, opts Options) *Studio {
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 1
	}
	return &Studio{provider: provider, opts: opts}
}

// maxReferenceDim is the longest edge reference photos are downscaled to
// before any provider call. Larger inputs only cost tokens.
const maxReferenceDim = 1536

// fitReference downscales a reference image for the provider. Images that
// cannot be decoded are passed through unchanged; the provider reports its
// own error for those.
func fitReference(img ai.InlineImage) ai.InlineImage {
	resized, err := assets.Fit(img.Data, maxReferenceDim)
	if err != nil || len(resized) == len(img.Data) {
		return img
	}
	return ai.InlineImage{MimeType: assets.SniffMIME(resized), Data: resized}
}

// Analyze appraises a product photo and returns the structured analysis.
func (s *Studio) Analyze(ctx context.Context, photo ai.InlineImage) (*AnalyzeResult, error) {
	photo = fitReference(photo)
	resp, err := s.analyzeWithRetry(ctx, ai.AnalysisRequest{
		Model:        s.opts.AnalysisModel,
		SystemPrompt: prompts.AnalysisSystemPrompt,
		Prompt:       prompts.AnalysisPrompt,
		Image:        photo,
		MaxTokens:    2048,
		Temperature:  0.1,
		JSONMode:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis request: %w", err)
	}

	analysis, parseErr := parseAnalysis(resp.Content)
	if parseErr != nil {
		// One fallback re-prompt at temperature zero before giving up.
		fallbackResp, fallbackErr := s.analyzeWithRetry(ctx, ai.AnalysisRequest{
			Model:        s.opts.AnalysisModel,
			SystemPrompt: prompts.AnalysisSystemPrompt,
			Prompt:       prompts.AnalysisPrompt + "\n\nReturn ONLY the JSON object, with no surrounding text.",
			Image:        photo,
			MaxTokens:    1024,
			Temperature:  0.0,
			JSONMode:     true,
		})
		if fallbackErr != nil {
			return nil, fmt.Errorf("parsing analysis: %w", parseErr)
		}
		analysis, parseErr = parseAnalysis(fallbackResp.Content)
		if parseErr != nil {
			return nil, fmt.Errorf("parsing analysis after fallback: %w", parseErr)
		}
		resp.InputTokens += fallbackResp.InputTokens
		resp.OutputTokens += fallbackResp.OutputTokens
		resp.Content = fallbackResp.Content
	}

	return &AnalyzeResult{
		Analysis:     analysis,
		Raw:          resp.Content,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}, nil
}

// TryOn composites the product onto a model photo.
func (s *Studio) TryOn(ctx context.Context, product, model ai.InlineImage, analysis *Analysis) (*ai.ImageResponse, error) {
	var desc, wear string
	if analysis != nil {
		desc = prompts.ItemDescription(analysis.ItemType, analysis.Style, analysis.Materials)
		wear = analysis.WearPosition
	}

	resp, err := s.generateWithRetry(ctx, ai.ImageRequest{
		Model:  s.opts.ImageModel,
		Prompt: prompts.BuildTryOnPrompt(desc, wear),
		Images: []ai.InlineImage{fitReference(product), fitReference(model)},
	})
	if err != nil {
		return nil, fmt.Errorf("try-on render: %w", err)
	}
	return resp, nil
}

// Edit refines a previously generated image per the user's instruction.
func (s *Studio) Edit(ctx context.Context, image ai.InlineImage, instruction string) (*ai.ImageResponse, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, fmt.Errorf("edit instruction is empty")
	}

	resp, err := s.generateWithRetry(ctx, ai.ImageRequest{
		Model:  s.opts.ImageModel,
		Prompt: prompts.BuildEditPrompt(instruction),
		Images: []ai.InlineImage{fitReference(image)},
	})
	if err != nil {
		return nil, fmt.Errorf("edit render: %w", err)
	}
	return resp, nil
}

const (
	maxRetries     = 5
	initialBackoff = 15 * time.Second
	maxBackoff     = 2 * time.Minute
)

// isRetryable reports whether an error is a rate-limit or overload failure
// worth backing off for.
func isRetryable(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "rate_limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "resource_exhausted") ||
		strings.Contains(errStr, "overloaded")
}

// generateWithRetry calls GenerateImage with exponential backoff on rate
// limit errors.
func (s *Studio) generateWithRetry(ctx context.Context, req ai.ImageRequest) (*ai.ImageResponse, error) {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := s.provider.GenerateImage(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff = backoff * 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
	return nil, fmt.Errorf("rate limited after %d retries: %w", maxRetries, lastErr)
}

// analyzeWithRetry mirrors generateWithRetry for analysis calls.
func (s *Studio) analyzeWithRetry(ctx context.Context, req ai.AnalysisRequest) (*ai.AnalysisResponse, error) {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := s.provider.AnalyzeItem(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff = backoff * 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
	return nil, fmt.Errorf("rate limited after %d retries: %w", maxRetries, lastErr)
}

// parseAnalysis parses a model JSON response into an Analysis struct.
func parseAnalysis(raw string) (*Analysis, error) {
	raw = strings.TrimSpace(raw)

	// Strip markdown code fences if present.
	if strings.HasPrefix(raw, "```") {
		lines := strings.Split(raw, "\n")
		if len(lines) >= 2 {
			start := 1
			end := len(lines)
			if strings.TrimSpace(lines[end-1]) == "```" {
				end--
			}
			raw = strings.Join(lines[start:end], "\n")
		}
	}

	// Models sometimes wrap the object in prose; cut to the outermost braces.
	if !strings.HasPrefix(raw, "{") {
		open := strings.Index(raw, "{")
		close := strings.LastIndex(raw, "}")
		if open >= 0 && close > open {
			raw = raw[open : close+1]
		}
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, fmt.Errorf("json parse: %w", err)
	}
	return &analysis, nil
}
