package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/okian/framecount/internal/domain/model"
	"github.com/okian/framecount/pkg/logger"
	"github.com/okian/framecount/pkg/metrics"
)

const (
	defaultModel   = "gemini-2.5-flash"
	defaultTimeout = 60 * time.Second
	defaultRPS     = 1.0
)

// extractionPrompt asks for every "name - frames" row of a file listing.
const extractionPrompt = `Analyze this image. It most likely shows a LIST of folders or files that represent animation shots (for example a Windows Explorer or macOS Finder window).
Look for rows shaped like "ShotName - FrameCount", e.g. "SQ21_SC01_SH02 - 49" or "SQ25_SC03_SH30 - 249".

1. Extract ALL shots in the list.
2. For each row, split the shot name from the frame count.
3. Ignore dates (e.g. 30/12/2025) and file types (e.g. "File folder").
4. If the frame count is not labelled but a number ends the name after a dash or space, use that number.

Return a JSON array of objects.`

// candidateSchema constrains the model output to [{name, frames}].
var candidateSchema = &genai.Schema{ //nolint:gochecknoglobals // immutable request schema
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":   {Type: genai.TypeString, Description: "The shot name, e.g. SQ21_SC01_SH02"},
			"frames": {Type: genai.TypeInteger, Description: "The number of frames"},
		},
		Required: []string{"name", "frames"},
	},
}

// generateFunc matches genai's Models.GenerateContent.
type generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Gemini is an Analyzer backed by the Gemini API.
type Gemini struct {
	generate generateFunc
	model    string
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   logger.Logger
}

// NewGemini creates a Gemini analyzer.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGemini(client.Models.GenerateContent, opts...), nil
}

func newGemini(generate generateFunc, opts ...Option) *Gemini {
	g := &Gemini{
		generate: generate,
		model:    defaultModel,
		timeout:  defaultTimeout,
		limiter:  rate.NewLimiter(rate.Limit(defaultRPS), 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = logger.Get().Named("analyzer")
	}
	return g
}

// Model returns the configured model name.
func (g *Gemini) Model() string {
	return g.model
}

// Analyze implements Analyzer.
func (g *Gemini) Analyze(ctx context.Context, img model.Image) ([]model.Candidate, error) {
	if len(img.Data) == 0 {
		return nil, ErrEmptyImage
	}
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = DetectMIMEType(img.Data)
	}

	if err := g.limiter.Wait(ctx); err != nil {
		metrics.RecordAnalyzerError("rate_limit")
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(img.Data, mimeType),
			genai.NewPartFromText(extractionPrompt),
		}, genai.RoleUser),
	}

	resp, err := g.generate(callCtx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   candidateSchema,
	})
	if err != nil {
		metrics.RecordAnalyzerError("request")
		g.logger.Error(ctx, "gemini request failed",
			logger.String("model", g.model),
			logger.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	if resp == nil {
		return []model.Candidate{}, nil
	}

	return g.parseCandidates(ctx, resp.Text()), nil
}

// parseCandidates decodes the model output. Output that is not a JSON array
// yields an empty result; array elements that cannot be read as a candidate
// are dropped one by one and the rest are kept.
func (g *Gemini) parseCandidates(ctx context.Context, text string) []model.Candidate {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}
	if text == "" {
		return []model.Candidate{}
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		metrics.RecordAnalyzerError("malformed_output")
		g.logger.Warn(ctx, "discarding malformed analyzer output",
			logger.Int("length", len(text)),
			logger.Error(err),
		)
		return []model.Candidate{}
	}

	out := make([]model.Candidate, 0, len(items))
	dropped := 0
	for _, item := range items {
		c, err := decodeCandidate(item)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, c)
	}
	if dropped > 0 {
		metrics.RecordAnalyzerError("malformed_candidate")
		g.logger.Warn(ctx, "dropped unreadable analyzer rows",
			logger.Int("dropped", dropped),
			logger.Int("kept", len(out)),
		)
	}
	return out
}

// rawCandidate accepts frames as a JSON number or a numeric string.
type rawCandidate struct {
	Name   string      `json:"name"`
	Frames json.Number `json:"frames"`
}

// decodeCandidate reads one array element. Whole-valued floats such as 49.0
// are accepted; fractional frame counts are not.
func decodeCandidate(item json.RawMessage) (model.Candidate, error) {
	var raw rawCandidate
	if err := json.Unmarshal(item, &raw); err != nil {
		return model.Candidate{}, err
	}

	c := model.Candidate{Name: raw.Name}
	if raw.Frames == "" {
		return c, nil
	}
	if n, err := raw.Frames.Int64(); err == nil {
		c.Frames = int(n)
		return c, nil
	}
	f, err := raw.Frames.Float64()
	if err != nil {
		return model.Candidate{}, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return model.Candidate{}, fmt.Errorf("frames %s is not a whole number", raw.Frames)
	}
	c.Frames = int(f)
	return c, nil
}
