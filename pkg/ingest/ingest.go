// Package ingest runs the chapter ingestion pipeline: a fixed sequence of
// LLM extraction steps (characters, locations, point of view, metadata),
// each with a deterministic fallback so a model failure degrades the result
// instead of failing the ingest.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"
	"github.com/segmentio/ksuid"

	"writegeist/pkg/inference"
	"writegeist/pkg/schema"
	"writegeist/pkg/utils"
)

// Token budgets for the chapter excerpt handed to each step. Full chapters
// routinely exceed the useful context for these narrow questions.
const (
	excerptTokensEntities = 600
	excerptTokensPOV      = 450
	excerptTokensMetadata = 300
)

// Result is the structured outcome of ingesting one chapter.
type Result struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Characters []string       `json:"characters"`
	Locations  []string       `json:"locations"`
	POV        []string       `json:"pov"`
	Metadata   map[string]any `json:"metadata"`
	Log        []string       `json:"log"`
}

type Pipeline struct {
	inf inference.Inferencer
}

func New(inf inference.Inferencer) *Pipeline {
	return &Pipeline{inf: inf}
}

// Run ingests one chapter. It never returns an error: every extraction step
// substitutes its fallback value on failure, and the processing log records
// what happened.
func (p *Pipeline) Run(ctx context.Context, title, text string) Result {
	r := Result{
		ID:    ksuid.New().String(),
		Title: title,
		Text:  text,
		Log:   []string{fmt.Sprintf("starting processing for chapter: %s", utils.LimitStr(title, 50))},
	}
	if n, err := utils.CountTokens(text); err == nil {
		r.Log = append(r.Log, fmt.Sprintf("chapter length: %d tokens", n))
	}

	r.Characters = p.extractCharacters(ctx, &r)
	r.Locations = p.extractLocations(ctx, &r)
	r.POV = p.extractPOV(ctx, &r)
	r.Metadata = p.generateMetadata(ctx, &r)

	r.Log = append(r.Log, fmt.Sprintf("completed processing for chapter: %s", utils.LimitStr(title, 50)))
	return r
}

func (p *Pipeline) extractCharacters(ctx context.Context, r *Result) []string {
	excerpt := utils.TruncateTokens(r.Text, excerptTokensEntities)
	params := &openai.ChatCompletionNewParams{
		ResponseFormat: schema.CharacterListResponseFormat(),
	}

	out, err := p.infer(ctx, params, characterPrompt, chapterInput(r.Title, excerpt))
	if err != nil {
		log.Warn("character extraction failed, using heuristic fallback", "chapter", r.Title, "error", err)
		r.Log = append(r.Log, fmt.Sprintf("node extract_characters - ERROR: %v", err))
		return heuristicNames(r.Text)
	}

	var parsed schema.CharacterList
	if err := parseModelJSON(out, &parsed); err != nil || len(parsed.Characters) == 0 {
		log.Warn("character extraction parse error or empty result, using heuristic fallback", "error", err)
		r.Log = append(r.Log, "node extract_characters - parse error, heuristic fallback")
		return heuristicNames(r.Text)
	}

	chars := dedupeNames(parsed.Characters)
	r.Log = append(r.Log, fmt.Sprintf("node extract_characters - found %d characters", len(chars)))
	return chars
}

func (p *Pipeline) extractLocations(ctx context.Context, r *Result) []string {
	excerpt := utils.TruncateTokens(r.Text, excerptTokensEntities)
	params := &openai.ChatCompletionNewParams{
		ResponseFormat: schema.LocationListResponseFormat(),
	}

	out, err := p.infer(ctx, params, locationPrompt, chapterInput(r.Title, excerpt))
	if err != nil {
		log.Warn("location extraction failed", "chapter", r.Title, "error", err)
		r.Log = append(r.Log, fmt.Sprintf("node extract_locations - ERROR: %v", err))
		return nil
	}

	var parsed schema.LocationList
	if err := parseModelJSON(out, &parsed); err != nil {
		log.Warn("location extraction parse error", "error", err)
		r.Log = append(r.Log, "node extract_locations - parse error, empty fallback")
		return nil
	}

	locs := dedupeNames(parsed.Locations)
	r.Log = append(r.Log, fmt.Sprintf("node extract_locations - found %d locations", len(locs)))
	return locs
}

func (p *Pipeline) extractPOV(ctx context.Context, r *Result) []string {
	excerpt := utils.TruncateTokens(r.Text, excerptTokensPOV)
	params := &openai.ChatCompletionNewParams{
		ResponseFormat: schema.PointOfViewResponseFormat(),
	}

	out, err := p.infer(ctx, params, povPrompt, chapterInput(r.Title, excerpt))
	if err == nil {
		var parsed schema.PointOfView
		if perr := parseModelJSON(out, &parsed); perr == nil && len(parsed.POV) > 0 {
			r.Log = append(r.Log, fmt.Sprintf("node extract_pov - detected %s", parsed.POV[0]))
			return parsed.POV
		}
		err = fmt.Errorf("unparseable pov result")
	}

	pov := heuristicPOV(r.Text)
	log.Warn("pov extraction fell back to pronoun counting", "chapter", r.Title, "error", err)
	r.Log = append(r.Log, fmt.Sprintf("node extract_pov - ERROR: %v - fallback: %s", err, pov[0]))
	return pov
}

func (p *Pipeline) generateMetadata(ctx context.Context, r *Result) map[string]any {
	meta := basicStats(r)

	excerpt := utils.TruncateTokens(r.Text, excerptTokensMetadata)
	params := &openai.ChatCompletionNewParams{
		ResponseFormat: schema.ChapterMetadataResponseFormat(),
	}

	out, err := p.infer(ctx, params, metadataPrompt, chapterInput(r.Title, excerpt))
	if err != nil {
		log.Warn("metadata generation failed, using basic stats", "chapter", r.Title, "error", err)
		r.Log = append(r.Log, fmt.Sprintf("node generate_metadata - ERROR: %v - basic stats only", err))
		meta["sentiment"] = "neutral"
		meta["tone"] = "unknown"
		return meta
	}

	var parsed schema.ChapterMetadata
	if err := parseModelJSON(out, &parsed); err != nil {
		log.Warn("metadata parse error, using basic stats", "error", err)
		r.Log = append(r.Log, "node generate_metadata - parse error, basic stats only")
		meta["sentiment"] = "neutral"
		meta["tone"] = "unknown"
		return meta
	}

	meta["sentiment"] = parsed.Sentiment
	meta["tone"] = parsed.Tone
	meta["complexity"] = parsed.Complexity
	if parsed.Tropes == nil {
		parsed.Tropes = []string{}
	}
	meta["tropes"] = parsed.Tropes
	if parsed.ReadingTimeMinutes > 0 {
		meta["reading_time_minutes"] = parsed.ReadingTimeMinutes
	}
	r.Log = append(r.Log, fmt.Sprintf("node generate_metadata - sentiment: %s", parsed.Sentiment))
	return meta
}

// infer runs one model call and verifies the raw output before any caller
// tries to parse it. A verification failure is treated like a model failure
// so the step's fallback kicks in.
func (p *Pipeline) infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error) {
	out, err := p.inf.Infer(ctx, params, system, user)
	if err != nil {
		return "", err
	}
	ok, err := p.inf.Verify(ctx, out)
	if err != nil {
		return "", fmt.Errorf("verifying model output: %w", err)
	}
	if !ok {
		return "", errors.New("model output failed verification")
	}
	return out, nil
}

func chapterInput(title, excerpt string) string {
	return fmt.Sprintf("Chapter Title: %s\n\nText: %s", title, excerpt)
}

// parseModelJSON decodes model output into v, tolerating markdown fences and
// stray prose around the JSON object.
func parseModelJSON(out string, v any) error {
	out = utils.CleanJSON(out)
	if idx := strings.LastIndex(out, "</think>"); idx != -1 {
		out = strings.TrimSpace(out[idx+len("</think>"):])
	}
	if len(out) == 0 {
		return fmt.Errorf("empty model output")
	}
	if out[0] != '{' {
		if j := strings.Index(out, "{"); j != -1 {
			out = out[j:]
		} else {
			return fmt.Errorf("no JSON object in model output")
		}
	}
	if out[len(out)-1] != '}' {
		if j := strings.LastIndex(out, "}"); j != -1 {
			out = out[:j+1]
		} else {
			return fmt.Errorf("no JSON object in model output")
		}
	}
	if err := json.Unmarshal([]byte(out), v); err != nil {
		return fmt.Errorf("decoding model output: %w", err)
	}
	return nil
}

// dedupeNames trims and removes case-insensitive duplicates, collapsing
// near-identical spellings onto the first occurrence.
func dedupeNames(in []string) []string {
	out := make([]string, 0, len(in))
NextName:
	for _, n := range in {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		for _, existing := range out {
			if strings.EqualFold(existing, n) || utils.Similarity(existing, n) >= 0.9 {
				continue NextName
			}
		}
		out = append(out, n)
	}
	return out
}
