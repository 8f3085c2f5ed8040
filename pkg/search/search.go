// Package search answers free-text questions about the story using simple
// keyword retrieval over full chapter text. No index, no embeddings; scoring
// is deterministic and the fallback is the most recent chapters.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"writegeist/pkg/inference"
	"writegeist/pkg/store"
	"writegeist/pkg/utils"
)

const answerPrompt = `You are a helpful assistant for a fiction writer. Answer the writer's question using only the chapter excerpts provided. If the excerpts do not contain the answer, say so plainly. Keep the answer concise and refer to chapters by title.`

// Result is one retrieved chapter with a normalized relevance score.
type Result struct {
	ChapterID    string  `json:"chapter_id"`
	ChapterTitle string  `json:"chapter_title"`
	Text         string  `json:"text"`
	Similarity   float64 `json:"similarity"`
}

// Answer is the response to a free-text question: the generated answer (when
// an inferencer is available) plus the chapters it was grounded on.
type Answer struct {
	Answer  string   `json:"answer,omitempty"`
	Sources []Result `json:"sources"`
}

type Service struct {
	store *store.Store
	inf   inference.Inferencer
}

// New builds a search service. inf may be nil; Ask then returns retrieval
// results without a generated answer.
func New(st *store.Store, inf inference.Inferencer) *Service {
	return &Service{store: st, inf: inf}
}

// Search returns up to topK chapters ranked by keyword relevance. An empty
// query or a query with no matches falls back to the most recent chapters
// with a low but valid score.
func (s *Service) Search(query string, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = 5
	}
	if strings.TrimSpace(query) == "" {
		return s.fallbackRecent(2)
	}

	chapters, err := s.store.ListChapters()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(chapters) == 0 {
		return nil, nil
	}

	type scored struct {
		ch    store.Chapter
		score float64
	}
	var matches []scored
	for _, ch := range chapters {
		if sc := chapterScore(query, ch.Title, ch.Text); sc > 0 {
			matches = append(matches, scored{ch, sc})
		}
	}
	if len(matches) == 0 {
		log.Debug("no keyword matches, falling back to recent chapters", "query", utils.LimitStr(query, 60))
		return s.fallbackRecent(2)
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	// Normalize raw scores into a 0.1..0.95 similarity range over the FULL
	// match set, before any topK cut, so truncation never inflates the tail.
	// The best match reads as 95%; equal scores all read as 80%; a lone
	// match spans from zero and also reads as 95%.
	maxScore := matches[0].score
	minScore := matches[len(matches)-1].score
	if len(matches) == 1 {
		minScore = 0
	}

	if len(matches) > topK {
		matches = matches[:topK]
	}

	out := make([]Result, 0, len(matches))
	for _, m := range matches {
		sim := 0.8
		if maxScore > minScore {
			sim = 0.95 * (m.score - minScore) / (maxScore - minScore)
			sim = max(0.1, min(0.95, sim))
		}
		out = append(out, Result{
			ChapterID:    m.ch.ID,
			ChapterTitle: m.ch.Title,
			Text:         m.ch.Text,
			Similarity:   sim,
		})
	}
	return out, nil
}

// Ask retrieves relevant chapters and, when an inferencer is configured,
// generates an answer grounded on them. Retrieval failure is an error;
// generation failure degrades to retrieval-only.
func (s *Service) Ask(ctx context.Context, question string, topK int) (Answer, error) {
	sources, err := s.Search(question, topK)
	if err != nil {
		return Answer{}, err
	}
	ans := Answer{Sources: sources}
	if s.inf == nil || len(sources) == 0 {
		return ans, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", question)
	for _, src := range sources {
		fmt.Fprintf(&b, "\n--- Chapter: %s ---\n%s\n", src.ChapterTitle, utils.LimitStr(src.Text, 8000))
	}

	answer, err := s.inf.Infer(ctx, nil, answerPrompt, b.String())
	if err != nil {
		log.Warn("answer generation failed, returning retrieval only", "error", err)
		return ans, nil
	}
	ans.Answer = strings.TrimSpace(answer)
	return ans, nil
}

// chapterScore is the keyword relevance heuristic: exact word occurrences
// weigh 2.0 each, a substring presence adds 0.5, and a title hit adds 3.0
// per keyword. Keywords shorter than 3 characters are ignored; a query with
// none scores a token 0.1 on every chapter.
func chapterScore(query, title, text string) float64 {
	var keywords []string
	for _, w := range strings.Fields(query) {
		w = strings.ToLower(strings.TrimSpace(w))
		if len(w) > 2 {
			keywords = append(keywords, w)
		}
	}
	if len(keywords) == 0 {
		return 0.1
	}

	full := strings.ToLower(title + " " + text)
	titleLower := strings.ToLower(title)

	var score float64
	for _, kw := range keywords {
		if n := strings.Count(full, kw); n > 0 {
			score += float64(n) * 2.0
			score += 0.5
		}
		if strings.Contains(titleLower, kw) {
			score += 3.0
		}
	}
	return score
}

// fallbackRecent returns the most recent chapters with a low fixed score.
func (s *Service) fallbackRecent(count int) ([]Result, error) {
	chapters, err := s.store.ListChapters()
	if err != nil {
		return nil, fmt.Errorf("search fallback: %w", err)
	}
	if len(chapters) == 0 {
		return nil, nil
	}
	if len(chapters) > count {
		chapters = chapters[len(chapters)-count:]
	}

	out := make([]Result, 0, len(chapters))
	for _, ch := range chapters {
		out = append(out, Result{
			ChapterID:    ch.ID,
			ChapterTitle: ch.Title,
			Text:         ch.Text,
			Similarity:   0.3,
		})
	}
	return out, nil
}
