package filter

import (
	"context"
	"regexp"
	"sort"
	"time"

	"github.com/motoki317/sc"
	"github.com/rs/zerolog"
	"gitlab.com/arkline/modguard/internal/models"
)

// MaskToken replaces matched text when a word carries no replacement.
const MaskToken = "***"

// Source loads the currently active banned words, in insertion order.
type Source func(ctx context.Context) ([]models.BannedWord, error)

type compiledWord struct {
	word models.BannedWord
	re   *regexp.Regexp
}

// Engine evaluates free text against the active banned-word list.
// Evaluation is a pure function of (text, active word set); the word set
// is cached with a short TTL and invalidated on admin edits.
type Engine struct {
	cache  *sc.Cache[struct{}, []compiledWord]
	logger zerolog.Logger
}

func NewEngine(src Source, ttl time.Duration, logger zerolog.Logger) *Engine {
	e := &Engine{logger: logger}
	e.cache = sc.NewMust(func(ctx context.Context, _ struct{}) ([]compiledWord, error) {
		words, err := src(ctx)
		if err != nil {
			return nil, err
		}
		return e.compile(words), nil
	}, ttl, ttl)
	return e
}

// compile orders words by severity (descending, stable so insertion order
// breaks ties) and pre-compiles their patterns. A pattern that fails to
// compile is a configuration error: logged and skipped, never surfaced to
// the caller.
func (e *Engine) compile(words []models.BannedWord) []compiledWord {
	sorted := make([]models.BannedWord, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Rank() > sorted[j].Severity.Rank()
	})

	compiled := make([]compiledWord, 0, len(sorted))
	for _, w := range sorted {
		expr := w.Pattern
		if !w.IsRegex {
			expr = regexp.QuoteMeta(w.Pattern)
		}
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			e.logger.Warn().
				Int("word_id", w.ID).
				Err(err).
				Msg("Skipping banned word with invalid pattern")
			continue
		}
		compiled = append(compiled, compiledWord{word: w, re: re})
	}
	return compiled
}

// Evaluate redacts every banned-word occurrence in text and decides
// whether the text is publishable at all. Matching runs against the
// progressively redacted text, so for overlapping patterns the
// higher-severity replacement wins.
func (e *Engine) Evaluate(ctx context.Context, text string) (models.FilterResult, error) {
	words, err := e.cache.Get(ctx, struct{}{})
	if err != nil {
		return models.FilterResult{}, err
	}

	res := models.FilterResult{FilteredText: text}
	for _, c := range words {
		if !c.re.MatchString(res.FilteredText) {
			continue
		}
		mask := MaskToken
		if c.word.Replacement != nil && *c.word.Replacement != "" {
			mask = *c.word.Replacement
		}
		res.FilteredText = c.re.ReplaceAllLiteralString(res.FilteredText, mask)
		res.Matches = append(res.Matches, models.MatchedWord{
			Pattern:  c.word.Pattern,
			Severity: c.word.Severity,
			Category: c.word.Category,
		})
		if c.word.Severity.Blocks() {
			res.Blocked = true
		}
	}
	return res, nil
}

// Invalidate drops the cached word list. Called after admin edits so the
// next evaluation sees the new list immediately.
func (e *Engine) Invalidate() {
	e.cache.Purge()
}
