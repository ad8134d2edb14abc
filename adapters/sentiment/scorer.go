// Package sentiment scores social-media text with a valence lexicon and
// aggregates scored posts into the daily series the aligner consumes. The
// scorer is stateless and injectable; nothing here is a process-wide
// singleton.
package sentiment

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	domain "policypulse/domain/sentiment"
	"policypulse/domain/series"
	"policypulse/ports"

	"github.com/montanaflynn/stats"
)

// normalizationAlpha dampens the raw valence sum into [-1, 1]; the constant
// matches the familiar compound-score normalization.
const normalizationAlpha = 15.0

// LexiconScorer assigns valence scores from a fixed word lexicon.
type LexiconScorer struct {
	lexicon map[string]float64
}

var _ ports.SentimentScorer = (*LexiconScorer)(nil)

// NewLexiconScorer creates a scorer with the built-in lexicon.
func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{lexicon: defaultLexicon}
}

// NewLexiconScorerWith creates a scorer with a caller-supplied lexicon,
// for domain-specific vocabularies.
func NewLexiconScorerWith(lexicon map[string]float64) *LexiconScorer {
	return &LexiconScorer{lexicon: lexicon}
}

// Score computes compound, positive, neutral and negative scores for a text.
// Compound is the valence sum normalized to [-1, 1]; the component scores are
// the fraction of tokens carrying each polarity.
func (s *LexiconScorer) Score(text string) domain.Scores {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return domain.Scores{Neutral: 1}
	}

	sum := 0.0
	var posCount, negCount int
	negated := false
	for _, tok := range tokens {
		if negations[tok] {
			negated = true
			continue
		}
		valence, ok := s.lexicon[tok]
		if ok && negated {
			valence = -valence
		}
		negated = false
		if !ok {
			continue
		}
		sum += valence
		if valence > 0 {
			posCount++
		} else if valence < 0 {
			negCount++
		}
	}

	compound := sum / math.Sqrt(sum*sum+normalizationAlpha)
	total := float64(len(tokens))
	return domain.Scores{
		Compound: compound,
		Positive: float64(posCount) / total,
		Negative: float64(negCount) / total,
		Neutral:  (total - float64(posCount) - float64(negCount)) / total,
	}
}

// ScorePosts attaches scores to each post using the supplied scorer. Title and
// body are scored together, matching how the posts were collected.
func ScorePosts(scorer ports.SentimentScorer, posts []domain.Post) []domain.Post {
	scored := make([]domain.Post, len(posts))
	for i, post := range posts {
		post.Scores = scorer.Score(strings.TrimSpace(post.Title + " " + post.Body))
		scored[i] = post
	}
	return scored
}

// AggregateDaily averages compound scores per calendar day, ascending by date.
func AggregateDaily(posts []domain.Post) []domain.DailyPoint {
	byDay := make(map[time.Time][]float64)
	for _, post := range posts {
		day := time.Date(post.CreatedAt.Year(), post.CreatedAt.Month(), post.CreatedAt.Day(), 0, 0, 0, 0, time.UTC)
		byDay[day] = append(byDay[day], post.Scores.Compound)
	}

	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	daily := make([]domain.DailyPoint, len(days))
	for i, day := range days {
		avg, _ := stats.Mean(byDay[day])
		daily[i] = domain.DailyPoint{Date: day, AvgCompound: avg, Posts: len(byDay[day])}
	}
	return daily
}

// ToObservations converts daily sentiment into an observation series for
// monthly alignment against the outcome.
func ToObservations(daily []domain.DailyPoint) series.ObservationSeries {
	out := make(series.ObservationSeries, len(daily))
	for i, d := range daily {
		out[i] = series.Observation{Timestamp: d.Date, Value: d.AvgCompound}
	}
	return out
}

// tokenize lowercases and strips everything but letters, so "can't" and
// "Can't" fold to the same token.
func tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return r
		default:
			return -1
		}
	}, text)
	return strings.Fields(cleaned)
}
