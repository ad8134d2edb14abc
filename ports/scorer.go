package ports

import "policypulse/domain/sentiment"

// SentimentScorer assigns lexicon sentiment scores to a piece of text. Scorers
// must be stateless so callers can inject them freely and share them across
// entities without synchronization.
type SentimentScorer interface {
	Score(text string) sentiment.Scores
}
