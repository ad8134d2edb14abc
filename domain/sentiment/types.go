package sentiment

import "time"

// Scores holds the lexicon scores for one piece of text. Compound is the
// normalized summary score in [-1, 1].
type Scores struct {
	Compound float64
	Positive float64
	Neutral  float64
	Negative float64
}

// Label buckets a compound score the way the collection pipeline labels posts.
func (s Scores) Label() string {
	switch {
	case s.Compound >= 0.05:
		return "positive"
	case s.Compound <= -0.05:
		return "negative"
	default:
		return "neutral"
	}
}

// Post is one collected social post with its sentiment scores attached.
type Post struct {
	ID        string
	CreatedAt time.Time
	Title     string
	Body      string
	Scores    Scores
}

// DailyPoint aggregates scored posts for one calendar day.
type DailyPoint struct {
	Date        time.Time
	AvgCompound float64
	Posts       int
}
