package sentiment

// defaultLexicon maps sentiment-bearing words to valence scores on the
// familiar [-4, 4] lexicon scale. It covers the vocabulary that dominates
// policy and housing discussion threads; unknown words score zero.
var defaultLexicon = map[string]float64{
	// positive
	"good": 1.9, "great": 3.1, "excellent": 2.7, "amazing": 2.8,
	"love": 3.2, "like": 1.5, "happy": 2.7, "glad": 2.0,
	"hope": 1.9, "hopeful": 2.3, "optimistic": 2.4, "improve": 1.9,
	"improved": 2.1, "improving": 1.9, "better": 1.9, "best": 3.2,
	"win": 2.8, "benefit": 2.0, "helps": 1.7, "help": 1.7,
	"affordable": 2.2, "relief": 1.9, "fair": 1.7, "support": 1.7,
	"success": 2.7, "successful": 2.6, "gain": 1.6, "gains": 1.6,
	"strong": 2.3, "stable": 1.4, "recovery": 1.9, "thriving": 2.9,
	"opportunity": 1.8, "progress": 1.8, "positive": 2.3,

	// negative
	"bad": -2.5, "terrible": -3.1, "awful": -3.0, "horrible": -3.1,
	"hate": -2.7, "angry": -2.3, "sad": -2.1, "worried": -1.9,
	"worry": -1.9, "fear": -2.2, "afraid": -2.2, "scam": -2.6,
	"worse": -2.1, "worst": -3.1, "crisis": -2.4, "collapse": -2.6,
	"crash": -2.5, "lose": -2.0, "loss": -1.9, "losses": -1.9,
	"unaffordable": -2.5, "expensive": -1.6, "broken": -2.0, "fail": -2.5,
	"failed": -2.3, "failure": -2.5, "fraud": -2.9, "corrupt": -2.9,
	"evict": -2.6, "eviction": -2.6, "homeless": -2.4, "debt": -1.7,
	"struggle": -2.0, "struggling": -2.1, "unfair": -2.1, "problem": -1.7,
	"problems": -1.7, "negative": -2.1, "decline": -1.7, "risky": -1.6,
}

// negations invert the valence of the word that follows them.
var negations = map[string]bool{
	"not": true, "no": true, "never": true, "none": true,
	"cannot": true, "cant": true, "dont": true, "wont": true,
	"isnt": true, "wasnt": true, "arent": true, "without": true,
}
