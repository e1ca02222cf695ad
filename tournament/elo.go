package tournament

import "github.com/chewxy/math32"

const (
	// DefaultRating seeds agents that have never played.
	DefaultRating float32 = 1500
	// DefaultK is the rating volatility used when Tournament.K is unset.
	DefaultK float32 = 32
)

// Expected is the Elo expected score of a rating against b.
func Expected(a, b float32) float32 {
	return 1 / (1 + math32.Pow(10, (b-a)/400))
}

// Update returns both sides' new ratings after a game scoring `score` for
// the first side: 1 for a win, 0.5 for a draw, 0 for a loss.
func Update(a, b, score, k float32) (float32, float32) {
	ea := Expected(a, b)
	return a + k*(score-ea), b + k*((1-score)-(1-ea))
}
