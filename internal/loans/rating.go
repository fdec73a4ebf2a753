package loans

// NextRating folds score into a running mean. The mean is multiplied back
// out on every update, so it drifts for very large counts.
func NextRating(mean float64, count int, score int) (float64, int) {
	sum := mean*float64(count) + float64(score)
	count++
	return sum / float64(count), count
}
