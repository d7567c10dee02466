package services

import "math/rand"

// ShuffleOptions permutes each question's options in place (Fisher-Yates).
// Question order is left untouched.
func ShuffleOptions(questions []TakerQuestion, r *rand.Rand) {
	for qi := range questions {
		opts := questions[qi].Options
		for i := len(opts) - 1; i > 0; i-- {
			j := r.Intn(i + 1)
			opts[i], opts[j] = opts[j], opts[i]
		}
	}
}

// ShuffleQuestions permutes question order in place and renumbers positions.
func ShuffleQuestions(questions []TakerQuestion, r *rand.Rand) {
	for i := len(questions) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		questions[i], questions[j] = questions[j], questions[i]
	}
	for i := range questions {
		questions[i].Position = i
	}
}
