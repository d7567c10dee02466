package services

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/quizfoundry/backend/models"
)

const histogramBuckets = 10

type OptionStat struct {
	OptionID  uuid.UUID `json:"option_id"`
	Text      string    `json:"text"`
	IsCorrect bool      `json:"is_correct"`
	Picks     int       `json:"picks"`
}

type QuestionStat struct {
	QuestionID   uuid.UUID    `json:"question_id"`
	Text         string       `json:"text"`
	Position     int          `json:"position"`
	Answered     int          `json:"answered"`
	Skipped      int          `json:"skipped"`
	CorrectCount int          `json:"correct_count"`
	CorrectRate  float64      `json:"correct_rate"`
	Options      []OptionStat `json:"options"`
}

type ScoreBucket struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Count int `json:"count"`
}

type QuizAnalytics struct {
	QuizID            uuid.UUID      `json:"quiz_id"`
	TotalAttempts     int            `json:"total_attempts"`
	CompletedAttempts int            `json:"completed_attempts"`
	AbandonedAttempts int            `json:"abandoned_attempts"`
	CompletionRate    float64        `json:"completion_rate"`
	AverageScore      float64        `json:"average_score"`
	MedianScore       float64        `json:"median_score"`
	HighestScore      float64        `json:"highest_score"`
	LowestScore       float64        `json:"lowest_score"`
	UniqueTakers      int            `json:"unique_takers"`
	Questions         []QuestionStat `json:"questions"`
	Histogram         []ScoreBucket  `json:"histogram"`
	HardestQuestionID *uuid.UUID     `json:"hardest_question_id"`
}

// ComputeQuizAnalytics aggregates attempts and their answers for a quiz.
// Only completed attempts contribute to score and per-question figures.
func ComputeQuizAnalytics(quiz models.Quiz, attempts []models.QuizAttempt, answers []models.AttemptAnswer) QuizAnalytics {
	out := QuizAnalytics{
		QuizID:        quiz.ID,
		TotalAttempts: len(attempts),
		Histogram:     emptyHistogram(),
	}

	completed := make(map[uuid.UUID]struct{})
	takers := make(map[uuid.UUID]struct{})
	var scores []float64
	for _, a := range attempts {
		takers[a.UserID] = struct{}{}
		switch a.Status {
		case models.AttemptCompleted:
			completed[a.ID] = struct{}{}
			score := 0.0
			if a.Score != nil {
				score = *a.Score
			}
			scores = append(scores, score)
			out.Histogram[bucketFor(score)].Count++
		case models.AttemptAbandoned:
			out.AbandonedAttempts++
		}
	}
	out.CompletedAttempts = len(scores)
	out.UniqueTakers = len(takers)
	out.CompletionRate = Percent(out.CompletedAttempts, out.TotalAttempts)

	if len(scores) > 0 {
		sort.Float64s(scores)
		sum := 0.0
		for _, s := range scores {
			sum += s
		}
		out.AverageScore = round2(sum / float64(len(scores)))
		out.MedianScore = round2(median(scores))
		out.LowestScore = scores[0]
		out.HighestScore = scores[len(scores)-1]
	}

	stats := make([]QuestionStat, len(quiz.Questions))
	index := make(map[uuid.UUID]int, len(quiz.Questions))
	optionIndex := make(map[uuid.UUID]int)
	for i, q := range quiz.Questions {
		index[q.ID] = i
		stats[i] = QuestionStat{QuestionID: q.ID, Text: q.Text, Position: q.Position}
		for j, o := range q.Options {
			optionIndex[o.ID] = j
			stats[i].Options = append(stats[i].Options, OptionStat{OptionID: o.ID, Text: o.Text, IsCorrect: o.IsCorrect})
		}
	}

	for _, ans := range answers {
		if _, ok := completed[ans.AttemptID]; !ok {
			continue
		}
		i, ok := index[ans.QuestionID]
		if !ok {
			continue
		}
		if ans.SelectedOptionID == nil {
			stats[i].Skipped++
			continue
		}
		stats[i].Answered++
		if ans.IsCorrect {
			stats[i].CorrectCount++
		}
		if j, ok := optionIndex[*ans.SelectedOptionID]; ok && j < len(stats[i].Options) && stats[i].Options[j].OptionID == *ans.SelectedOptionID {
			stats[i].Options[j].Picks++
		}
	}

	hardest := -1
	for i := range stats {
		stats[i].CorrectRate = Percent(stats[i].CorrectCount, out.CompletedAttempts)
		if out.CompletedAttempts > 0 && (hardest < 0 || stats[i].CorrectRate < stats[hardest].CorrectRate) {
			hardest = i
		}
	}
	if hardest >= 0 {
		id := stats[hardest].QuestionID
		out.HardestQuestionID = &id
	}
	out.Questions = stats
	return out
}

func emptyHistogram() []ScoreBucket {
	buckets := make([]ScoreBucket, histogramBuckets)
	for i := range buckets {
		buckets[i] = ScoreBucket{From: i * 10, To: i*10 + 9}
	}
	buckets[histogramBuckets-1].To = 100
	return buckets
}

func bucketFor(score float64) int {
	b := int(score) / 10
	if b >= histogramBuckets {
		b = histogramBuckets - 1
	}
	if b < 0 {
		b = 0
	}
	return b
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

type AttemptSummary struct {
	AttemptID   uuid.UUID  `json:"attempt_id"`
	QuizID      uuid.UUID  `json:"quiz_id"`
	QuizTitle   string     `json:"quiz_title"`
	Status      string     `json:"status"`
	Score       *float64   `json:"score"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

type UserStats struct {
	AttemptsTaken     int              `json:"attempts_taken"`
	CompletedAttempts int              `json:"completed_attempts"`
	AverageScore      float64          `json:"average_score"`
	BestScore         float64          `json:"best_score"`
	PerfectScores     int              `json:"perfect_scores"`
	DistinctQuizzes   int              `json:"distinct_quizzes"`
	RecentAttempts    []AttemptSummary `json:"recent_attempts"`
}

const recentAttemptLimit = 5

// ComputeUserStats summarises a user's attempt history for the dashboard.
// attempts may be in any order; recent attempts are newest first.
func ComputeUserStats(attempts []models.QuizAttempt) UserStats {
	stats := UserStats{AttemptsTaken: len(attempts), RecentAttempts: []AttemptSummary{}}

	quizzes := make(map[uuid.UUID]struct{})
	sum := 0.0
	for _, a := range attempts {
		quizzes[a.QuizID] = struct{}{}
		if a.Status != models.AttemptCompleted || a.Score == nil {
			continue
		}
		stats.CompletedAttempts++
		sum += *a.Score
		if *a.Score > stats.BestScore {
			stats.BestScore = *a.Score
		}
		if *a.Score >= 100 {
			stats.PerfectScores++
		}
	}
	stats.DistinctQuizzes = len(quizzes)
	if stats.CompletedAttempts > 0 {
		stats.AverageScore = round2(sum / float64(stats.CompletedAttempts))
	}

	sorted := make([]models.QuizAttempt, len(attempts))
	copy(sorted, attempts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartedAt.After(sorted[j].StartedAt) })
	for i, a := range sorted {
		if i == recentAttemptLimit {
			break
		}
		summary := AttemptSummary{
			AttemptID:   a.ID,
			QuizID:      a.QuizID,
			Status:      a.Status,
			Score:       a.Score,
			StartedAt:   a.StartedAt,
			CompletedAt: a.CompletedAt,
		}
		if a.Quiz != nil {
			summary.QuizTitle = a.Quiz.Title
		}
		stats.RecentAttempts = append(stats.RecentAttempts, summary)
	}
	return stats
}
