package domain

// Tier is a named difficulty bucket for the question pool.
type Tier string

const (
	TierEasy   Tier = "easy"
	TierMedium Tier = "medium"
	TierHard   Tier = "hard"
)

// Question models one MCQ quiz item. CorrectIndex points into Options.
type Question struct {
	ID           string   `json:"id"`
	Tier         Tier     `json:"tier"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation,omitempty"`
}

// AnsweredQuestion is a Question plus the user's selected option, if any.
// A nil UserAnswer means the question has not been answered yet; once set
// it is never overwritten.
type AnsweredQuestion struct {
	Question
	UserAnswer *int `json:"userAnswer,omitempty"`
}

// Answered reports whether the question has a recorded answer.
func (q AnsweredQuestion) Answered() bool {
	return q.UserAnswer != nil
}

// Correct reports whether the recorded answer matches the correct option.
func (q AnsweredQuestion) Correct() bool {
	return q.UserAnswer != nil && *q.UserAnswer == q.CorrectIndex
}

// Snapshot is the full serialized state of a quiz session as persisted
// between reloads. Score is written for observability only; recovery
// recomputes it from the answer records and never trusts this field.
type Snapshot struct {
	Tier         Tier               `json:"tier"`
	Questions    []AnsweredQuestion `json:"questions"`
	CurrentIndex int                `json:"currentIndex"`
	Score        int                `json:"score"`
}

// AnswerFeedback is what the presentation layer gets back for a single
// answer submission. Applied is false when the submission was ignored
// because the question was already answered (or the index was out of range).
type AnswerFeedback struct {
	Correct bool `json:"correct"`
	Applied bool `json:"applied"`
	Score   int  `json:"score"`
}

// SessionResult is the terminal payload of a completed session.
type SessionResult struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

// ProfileStats holds a user's cumulative quiz statistics.
type ProfileStats struct {
	TotalGames   int     `json:"totalGames"`
	TotalScore   int     `json:"totalScore"`
	AverageScore float64 `json:"averageScore"`
}

// StatsIncrement is the delta applied to a profile when a session completes.
type StatsIncrement struct {
	GamesDelta int
	ScoreDelta int
	NewAverage float64
}
