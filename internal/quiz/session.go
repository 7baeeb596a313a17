package quiz

import "quiz-session-service/internal/domain"

// Session is the single-player quiz state machine. It holds a fixed,
// non-empty ordered question list, a cursor over it, write-once answers
// and a running score.
//
// Invariants:
//   - 0 <= current < len(questions) while the session is active; current
//     equals len(questions) only once completed.
//   - every question before the cursor has a recorded answer.
//   - score always equals the number of correctly answered questions; it
//     is a projection of the answer records, never an input.
type Session struct {
	tier      domain.Tier
	questions []domain.AnsweredQuestion
	current   int
	score     int
	completed bool
}

// New builds a fresh session over the given questions. The question list
// is copied; an empty list is rejected.
func New(tier domain.Tier, questions []domain.Question) (*Session, error) {
	if len(questions) == 0 {
		return nil, domain.ErrEmptyQuestionSet
	}
	answered := make([]domain.AnsweredQuestion, len(questions))
	for i, q := range questions {
		answered[i] = domain.AnsweredQuestion{Question: q}
	}
	return &Session{tier: tier, questions: answered}, nil
}

// Recover rebuilds a session from a persisted snapshot. The snapshot is
// only usable when its tier matches the requested one and its structure
// holds up; anything else yields ErrNoResumableSession so the caller
// falls back to a fresh fetch. The persisted score is discarded and
// recomputed from the answer records.
func Recover(snap domain.Snapshot, requested domain.Tier) (*Session, error) {
	if snap.Tier != requested {
		return nil, domain.ErrNoResumableSession
	}
	if len(snap.Questions) == 0 {
		return nil, domain.ErrNoResumableSession
	}
	if snap.CurrentIndex < 0 || snap.CurrentIndex >= len(snap.Questions) {
		return nil, domain.ErrNoResumableSession
	}
	questions := make([]domain.AnsweredQuestion, len(snap.Questions))
	copy(questions, snap.Questions)
	for i, q := range questions {
		if q.UserAnswer != nil && (*q.UserAnswer < 0 || *q.UserAnswer >= len(q.Options)) {
			return nil, domain.ErrNoResumableSession
		}
		if i < snap.CurrentIndex && q.UserAnswer == nil {
			return nil, domain.ErrNoResumableSession
		}
	}
	s := &Session{
		tier:      snap.Tier,
		questions: questions,
		current:   snap.CurrentIndex,
	}
	s.score = s.recomputeScore()
	return s, nil
}

func (s *Session) recomputeScore() int {
	score := 0
	for _, q := range s.questions {
		if q.Correct() {
			score++
		}
	}
	return score
}

// Answer records the selected option for the current question and reports
// whether it was correct. Re-answering an already answered question is a
// silent no-op: applied is false and the existing answer's correctness is
// reported unchanged. Out-of-range selections are ignored the same way.
func (s *Session) Answer(selected int) (correct, applied bool) {
	if s.completed {
		return false, false
	}
	q := &s.questions[s.current]
	if q.UserAnswer != nil {
		return q.Correct(), false
	}
	if selected < 0 || selected >= len(q.Options) {
		return false, false
	}
	q.UserAnswer = &selected
	if q.Correct() {
		s.score++
	}
	return q.Correct(), true
}

// Advance moves the cursor to the next question, or transitions to the
// completed state when the last question has been answered. It reports
// whether this call completed the session; a repeat call after completion
// is a no-op so the completion sequence cannot run twice.
func (s *Session) Advance() (justCompleted bool, err error) {
	if s.completed {
		return false, nil
	}
	if !s.questions[s.current].Answered() {
		return false, domain.ErrQuestionUnanswered
	}
	s.current++
	if s.current == len(s.questions) {
		s.completed = true
		return true, nil
	}
	return false, nil
}

// Current returns the active question. It must not be called after the
// session has completed.
func (s *Session) Current() domain.AnsweredQuestion {
	return s.questions[s.current]
}

// Progress returns the zero-based cursor position and the total number of
// questions.
func (s *Session) Progress() (current, total int) {
	return s.current, len(s.questions)
}

// Score returns the running score.
func (s *Session) Score() int {
	return s.score
}

// Tier returns the difficulty tier the session was created for.
func (s *Session) Tier() domain.Tier {
	return s.tier
}

// Completed reports whether the session has reached its terminal state.
func (s *Session) Completed() bool {
	return s.completed
}

// Result returns the final payload for the results screen.
func (s *Session) Result() domain.SessionResult {
	return domain.SessionResult{Score: s.score, Total: len(s.questions)}
}

// Snapshot serializes the full session state for persistence.
func (s *Session) Snapshot() domain.Snapshot {
	questions := make([]domain.AnsweredQuestion, len(s.questions))
	copy(questions, s.questions)
	return domain.Snapshot{
		Tier:         s.tier,
		Questions:    questions,
		CurrentIndex: s.current,
		Score:        s.score,
	}
}
