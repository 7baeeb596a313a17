package domain

import "errors"

var (
	// ErrEmptyQuestionSet is returned when a session would have zero questions.
	ErrEmptyQuestionSet = errors.New("question set is empty")
	// ErrNoResumableSession signals that a persisted snapshot cannot be
	// resumed (wrong tier or malformed) and a fresh fetch is required.
	ErrNoResumableSession = errors.New("no resumable session")
	// ErrNoActiveSession is returned when a transition is attempted before a
	// session has been started.
	ErrNoActiveSession = errors.New("no active session")
	// ErrQuestionUnanswered is returned when advancing past a question that
	// has not been answered yet.
	ErrQuestionUnanswered = errors.New("current question not answered")
	// ErrSessionAbandoned is returned when a start resolves after the client
	// has already gone away.
	ErrSessionAbandoned = errors.New("session abandoned")
	// ErrQuestionSetNotFound indicates no questions exist for the tier.
	ErrQuestionSetNotFound = errors.New("question set not found")
)
