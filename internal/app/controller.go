package app

import (
	"context"
	"fmt"
	"log"
	"sync"

	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/quiz"
)

// QuestionSource fetches the ordered question list for a difficulty tier
// (from cache/backing store or a remote API).
type QuestionSource interface {
	Fetch(ctx context.Context, tier domain.Tier) ([]domain.Question, error)
}

// SnapshotStore is the single persisted slot holding at most one session
// snapshot for a client.
type SnapshotStore interface {
	Get(ctx context.Context) (domain.Snapshot, bool, error)
	Put(ctx context.Context, snap domain.Snapshot) error
	Clear(ctx context.Context) error
}

// ProfileStore reads and updates a user's cumulative quiz stats.
// All calls are best-effort from the controller's perspective.
type ProfileStore interface {
	ReadStats(ctx context.Context, userID string) (domain.ProfileStats, error)
	ApplyIncrement(ctx context.Context, userID string, inc domain.StatsIncrement) error
}

// Controller orchestrates one client's quiz session: it decides between
// resuming a persisted session and fetching a fresh one, mirrors every
// transition into the snapshot store, and hands the outcome to the
// profile store on completion.
type Controller struct {
	source   QuestionSource
	store    SnapshotStore
	profiles ProfileStore
	userID   string // empty means anonymous: profile aggregation is skipped

	mu      sync.Mutex
	session *quiz.Session
	closed  bool
}

func NewController(source QuestionSource, store SnapshotStore, profiles ProfileStore, userID string) *Controller {
	return &Controller{
		source:   source,
		store:    store,
		profiles: profiles,
		userID:   userID,
	}
}

// Start resolves the active session for the requested tier: a persisted
// snapshot with a matching tier is resumed, anything else (absent, wrong
// tier, malformed) falls through to a fresh fetch. A fetch failure is
// surfaced as-is and leaves no partial session behind.
func (c *Controller) Start(ctx context.Context, tier domain.Tier) (resumed bool, err error) {
	snap, ok, err := c.store.Get(ctx)
	if err != nil {
		// Degraded resume is acceptable; continue as if no snapshot existed.
		log.Printf("read snapshot: %v", err)
		ok = false
	}
	if ok {
		if session, rerr := quiz.Recover(snap, tier); rerr == nil {
			c.install(session)
			return true, nil
		}
		if cerr := c.store.Clear(ctx); cerr != nil {
			log.Printf("clear stale snapshot: %v", cerr)
		}
	}

	questions, err := c.source.Fetch(ctx, tier)
	if err != nil {
		return false, fmt.Errorf("fetch questions: %w", err)
	}
	// The client may have gone away while the fetch was in flight; never
	// install a session nobody is driving.
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	session, err := quiz.New(tier, questions)
	if err != nil {
		return false, err
	}
	if !c.install(session) {
		return false, domain.ErrSessionAbandoned
	}
	c.persist(ctx, session)
	return false, nil
}

func (c *Controller) install(session *quiz.Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.session = session
	return true
}

// Answer records the selected option for the current question and persists
// the updated snapshot. An already-answered question makes this a no-op
// (Applied=false) without touching score or answer.
func (c *Controller) Answer(ctx context.Context, selected int) (domain.AnswerFeedback, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return domain.AnswerFeedback{}, domain.ErrNoActiveSession
	}
	correct, applied := c.session.Answer(selected)
	if applied {
		c.persist(ctx, c.session)
	}
	return domain.AnswerFeedback{Correct: correct, Applied: applied, Score: c.session.Score()}, nil
}

// Advance moves to the next question, or runs the completion sequence when
// the last answered question is advanced past. The returned result is
// non-nil exactly once, on the call that completed the session; a repeat
// call is a no-op and never re-runs the completion sequence.
func (c *Controller) Advance(ctx context.Context) (*domain.SessionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, domain.ErrNoActiveSession
	}
	justCompleted, err := c.session.Advance()
	if err != nil {
		return nil, err
	}
	if !justCompleted {
		if !c.session.Completed() {
			c.persist(ctx, c.session)
		}
		return nil, nil
	}
	result := c.session.Result()
	c.completeLocked(ctx, result)
	return &result, nil
}

// completeLocked runs the completion sequence: profile aggregation when a
// user is signed in, then unconditionally clearing the persisted snapshot.
// Every step is best-effort; failures are logged and never block the
// result from reaching the caller.
func (c *Controller) completeLocked(ctx context.Context, result domain.SessionResult) {
	if c.userID != "" && c.profiles != nil && !c.closed {
		stats, err := c.profiles.ReadStats(ctx, c.userID)
		if err != nil {
			log.Printf("read profile stats for %s: %v", c.userID, err)
		} else {
			games := stats.TotalGames + 1
			total := stats.TotalScore + result.Score
			inc := domain.StatsIncrement{
				GamesDelta: 1,
				ScoreDelta: result.Score,
				NewAverage: float64(total) / float64(games),
			}
			if err := c.profiles.ApplyIncrement(ctx, c.userID, inc); err != nil {
				log.Printf("update profile stats for %s: %v", c.userID, err)
			}
		}
	}
	if err := c.store.Clear(ctx); err != nil {
		log.Printf("clear snapshot: %v", err)
	}
}

// Current returns the active question along with the cursor position and
// total count for presentation.
func (c *Controller) Current() (domain.AnsweredQuestion, int, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return domain.AnsweredQuestion{}, 0, 0, domain.ErrNoActiveSession
	}
	if c.session.Completed() {
		return domain.AnsweredQuestion{}, 0, 0, domain.ErrNoActiveSession
	}
	current, total := c.session.Progress()
	return c.session.Current(), current, total, nil
}

// Score returns the running score of the active session.
func (c *Controller) Score() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0, domain.ErrNoActiveSession
	}
	return c.session.Score(), nil
}

// Abandon marks the controller closed. An in-flight Start resolving after
// this refuses to install its session, and late completions skip the
// profile write.
func (c *Controller) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.session = nil
}

// persist writes the full snapshot for the session. Persistence failures
// degrade resume-on-reload but never interrupt the session itself.
func (c *Controller) persist(ctx context.Context, session *quiz.Session) {
	if err := c.store.Put(ctx, session.Snapshot()); err != nil {
		log.Printf("persist snapshot: %v", err)
	}
}
