package postgres

import (
	"context"
	"errors"
	"fmt"

	"quiz-session-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ProfileStore keeps cumulative per-user quiz stats in Postgres.
type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

// ReadStats returns the user's cumulative stats; a user without a row
// reads as zeroed stats, not an error.
func (s *ProfileStore) ReadStats(ctx context.Context, userID string) (domain.ProfileStats, error) {
	var stats domain.ProfileStats
	err := s.pool.QueryRow(ctx,
		`SELECT total_games, total_score, average_score FROM user_profiles WHERE user_id=$1`,
		userID,
	).Scan(&stats.TotalGames, &stats.TotalScore, &stats.AverageScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ProfileStats{}, nil
	}
	if err != nil {
		return domain.ProfileStats{}, fmt.Errorf("read profile stats: %w", err)
	}
	return stats, nil
}

// ApplyIncrement bumps the counters in a single upsert so concurrent
// completions cannot lose an increment.
func (s *ProfileStore) ApplyIncrement(ctx context.Context, userID string, inc domain.StatsIncrement) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_profiles (user_id, total_games, total_score, average_score)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET
		   total_games = user_profiles.total_games + EXCLUDED.total_games,
		   total_score = user_profiles.total_score + EXCLUDED.total_score,
		   average_score = EXCLUDED.average_score`,
		userID, inc.GamesDelta, inc.ScoreDelta, inc.NewAverage,
	)
	if err != nil {
		return fmt.Errorf("apply profile increment: %w", err)
	}
	return nil
}
