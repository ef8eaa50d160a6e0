package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRepo stores per-(user, profile) upload timestamps for the rate
// limiter. The list is append-only; windowing happens at read time.
type StatsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

// AppendUsage records one successful upload as a single atomic
// append-or-create, never a read-then-write.
func (r *StatsRepo) AppendUsage(ctx context.Context, userID, profile string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO upload_stats (user_id, profile, upload_times)
		VALUES ($1, $2, ARRAY[now()])
		ON CONFLICT (user_id, profile)
		DO UPDATE SET upload_times = upload_stats.upload_times || now()`,
		userID, profile)
	return err
}

// GetTimestamps returns all recorded upload times for (user, profile). A
// missing record means zero uploads.
func (r *StatsRepo) GetTimestamps(ctx context.Context, userID, profile string) ([]time.Time, error) {
	var times []time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT upload_times FROM upload_stats
		WHERE user_id = $1 AND profile = $2`,
		userID, profile).Scan(&times)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return times, nil
}
