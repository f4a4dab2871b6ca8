package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	p := &Postgres{db: db}
	if err := p.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS solver_runs (
		id uuid PRIMARY KEY,
		instance text NOT NULL,
		seed bigint NOT NULL,
		cost double precision NOT NULL,
		distance double precision NOT NULL,
		avg_load_rate double precision NOT NULL,
		vehicles int NOT NULL,
		iterations int NOT NULL,
		duration_sec double precision NOT NULL,
		metrics jsonb,
		created_at timestamptz NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS solver_runs_instance_idx ON solver_runs (instance, cost)`)
	return err
}

func (p *Postgres) SaveRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO solver_runs (id, instance, seed, cost, distance, avg_load_rate, vehicles, iterations, duration_sec, metrics, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		run.ID, run.Instance, run.Seed, run.Cost, run.Distance, run.AvgLoadRate, run.Vehicles, run.Iterations, run.DurationSec, toJSON(run.Metrics), run.CreatedAt)
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

func (p *Postgres) GetRun(ctx context.Context, id string) (Run, error) {
	row := p.db.QueryRowContext(ctx, `SELECT id::text, instance, seed, cost, distance, avg_load_rate, vehicles, iterations, duration_sec, metrics, created_at
		FROM solver_runs WHERE id=$1`, id)
	return scanRun(row)
}

func (p *Postgres) ListRuns(ctx context.Context, instance string, limit int) ([]Run, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if instance != "" {
		rows, err = p.db.QueryContext(ctx, `SELECT id::text, instance, seed, cost, distance, avg_load_rate, vehicles, iterations, duration_sec, metrics, created_at
			FROM solver_runs WHERE instance=$1 ORDER BY created_at DESC, id LIMIT $2`, instance, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `SELECT id::text, instance, seed, cost, distance, avg_load_rate, vehicles, iterations, duration_sec, metrics, created_at
			FROM solver_runs ORDER BY created_at DESC, id LIMIT $1`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (p *Postgres) BestRun(ctx context.Context, instance string) (Run, error) {
	row := p.db.QueryRowContext(ctx, `SELECT id::text, instance, seed, cost, distance, avg_load_rate, vehicles, iterations, duration_sec, metrics, created_at
		FROM solver_runs WHERE instance=$1 ORDER BY cost, created_at LIMIT 1`, instance)
	return scanRun(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var metrics []byte
	err := row.Scan(&run.ID, &run.Instance, &run.Seed, &run.Cost, &run.Distance, &run.AvgLoadRate,
		&run.Vehicles, &run.Iterations, &run.DurationSec, &metrics, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, err
	}
	if len(metrics) > 0 {
		_ = json.Unmarshal(metrics, &run.Metrics)
	}
	return run, nil
}

func toJSON(v map[string]any) []byte {
	if v == nil {
		return nil
	}
	b, _ := json.Marshal(v)
	return b
}
