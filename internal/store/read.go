package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/xfersynth/internal/catalog"
	"github.com/roach88/xfersynth/internal/ir"
)

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run    Run
		seed   int64
		params string
		status string
	)
	if err := row.Scan(&run.ID, &seed, &run.Chains, &run.Steps, &run.ProgramHash, &params, &status, &run.BestScore, &run.BestHash); err != nil {
		return Run{}, err
	}
	p, err := unmarshalParams(params)
	if err != nil {
		return Run{}, err
	}
	run.Seed = uint64(seed)
	run.Params = p
	run.Status = RunStatus(status)
	return run, nil
}

// ReadRun retrieves a run by id.
// Returns ErrRunNotFound if there is no such run.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seed, chains, steps, program_hash, params, status, best_score, best_hash
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	return run, nil
}

// ListRuns returns all runs ordered by id.
// Run ids are UUIDv7, so this is creation order.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seed, chains, steps, program_hash, params, status, best_score, best_hash
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (s *Store) readFrequency(ctx context.Context, query string, args ...any) (catalog.Frequency, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query frequency: %w", err)
	}
	defer rows.Close()

	freq := catalog.NewFrequency()
	for rows.Next() {
		var bucket, op string
		var count int
		if err := rows.Scan(&bucket, &op, &count); err != nil {
			return nil, fmt.Errorf("scan frequency: %w", err)
		}
		kind, ok := ir.ParseValueKind(bucket)
		if !ok {
			return nil, fmt.Errorf("frequency row has unknown bucket %q", bucket)
		}
		k, ok := ir.ParseOpKind(op)
		if !ok {
			return nil, fmt.Errorf("frequency row has unknown operator %q", op)
		}
		freq.Add(kind, k, count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frequency: %w", err)
	}
	return freq, nil
}

// ReadFrequency returns the operator frequency export of a run.
func (s *Store) ReadFrequency(ctx context.Context, runID string) (catalog.Frequency, error) {
	return s.readFrequency(ctx, `
		SELECT bucket, op, count
		FROM operator_frequency
		WHERE run_id = ?
		ORDER BY bucket, op
	`, runID)
}

// AggregateFrequency sums the operator frequency exports of every run.
func (s *Store) AggregateFrequency(ctx context.Context) (catalog.Frequency, error) {
	return s.readFrequency(ctx, `
		SELECT bucket, op, SUM(count)
		FROM operator_frequency
		GROUP BY bucket, op
		ORDER BY bucket, op
	`)
}

const candidateColumns = `id, run_id, chain, step, hash, score, program, spec, seq`

func scanCandidate(row scanner) (Candidate, error) {
	var c Candidate
	err := row.Scan(&c.ID, &c.RunID, &c.Chain, &c.Step, &c.Hash, &c.Score, &c.Program, &c.Spec, &c.Seq)
	return c, err
}

// ReadCandidates returns the candidates of a run.
// Results are ordered by seq ASC, id ASC. Returns an empty slice (not nil)
// if the run has none.
func (s *Store) ReadCandidates(ctx context.Context, runID string) ([]Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+candidateColumns+`
		FROM candidates
		WHERE run_id = ?
		ORDER BY seq ASC, id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	out := []Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}

// BestCandidate returns the highest-scoring candidate of a run, the
// earliest one on ties. Returns sql.ErrNoRows if the run has none.
func (s *Store) BestCandidate(ctx context.Context, runID string) (Candidate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+candidateColumns+`
		FROM candidates
		WHERE run_id = ?
		ORDER BY score DESC, seq ASC, id ASC
		LIMIT 1
	`, runID)
	return scanCandidate(row)
}

// ReadBanditDecisions returns the bandit decisions of a run ordered by
// seq ASC, id ASC.
func (s *Store) ReadBanditDecisions(ctx context.Context, runID string) ([]BanditDecision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, chain, step, arm, reward, seq
		FROM bandit_decisions
		WHERE run_id = ?
		ORDER BY seq ASC, id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query bandit decisions: %w", err)
	}
	defer rows.Close()

	out := []BanditDecision{}
	for rows.Next() {
		var d BanditDecision
		if err := rows.Scan(&d.ID, &d.RunID, &d.Chain, &d.Step, &d.Arm, &d.Reward, &d.Seq); err != nil {
			return nil, fmt.Errorf("scan bandit decision: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bandit decisions: %w", err)
	}
	return out, nil
}
