package store

import (
	"context"
	"fmt"

	"github.com/roach88/xfersynth/internal/catalog"
	"github.com/roach88/xfersynth/internal/ir"
)

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - a run written twice
// keeps its first record.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	params, err := marshalParams(run.Params)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	status := run.Status
	if status == "" {
		status = RunRunning
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, seed, chains, steps, program_hash, params, status, best_score, best_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		int64(run.Seed),
		run.Chains,
		run.Steps,
		run.ProgramHash,
		params,
		string(status),
		run.BestScore,
		run.BestHash,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// FinishRun records the final status and best result of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus, bestScore float64, bestHash string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, best_score = ?, best_hash = ?
		WHERE id = ?
	`, string(status), bestScore, bestHash, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// WriteFrequency stores the operator frequency export of a run. Counts of
// an operator already recorded for the run are replaced, so writing the
// same export twice is idempotent.
func (s *Store) WriteFrequency(ctx context.Context, runID string, freq catalog.Frequency) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write frequency: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, e := range freq.Entries() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO operator_frequency (run_id, bucket, op, count)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(run_id, bucket, op) DO UPDATE SET count = excluded.count
		`, runID, e.Bucket.String(), e.Op.String(), e.Count)
		if err != nil {
			return fmt.Errorf("write frequency %s/%s: %w", e.Bucket, e.Op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write frequency: commit: %w", err)
	}
	return nil
}

// WriteCandidate stores an accepted program of a run and reports whether
// a new record was inserted. A program whose hash is already recorded for
// the run is ignored.
func (s *Store) WriteCandidate(ctx context.Context, runID string, chain, step int, score float64, seq int64, f *ir.Function) (inserted bool, err error) {
	hash, err := ir.ProgramHash(f)
	if err != nil {
		return false, fmt.Errorf("write candidate: %w", err)
	}
	spec, err := MarshalProgram(f)
	if err != nil {
		return false, fmt.Errorf("write candidate: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO candidates
		(run_id, chain, step, hash, score, program, spec, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, hash) DO NOTHING
	`,
		runID,
		chain,
		step,
		hash,
		score,
		ir.Format(f),
		spec,
		seq,
	)
	if err != nil {
		return false, fmt.Errorf("write candidate: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write candidate: rows affected: %w", err)
	}
	return n > 0, nil
}

// WriteBanditDecision appends a bandit decision.
func (s *Store) WriteBanditDecision(ctx context.Context, d BanditDecision) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bandit_decisions (run_id, chain, step, arm, reward, seq)
		VALUES (?, ?, ?, ?, ?, ?)
	`, d.RunID, d.Chain, d.Step, d.Arm, d.Reward, d.Seq)
	if err != nil {
		return fmt.Errorf("write bandit decision: %w", err)
	}
	return nil
}
