// ./internal/state/run_store.go
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hubdex-protocol/solvercore/internal/types"
)

// SolveRun is the persisted record of one Solve call: the inputs, the outcome
// and basic timing. Inputs and the full solution are stored as JSONB so past
// batches can be replayed against the deterministic solver.
type SolveRun struct {
	RunID            uuid.UUID            `json:"run_id"`
	Timestamp        time.Time            `json:"timestamp"`
	IntentCount      int                  `json:"intent_count"`
	ResolvedCount    int                  `json:"resolved_count"`
	InstructionCount int                  `json:"instruction_count"`
	Score            uint64               `json:"score"`
	DurationMs       int64                `json:"duration_ms"`
	Success          bool                 `json:"success"`
	Message          string               `json:"message,omitempty"`
	Intents          []types.IntentWithID `json:"intents,omitempty"`
	Snapshot         *types.PoolSnapshot  `json:"snapshot,omitempty"`
	Solution         *types.Solution      `json:"solution,omitempty"`
}

// SaveSolveRun persists one solve run record.
func SaveSolveRun(run SolveRun) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	intentsJSON, err := json.Marshal(run.Intents)
	if err != nil {
		return fmt.Errorf("failed to marshal intents: %w", err)
	}
	snapshotJSON, err := json.Marshal(run.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	solutionJSON, err := json.Marshal(run.Solution)
	if err != nil {
		return fmt.Errorf("failed to marshal solution: %w", err)
	}

	stmt := `
        INSERT INTO solve_runs (
            run_id, run_timestamp, intent_count, resolved_count, instruction_count,
            score, duration_ms, success, message, intents, snapshot, solution
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`

	_, err = DB.Exec(stmt,
		run.RunID, run.Timestamp, run.IntentCount, run.ResolvedCount, run.InstructionCount,
		int64(run.Score), run.DurationMs, run.Success, run.Message,
		intentsJSON, snapshotJSON, solutionJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert solve run: %w", err)
	}

	log.Info().
		Str("run_id", run.RunID.String()).
		Int("intents", run.IntentCount).
		Uint64("score", run.Score).
		Bool("success", run.Success).
		Msg("Saved solve run")
	return nil
}

// GetRecentSolveRuns retrieves recent solve runs, newest first. The stored
// JSONB payloads are included.
func GetRecentSolveRuns(limit int) ([]SolveRun, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	if limit <= 0 || limit > 100 {
		limit = 10 // Default limit
	}

	query := `
        SELECT run_id, run_timestamp, intent_count, resolved_count, instruction_count,
               score, duration_ms, success, message, intents, snapshot, solution
        FROM solve_runs
        ORDER BY run_timestamp DESC
        LIMIT $1;`

	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query solve runs: %w", err)
	}
	defer rows.Close()

	var runs []SolveRun
	for rows.Next() {
		run, err := scanSolveRun(rows.Scan)
		if err != nil {
			log.Error().Err(err).Msg("Failed to scan solve run row")
			continue
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during solve run iteration: %w", err)
	}
	return runs, nil
}

// GetSolveRun retrieves one solve run by ID.
func GetSolveRun(runID uuid.UUID) (*SolveRun, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
        SELECT run_id, run_timestamp, intent_count, resolved_count, instruction_count,
               score, duration_ms, success, message, intents, snapshot, solution
        FROM solve_runs
        WHERE run_id = $1;`

	row := DB.QueryRow(query, runID)
	run, err := scanSolveRun(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("solve run %s not found", runID)
		}
		return nil, fmt.Errorf("failed to scan solve run %s: %w", runID, err)
	}
	return &run, nil
}

func scanSolveRun(scan func(dest ...any) error) (SolveRun, error) {
	var run SolveRun
	var score int64
	var message sql.NullString
	var intentsJSON, snapshotJSON, solutionJSON []byte

	err := scan(
		&run.RunID, &run.Timestamp, &run.IntentCount, &run.ResolvedCount, &run.InstructionCount,
		&score, &run.DurationMs, &run.Success, &message,
		&intentsJSON, &snapshotJSON, &solutionJSON,
	)
	if err != nil {
		return SolveRun{}, err
	}
	run.Score = uint64(score)
	run.Message = message.String

	if len(intentsJSON) > 0 {
		if err := json.Unmarshal(intentsJSON, &run.Intents); err != nil {
			return SolveRun{}, fmt.Errorf("failed to unmarshal intents: %w", err)
		}
	}
	if len(snapshotJSON) > 0 {
		if err := json.Unmarshal(snapshotJSON, &run.Snapshot); err != nil {
			return SolveRun{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
	}
	if len(solutionJSON) > 0 {
		if err := json.Unmarshal(solutionJSON, &run.Solution); err != nil {
			return SolveRun{}, fmt.Errorf("failed to unmarshal solution: %w", err)
		}
	}
	return run, nil
}
