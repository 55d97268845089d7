package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const runColumns = "id, command, source_path, output_dir, target_lang, status, stage, error, log_path, started_at, updated_at, finished_at"

// BeginRun inserts run with status running. ID, Command and SourcePath are
// required; StartedAt defaults to now.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("journal: run id required")
	}
	if strings.TrimSpace(run.Command) == "" || strings.TrimSpace(run.SourcePath) == "" {
		return errors.New("journal: run command and source path required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	started := formatTime(run.StartedAt)
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, command, source_path, output_dir, target_lang, status, stage, log_path, started_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.SourcePath, run.OutputDir, nullString(run.TargetLang),
		string(StatusRunning), nullString(run.Stage), nullString(run.LogPath), started, started,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// SetStage records the stage a running run has entered.
func (s *Store) SetStage(ctx context.Context, runID, stage string) error {
	res, err := s.execWithRetry(ctx,
		"UPDATE runs SET stage = ?, updated_at = ? WHERE id = ?",
		stage, formatTime(time.Now()), runID,
	)
	if err != nil {
		return fmt.Errorf("update run stage: %w", err)
	}
	return expectOne(res, runID)
}

// FinishRun closes a run. A nil runErr marks it succeeded; otherwise the
// status comes from StatusForError and the message is stored.
func (s *Store) FinishRun(ctx context.Context, runID string, runErr error) error {
	status := StatusForError(runErr)
	message := ""
	if runErr != nil {
		message = runErr.Error()
	}
	now := formatTime(time.Now())
	res, err := s.execWithRetry(ctx,
		"UPDATE runs SET status = ?, error = ?, updated_at = ?, finished_at = ? WHERE id = ?",
		string(status), nullString(message), now, now, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return expectOne(res, runID)
}

// AddArtifact records a file written by runID.
func (s *Store) AddArtifact(ctx context.Context, a Artifact) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO artifacts (run_id, path, kind, language, format, bytes, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.RunID, a.Path, a.Kind, nullString(a.Language), nullString(a.Format), a.Bytes, formatTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

// GetRun returns the run with id, or nil when absent. A unique prefix of at
// least eight characters also matches.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if len(id) < 8 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id LIKE ? ESCAPE '\\' LIMIT 2", escapeLike(id)+"%")
	if err != nil {
		return nil, fmt.Errorf("get run by prefix: %w", err)
	}
	defer rows.Close()
	matches, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

// ListRuns returns the most recent runs first. limit <= 0 means 50.
func (s *Store) ListRuns(ctx context.Context, limit int, statuses ...Status) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT " + runColumns + " FROM runs"
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, st := range statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY started_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// Artifacts lists the files recorded for runID in insertion order.
func (s *Store) Artifacts(ctx context.Context, runID string) ([]Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, path, kind, language, format, bytes, created_at FROM artifacts WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var (
			a       Artifact
			lang    sql.NullString
			format  sql.NullString
			created sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.RunID, &a.Path, &a.Kind, &lang, &format, &a.Bytes, &created); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		a.Language = lang.String
		a.Format = format.String
		a.CreatedAt = parseTime(created)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Stats counts runs per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM runs GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()
	stats := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}

// MarkAbandoned fails runs still marked running that started before cutoff.
// These are left behind when a process is killed.
func (s *Store) MarkAbandoned(ctx context.Context, cutoff time.Time) (int64, error) {
	now := formatTime(time.Now())
	res, err := s.execWithRetry(ctx,
		"UPDATE runs SET status = ?, error = ?, updated_at = ?, finished_at = ? WHERE status = ? AND started_at < ?",
		string(StatusFailed), "run abandoned (process exited before finishing)", now, now, string(StatusRunning), formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned runs: %w", err)
	}
	return res.RowsAffected()
}

func expectOne(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("journal: run %s not found", runID)
	}
	return nil
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(value)
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run        Run
		targetLang sql.NullString
		status     string
		stage      sql.NullString
		errMsg     sql.NullString
		logPath    sql.NullString
		started    sql.NullString
		updated    sql.NullString
		finished   sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Command,
		&run.SourcePath,
		&run.OutputDir,
		&targetLang,
		&status,
		&stage,
		&errMsg,
		&logPath,
		&started,
		&updated,
		&finished,
	); err != nil {
		return nil, err
	}
	run.TargetLang = targetLang.String
	run.Status = Status(status)
	run.Stage = stage.String
	run.Error = errMsg.String
	run.LogPath = logPath.String
	run.StartedAt = parseTime(started)
	run.UpdatedAt = parseTime(updated)
	run.FinishedAt = parseTime(finished)
	return &run, nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}
