// Package repository implements MySQL persistence for problems,
// submissions and user counters.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"huebre/internal/common/cache"
	"huebre/internal/common/db"
	"huebre/internal/judge/model"
	"huebre/internal/judge/verdict"
)

const (
	defaultSubmissionCacheTTL      = 10 * time.Minute
	defaultSubmissionCacheEmptyTTL = time.Minute
	submissionCacheKeyPrefix       = "submission:"

	maxListLimit     = 100
	defaultListLimit = 20
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrAlreadyFinalized means the guarded status update matched no row:
	// either the submission does not exist or it already left Judging.
	ErrAlreadyFinalized = errors.New("submission already finalized")
)

// Submission is one judging record. Result is the raw per-test-case
// detail persisted as JSON alongside the summary columns.
type Submission struct {
	SubmissionID int64                  `json:"submission_id"`
	ProblemID    int64                  `json:"problem_id"`
	UserID       int64                  `json:"user_id"`
	Language     string                 `json:"language"`
	SourceCode   string                 `json:"source_code"`
	Status       verdict.Status         `json:"status"`
	Result       model.SubmissionResult `json:"result"`
	CPUTime      int                    `json:"cpu_time"`
	Memory       int64                  `json:"memory"`
	CodeLength   int                    `json:"code_length"`
	CreatedAt    time.Time              `json:"created_at"`
}

// ListQuery filters and pages a submission listing. Zero-valued filters
// are ignored.
type ListQuery struct {
	ProblemID int64
	UserID    int64
	Limit     int
	Offset    int
}

// SubmissionRepository defines submission persistence interfaces.
type SubmissionRepository interface {
	// Create inserts a new submission and fills in its SubmissionID.
	Create(ctx context.Context, tx db.Transaction, submission *Submission) error

	// Finalize moves a Judging submission to its terminal status and
	// records the result detail. The update is guarded on the current
	// status so a submission can be finalized at most once; a second
	// attempt returns ErrAlreadyFinalized.
	Finalize(ctx context.Context, tx db.Transaction, submissionID int64, status verdict.Status, result model.SubmissionResult, cpuTime int, memory int64) error

	GetByID(ctx context.Context, submissionID int64) (*Submission, error)
	List(ctx context.Context, query ListQuery) ([]*Submission, int64, error)
}

// MySQLSubmissionRepository implements SubmissionRepository with MySQL.
type MySQLSubmissionRepository struct {
	db       db.Database
	cache    cache.Cache
	ttl      time.Duration
	emptyTTL time.Duration
}

// NewSubmissionRepository creates a submission repository with default
// cache TTLs.
func NewSubmissionRepository(database db.Database, cacheClient cache.Cache) SubmissionRepository {
	return &MySQLSubmissionRepository{
		db:       database,
		cache:    cacheClient,
		ttl:      defaultSubmissionCacheTTL,
		emptyTTL: defaultSubmissionCacheEmptyTTL,
	}
}

// Create implements SubmissionRepository.
func (r *MySQLSubmissionRepository) Create(ctx context.Context, tx db.Transaction, submission *Submission) error {
	if submission == nil {
		return errors.New("submission is required")
	}
	if submission.ProblemID <= 0 {
		return errors.New("problemID is required")
	}
	if submission.Status == "" {
		submission.Status = verdict.StatusJudging
	}
	resultJSON, err := json.Marshal(submission.Result)
	if err != nil {
		return err
	}

	query := `INSERT INTO submission
		(problem_id, user_id, language, source_code, status, result, cpu_time, memory, code_length, create_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())`
	execResult, err := db.GetQuerier(r.db, tx).Exec(ctx, query,
		submission.ProblemID,
		submission.UserID,
		submission.Language,
		submission.SourceCode,
		string(submission.Status),
		string(resultJSON),
		submission.CPUTime,
		submission.Memory,
		submission.CodeLength,
	)
	if err != nil {
		return err
	}
	id, err := execResult.LastInsertId()
	if err != nil {
		return err
	}
	submission.SubmissionID = id
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = time.Now()
	}
	return nil
}

// Finalize implements SubmissionRepository.
func (r *MySQLSubmissionRepository) Finalize(ctx context.Context, tx db.Transaction, submissionID int64, status verdict.Status, result model.SubmissionResult, cpuTime int, memory int64) error {
	if submissionID <= 0 {
		return errors.New("submissionID is required")
	}
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return err
	}

	query := `UPDATE submission
		SET status = ?, result = ?, cpu_time = ?, memory = ?
		WHERE submission_id = ? AND status = ?`
	execResult, err := db.GetQuerier(r.db, tx).Exec(ctx, query,
		string(status), string(resultJSON), cpuTime, memory,
		submissionID, string(verdict.StatusJudging),
	)
	if err != nil {
		return err
	}
	affected, err := execResult.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyFinalized
	}
	if r.cache != nil {
		// Best effort; a stale Judging entry expires on its own TTL.
		_ = r.cache.Del(ctx, submissionCacheKey(submissionID))
	}
	return nil
}

const submissionColumns = "submission_id, problem_id, user_id, language, source_code, status, result, cpu_time, memory, code_length, create_time"

// GetByID retrieves a submission by id, read-through cached. Submissions
// still in Judging are not cached so pollers see the terminal status as
// soon as it lands.
func (r *MySQLSubmissionRepository) GetByID(ctx context.Context, submissionID int64) (*Submission, error) {
	if submissionID <= 0 {
		return nil, errors.New("submissionID is required")
	}
	if r.cache != nil {
		submission, err := cache.GetWithCached[*Submission](
			ctx,
			r.cache,
			submissionCacheKey(submissionID),
			cache.JitterTTL(r.ttl),
			cache.JitterTTL(r.emptyTTL),
			func(submission *Submission) bool { return submission == nil },
			marshalSubmission,
			unmarshalSubmission,
			func(ctx context.Context) (*Submission, error) {
				submission, err := r.getByIDFromDB(ctx, submissionID)
				if err != nil {
					if errors.Is(err, ErrSubmissionNotFound) {
						return nil, nil
					}
					return nil, err
				}
				return submission, nil
			},
		)
		if err != nil {
			return nil, err
		}
		if submission == nil {
			return nil, ErrSubmissionNotFound
		}
		return submission, nil
	}
	return r.getByIDFromDB(ctx, submissionID)
}

func (r *MySQLSubmissionRepository) getByIDFromDB(ctx context.Context, submissionID int64) (*Submission, error) {
	query := "SELECT " + submissionColumns + " FROM submission WHERE submission_id = ? LIMIT 1"
	row := r.db.QueryRow(ctx, query, submissionID)
	submission, err := scanSubmission(row)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return submission, nil
}

// List returns submissions newest first, plus the total count matching
// the filters. Limit is capped at 100.
func (r *MySQLSubmissionRepository) List(ctx context.Context, query ListQuery) ([]*Submission, int64, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	var conditions []string
	var args []interface{}
	if query.ProblemID > 0 {
		conditions = append(conditions, "problem_id = ?")
		args = append(args, query.ProblemID)
	}
	if query.UserID > 0 {
		conditions = append(conditions, "user_id = ?")
		args = append(args, query.UserID)
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM submission" + where
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := "SELECT " + submissionColumns + " FROM submission" + where +
		" ORDER BY submission_id DESC LIMIT ? OFFSET ?"
	listArgs := append(append([]interface{}{}, args...), limit, offset)
	rows, err := r.db.Query(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var submissions []*Submission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, err
		}
		submissions = append(submissions, submission)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return submissions, total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (*Submission, error) {
	submission := &Submission{}
	var status, resultJSON string
	if err := row.Scan(
		&submission.SubmissionID,
		&submission.ProblemID,
		&submission.UserID,
		&submission.Language,
		&submission.SourceCode,
		&status,
		&resultJSON,
		&submission.CPUTime,
		&submission.Memory,
		&submission.CodeLength,
		&submission.CreatedAt,
	); err != nil {
		return nil, err
	}
	submission.Status = verdict.Status(status)
	if resultJSON != "" {
		if err := json.Unmarshal([]byte(resultJSON), &submission.Result); err != nil {
			return nil, fmt.Errorf("decode submission result: %w", err)
		}
	}
	return submission, nil
}

func submissionCacheKey(submissionID int64) string {
	return fmt.Sprintf("%s%d", submissionCacheKeyPrefix, submissionID)
}

func marshalSubmission(submission *Submission) string {
	if submission == nil {
		return ""
	}
	data, err := json.Marshal(submission)
	if err != nil {
		return ""
	}
	return string(data)
}

func unmarshalSubmission(data string) (*Submission, error) {
	if data == "" || data == cache.NullCacheValue {
		return nil, nil
	}
	var submission Submission
	if err := json.Unmarshal([]byte(data), &submission); err != nil {
		return nil, err
	}
	return &submission, nil
}
