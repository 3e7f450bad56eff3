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
	defaultProblemCacheTTL      = 30 * time.Minute
	defaultProblemCacheEmptyTTL = 5 * time.Minute
	problemCacheKeyPrefix       = "problem:"
)

// Problem visibility levels.
const (
	ProblemPublic  = 1
	ProblemPrivate = 2
	ProblemContest = 3
)

var ErrProblemNotFound = errors.New("problem not found")

// Problem is the judging view of a problem record: resource ceilings and
// the sample blobs self-test matches against.
type Problem struct {
	ProblemID   int64
	Title       string
	Author      string
	TimeLimit   int // ms
	MemoryLimit int // MiB
	InputDemo   string
	OutputDemo  string
	Auth        int
	CreatedAt   time.Time
}

// Samples parses the `|`-separated sample blobs into pairs. Entries are
// trimmed and blanks dropped; when the input and output lists differ in
// length the missing side is empty.
func (p *Problem) Samples() []model.Sample {
	inputs := splitDemo(p.InputDemo)
	outputs := splitDemo(p.OutputDemo)

	n := len(inputs)
	if len(outputs) > n {
		n = len(outputs)
	}
	samples := make([]model.Sample, 0, n)
	for i := 0; i < n; i++ {
		var sample model.Sample
		if i < len(inputs) {
			sample.Input = inputs[i]
		}
		if i < len(outputs) {
			sample.Output = outputs[i]
		}
		samples = append(samples, sample)
	}
	return samples
}

func splitDemo(demo string) []string {
	if demo == "" {
		return nil
	}
	parts := strings.Split(demo, "|")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// ProblemStat holds the per-problem aggregate counters.
type ProblemStat struct {
	ProblemID  int64
	Submission int64
	Accepted   int64
	WrongAns   int64
	TimeLimit  int64
	MemLimit   int64
	Runtime    int64
	Compile    int64
}

// ProblemRepository defines problem persistence interfaces.
type ProblemRepository interface {
	GetByID(ctx context.Context, problemID int64) (*Problem, error)
	GetStat(ctx context.Context, problemID int64) (*ProblemStat, error)

	// IncrementStats bumps the problem's submission counter plus the
	// counter matching the terminal status. SystemError has no dedicated
	// counter and bumps the submission total only. The increments are
	// atomic SET n = n + 1 updates so concurrent submissions to the same
	// problem cannot lose counts.
	IncrementStats(ctx context.Context, tx db.Transaction, problemID int64, status verdict.Status) error
}

// MySQLProblemRepository implements ProblemRepository with MySQL.
type MySQLProblemRepository struct {
	db       db.Database
	cache    cache.Cache
	ttl      time.Duration
	emptyTTL time.Duration
}

// NewProblemRepository creates a problem repository with default cache TTLs.
func NewProblemRepository(database db.Database, cacheClient cache.Cache) ProblemRepository {
	return &MySQLProblemRepository{
		db:       database,
		cache:    cacheClient,
		ttl:      defaultProblemCacheTTL,
		emptyTTL: defaultProblemCacheEmptyTTL,
	}
}

const problemColumns = "problem_id, title, author, time_limit, memory_limit, input_demo, output_demo, auth, create_time"

// GetByID retrieves a problem by id, read-through cached.
func (r *MySQLProblemRepository) GetByID(ctx context.Context, problemID int64) (*Problem, error) {
	if problemID <= 0 {
		return nil, errors.New("problemID is required")
	}
	if r.cache != nil {
		problem, err := cache.GetWithCached[*Problem](
			ctx,
			r.cache,
			problemCacheKey(problemID),
			cache.JitterTTL(r.ttl),
			cache.JitterTTL(r.emptyTTL),
			func(problem *Problem) bool { return problem == nil },
			marshalProblem,
			unmarshalProblem,
			func(ctx context.Context) (*Problem, error) {
				problem, err := r.getByIDFromDB(ctx, problemID)
				if err != nil {
					if errors.Is(err, ErrProblemNotFound) {
						return nil, nil
					}
					return nil, err
				}
				return problem, nil
			},
		)
		if err != nil {
			return nil, err
		}
		if problem == nil {
			return nil, ErrProblemNotFound
		}
		return problem, nil
	}
	return r.getByIDFromDB(ctx, problemID)
}

func (r *MySQLProblemRepository) getByIDFromDB(ctx context.Context, problemID int64) (*Problem, error) {
	query := "SELECT " + problemColumns + " FROM problem WHERE problem_id = ? LIMIT 1"
	row := r.db.QueryRow(ctx, query, problemID)
	problem := &Problem{}
	if err := row.Scan(
		&problem.ProblemID,
		&problem.Title,
		&problem.Author,
		&problem.TimeLimit,
		&problem.MemoryLimit,
		&problem.InputDemo,
		&problem.OutputDemo,
		&problem.Auth,
		&problem.CreatedAt,
	); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrProblemNotFound
		}
		return nil, err
	}
	return problem, nil
}

// GetStat retrieves a problem's aggregate counters. Not cached: counters
// move on every submission.
func (r *MySQLProblemRepository) GetStat(ctx context.Context, problemID int64) (*ProblemStat, error) {
	query := "SELECT problem_id, submission, ac, wa, tle, mle, re, ce FROM problem_data WHERE problem_id = ? LIMIT 1"
	row := r.db.QueryRow(ctx, query, problemID)
	stat := &ProblemStat{}
	if err := row.Scan(
		&stat.ProblemID,
		&stat.Submission,
		&stat.Accepted,
		&stat.WrongAns,
		&stat.TimeLimit,
		&stat.MemLimit,
		&stat.Runtime,
		&stat.Compile,
	); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrProblemNotFound
		}
		return nil, err
	}
	return stat, nil
}

var statColumns = map[verdict.Status]string{
	verdict.StatusAccepted:            "ac",
	verdict.StatusWrongAnswer:         "wa",
	verdict.StatusTimeLimitExceeded:   "tle",
	verdict.StatusMemoryLimitExceeded: "mle",
	verdict.StatusRuntimeError:        "re",
	verdict.StatusCompileError:        "ce",
}

// IncrementStats implements ProblemRepository.
func (r *MySQLProblemRepository) IncrementStats(ctx context.Context, tx db.Transaction, problemID int64, status verdict.Status) error {
	if problemID <= 0 {
		return errors.New("problemID is required")
	}
	query := "UPDATE problem_data SET submission = submission + 1"
	if column, ok := statColumns[status]; ok {
		query += fmt.Sprintf(", %s = %s + 1", column, column)
	}
	query += " WHERE problem_id = ?"
	result, err := db.GetQuerier(r.db, tx).Exec(ctx, query, problemID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProblemNotFound
	}
	return nil
}

func problemCacheKey(problemID int64) string {
	return fmt.Sprintf("%s%d", problemCacheKeyPrefix, problemID)
}

func marshalProblem(problem *Problem) string {
	if problem == nil {
		return ""
	}
	data, err := json.Marshal(problem)
	if err != nil {
		return ""
	}
	return string(data)
}

func unmarshalProblem(data string) (*Problem, error) {
	if data == "" || data == cache.NullCacheValue {
		return nil, nil
	}
	var problem Problem
	if err := json.Unmarshal([]byte(data), &problem); err != nil {
		return nil, err
	}
	return &problem, nil
}
