// Package service orchestrates the judging pipeline: validation, the
// judge-server call, verdict aggregation and finalization.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"huebre/internal/common/cache"
	"huebre/internal/common/db"
	"huebre/internal/judge/engine"
	"huebre/internal/judge/lang"
	"huebre/internal/judge/model"
	"huebre/internal/judge/repository"
	"huebre/internal/judge/verdict"
	appErr "huebre/pkg/errors"
	"huebre/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	rateUserKeyPrefix   = "submit:rate:user:"
	defaultMaxCodeBytes = 64 * 1024
)

// Judger dispatches one run to the judge server.
type Judger interface {
	Judge(ctx context.Context, req engine.Request) ([]model.TestResult, error)
}

// TestCaseLoader fetches a problem's test cases.
type TestCaseLoader interface {
	Load(ctx context.Context, problemID int64) []model.TestCase
}

// RateLimitConfig holds per-user submit throttling settings. Zero values
// disable throttling.
type RateLimitConfig struct {
	UserMax int           `yaml:"userMax"`
	Window  time.Duration `yaml:"window"`
}

// Config holds submit service dependencies and settings.
type Config struct {
	DB             db.Database
	Cache          cache.Cache
	SubmissionRepo repository.SubmissionRepository
	ProblemRepo    repository.ProblemRepository
	UserRepo       repository.UserRepository
	Loader         TestCaseLoader
	Judger         Judger

	MaxCodeBytes int
	RateLimit    RateLimitConfig
}

// SubmitService handles submission intake, judging and finalization.
type SubmitService struct {
	db             db.Database
	cache          cache.Cache
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	userRepo       repository.UserRepository
	loader         TestCaseLoader
	judger         Judger

	maxCodeBytes int
	rateLimit    RateLimitConfig
}

// SubmitInput describes a full submission request.
type SubmitInput struct {
	ProblemID  int64
	UserID     int64
	Language   string
	SourceCode string
}

// SubmitResult is the synchronous answer to a submission: the judging
// has already completed when it is returned.
type SubmitResult struct {
	SubmissionID int64          `json:"submission_id"`
	Status       verdict.Status `json:"status"`
	StatusText   string         `json:"status_text"`
	CPUTime      int            `json:"cpu_time"`
	Memory       int64          `json:"memory"`
	CodeLength   int            `json:"code_length"`
}

// SelfTestInput describes a run-against-my-input request.
type SelfTestInput struct {
	ProblemID  int64
	UserID     int64
	Language   string
	SourceCode string
	TestInput  string
}

// SelfTestResult carries the single run's outcome: the captured stdout,
// the result code, and the judge server's raw per-case record. Result
// codes follow the judge server's convention; -2 means the run itself
// could not be performed and Output holds the reason.
type SelfTestResult struct {
	Output        string           `json:"output"`
	Result        int              `json:"result"`
	RawResult     model.TestResult `json:"raw_result"`
	MatchedSample bool             `json:"matched_sample"`
}

func selfTestOutcome(res model.TestResult, matched bool) SelfTestResult {
	return SelfTestResult{
		Output:        res.Output,
		Result:        res.Result,
		RawResult:     res,
		MatchedSample: matched,
	}
}

// NewSubmitService creates a new submit service.
func NewSubmitService(cfg Config) (*SubmitService, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if cfg.SubmissionRepo == nil {
		return nil, fmt.Errorf("submission repository is required")
	}
	if cfg.ProblemRepo == nil {
		return nil, fmt.Errorf("problem repository is required")
	}
	if cfg.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if cfg.Loader == nil {
		return nil, fmt.Errorf("test case loader is required")
	}
	if cfg.Judger == nil {
		return nil, fmt.Errorf("judger is required")
	}
	if cfg.MaxCodeBytes <= 0 {
		cfg.MaxCodeBytes = defaultMaxCodeBytes
	}
	return &SubmitService{
		db:             cfg.DB,
		cache:          cfg.Cache,
		submissionRepo: cfg.SubmissionRepo,
		problemRepo:    cfg.ProblemRepo,
		userRepo:       cfg.UserRepo,
		loader:         cfg.Loader,
		judger:         cfg.Judger,
		maxCodeBytes:   cfg.MaxCodeBytes,
		rateLimit:      cfg.RateLimit,
	}, nil
}

// Submit runs the full judging path for one submission and blocks until
// the verdict is final. Every row it creates reaches a terminal status
// before Submit returns, even when the judge call or the finalization
// itself fails.
func (s *SubmitService) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	if err := s.validateSubmit(input); err != nil {
		return SubmitResult{}, err
	}
	if err := s.checkRateLimit(ctx, input.UserID); err != nil {
		return SubmitResult{}, err
	}

	problem, err := s.getProblem(ctx, input.ProblemID)
	if err != nil {
		return SubmitResult{}, err
	}

	cases := s.loader.Load(ctx, input.ProblemID)
	if len(cases) == 0 {
		// No row is created: there is nothing meaningful to judge against.
		return SubmitResult{}, appErr.New(appErr.TestCaseNotFound).WithMessage("problem has no test cases")
	}

	submission := &repository.Submission{
		ProblemID:  input.ProblemID,
		UserID:     input.UserID,
		Language:   input.Language,
		SourceCode: input.SourceCode,
		Status:     verdict.StatusJudging,
		CodeLength: len([]byte(input.SourceCode)),
	}
	if err := s.submissionRepo.Create(ctx, nil, submission); err != nil {
		return SubmitResult{}, appErr.Wrapf(err, appErr.SubmissionCreateFailed, "create submission failed")
	}

	results, err := s.judger.Judge(ctx, engine.Request{
		Src:        input.SourceCode,
		Language:   input.Language,
		Source:     engine.InlineTests(cases),
		MaxCPUTime: problem.TimeLimit,
		MaxMemory:  int64(problem.MemoryLimit) * 1024 * 1024,
	})
	if err != nil {
		return s.finalizeEngineFailure(ctx, submission, err)
	}

	summary := verdict.Aggregate(results)
	payload := model.SubmissionResult{
		Tests:  results,
		Total:  len(results),
		Passed: summary.Passed,
	}
	if err := s.finalize(ctx, submission, summary.Status, payload, summary.PeakCPUTime, summary.PeakMemory, true); err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{
		SubmissionID: submission.SubmissionID,
		Status:       summary.Status,
		StatusText:   summary.Status.Text(),
		CPUTime:      summary.PeakCPUTime,
		Memory:       summary.PeakMemory,
		CodeLength:   submission.CodeLength,
	}, nil
}

// RunSelfTest judges the user's code against their own input without
// creating a submission or touching any counter. When the input matches
// one of the problem's samples, the sample's expected output is compared;
// otherwise the run is accepted whenever it exits cleanly.
func (s *SubmitService) RunSelfTest(ctx context.Context, input SelfTestInput) (SelfTestResult, error) {
	if input.ProblemID <= 0 {
		return SelfTestResult{}, appErr.ValidationError("problem_id", "required")
	}
	if strings.TrimSpace(input.SourceCode) == "" {
		return SelfTestResult{}, appErr.ValidationError("source_code", "required")
	}
	if !lang.Supported(input.Language) {
		return SelfTestResult{}, appErr.New(appErr.LanguageNotSupported).WithMessage("unsupported language")
	}
	if strings.TrimSpace(input.TestInput) == "" {
		return SelfTestResult{}, appErr.ValidationError("test_input", "required")
	}

	problem, err := s.getProblem(ctx, input.ProblemID)
	if err != nil {
		return SelfTestResult{}, err
	}

	expected := ""
	matched := false
	for _, sample := range problem.Samples() {
		if strings.TrimSpace(sample.Input) == strings.TrimSpace(input.TestInput) {
			expected = strings.TrimRight(sample.Output, " \t\r\n")
			matched = true
			break
		}
	}

	results, err := s.judger.Judge(ctx, engine.Request{
		Src:           input.SourceCode,
		Language:      input.Language,
		Source:        engine.InlineTests([]model.TestCase{{Input: input.TestInput, Output: expected}}),
		MaxCPUTime:    problem.TimeLimit,
		MaxMemory:     int64(problem.MemoryLimit) * 1024 * 1024,
		CaptureOutput: true,
	})
	if err != nil {
		// The caller still gets a result-shaped payload so the front end
		// renders the failure like any other run outcome.
		logger.Warn(ctx, "self test judge call failed",
			zap.Int64("problem_id", input.ProblemID),
			zap.Error(err),
		)
		return selfTestOutcome(model.TestResult{Result: verdict.CodeSelfTestError, Output: err.Error()}, matched), nil
	}
	if len(results) == 0 {
		return selfTestOutcome(model.TestResult{Result: verdict.CodeSelfTestError, Output: "judge server returned no result"}, matched), nil
	}

	res := results[0]
	if !matched && res.ExitCode == 0 && res.Error == 0 {
		// Without an expected output a clean run counts as success; the
		// engine's compare code against the empty expectation is noise.
		res.Result = verdict.CodeAccepted
	}
	return selfTestOutcome(res, matched), nil
}

// GetSubmission returns one submission by id.
func (s *SubmitService) GetSubmission(ctx context.Context, submissionID int64) (*repository.Submission, error) {
	if submissionID <= 0 {
		return nil, appErr.ValidationError("submission_id", "required")
	}
	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrSubmissionNotFound) {
			return nil, appErr.New(appErr.SubmissionNotFound).WithMessage("submission not found")
		}
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "get submission failed")
	}
	return submission, nil
}

// ProblemStats returns the per-problem verdict counters.
func (s *SubmitService) ProblemStats(ctx context.Context, problemID int64) (*repository.ProblemStat, error) {
	if problemID <= 0 {
		return nil, appErr.ValidationError("problem_id", "required")
	}
	stat, err := s.problemRepo.GetStat(ctx, problemID)
	if err != nil {
		if errors.Is(err, repository.ErrProblemNotFound) {
			return nil, appErr.New(appErr.ProblemNotFound).WithMessage("problem not found")
		}
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "get problem stats failed")
	}
	return stat, nil
}

// ListSubmissions lists submissions newest first.
func (s *SubmitService) ListSubmissions(ctx context.Context, query repository.ListQuery) ([]*repository.Submission, int64, error) {
	submissions, total, err := s.submissionRepo.List(ctx, query)
	if err != nil {
		return nil, 0, appErr.Wrapf(err, appErr.DatabaseError, "list submissions failed")
	}
	return submissions, total, nil
}

func (s *SubmitService) validateSubmit(input SubmitInput) error {
	if input.ProblemID <= 0 {
		return appErr.ValidationError("problem_id", "required")
	}
	if input.UserID <= 0 {
		return appErr.ValidationError("user_id", "required")
	}
	if strings.TrimSpace(input.SourceCode) == "" {
		return appErr.ValidationError("source_code", "required")
	}
	if len([]byte(input.SourceCode)) > s.maxCodeBytes {
		return appErr.New(appErr.CodeTooLarge).WithMessage("source code too large")
	}
	if !lang.Supported(input.Language) {
		return appErr.New(appErr.LanguageNotSupported).WithMessage("unsupported language")
	}
	return nil
}

func (s *SubmitService) getProblem(ctx context.Context, problemID int64) (*repository.Problem, error) {
	problem, err := s.problemRepo.GetByID(ctx, problemID)
	if err != nil {
		if errors.Is(err, repository.ErrProblemNotFound) {
			return nil, appErr.New(appErr.ProblemNotFound).WithMessage("problem not found")
		}
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "get problem failed")
	}
	return problem, nil
}

func (s *SubmitService) checkRateLimit(ctx context.Context, userID int64) error {
	if s.cache == nil || s.rateLimit.UserMax <= 0 || s.rateLimit.Window <= 0 {
		return nil
	}
	key := fmt.Sprintf("%s%d", rateUserKeyPrefix, userID)
	count, err := s.cache.Incr(ctx, key)
	if err != nil {
		// Throttling is advisory; a broken cache must not block submits.
		logger.Warn(ctx, "rate limit check failed", zap.Error(err))
		return nil
	}
	if count == 1 {
		_ = s.cache.Expire(ctx, key, s.rateLimit.Window)
	}
	if int(count) > s.rateLimit.UserMax {
		return appErr.New(appErr.SubmitTooFrequently).WithMessage("submit too frequently")
	}
	return nil
}

// finalizeEngineFailure maps a judge-call failure onto a terminal status
// for the already-created row. Compile errors count toward the problem's
// ce column; everything else lands as SystemError with no status column.
// User counters are not touched on this path.
func (s *SubmitService) finalizeEngineFailure(ctx context.Context, submission *repository.Submission, judgeErr error) (SubmitResult, error) {
	status := verdict.StatusSystemError
	var engineErr *engine.Error
	if errors.As(judgeErr, &engineErr) && engineErr.IsCompileError() {
		status = verdict.StatusCompileError
	}
	payload := model.SubmissionResult{
		Err:    status.Text(),
		Detail: judgeErr.Error(),
	}
	if err := s.finalize(ctx, submission, status, payload, 0, 0, false); err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{
		SubmissionID: submission.SubmissionID,
		Status:       status,
		StatusText:   status.Text(),
		CodeLength:   submission.CodeLength,
	}, nil
}

// finalize moves the submission to its terminal status and bumps the
// counters in one transaction. When the transaction fails the row is
// parked as SystemError so it never stays in Judging.
func (s *SubmitService) finalize(ctx context.Context, submission *repository.Submission, status verdict.Status, payload model.SubmissionResult, cpuTime int, memory int64, countUser bool) error {
	err := s.db.Transaction(ctx, func(tx db.Transaction) error {
		if err := s.submissionRepo.Finalize(ctx, tx, submission.SubmissionID, status, payload, cpuTime, memory); err != nil {
			return err
		}
		if err := s.problemRepo.IncrementStats(ctx, tx, submission.ProblemID, status); err != nil {
			return err
		}
		if countUser {
			if err := s.userRepo.IncrementCounters(ctx, tx, submission.UserID, status == verdict.StatusAccepted); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		return nil
	}

	logger.Error(ctx, "finalize submission failed",
		zap.Int64("submission_id", submission.SubmissionID),
		zap.String("status", string(status)),
		zap.Error(err),
	)
	s.parkSystemError(ctx, submission, err)
	return appErr.Wrapf(err, appErr.TransactionFailed, "finalize submission failed")
}

// parkSystemError is the last line of defense against a row stuck in
// Judging: it finalizes the row as SystemError on its own, then bumps the
// problem's submission counter best-effort outside the transaction. The
// counter update is kept out of the park transaction because a broken
// counter row is one of the ways the main transaction fails in the first
// place, and it must not take the status update down with it again.
func (s *SubmitService) parkSystemError(ctx context.Context, submission *repository.Submission, cause error) {
	parkErr := s.db.Transaction(ctx, func(tx db.Transaction) error {
		return s.submissionRepo.Finalize(ctx, tx, submission.SubmissionID, verdict.StatusSystemError,
			model.SubmissionResult{Err: verdict.StatusSystemError.Text(), Detail: cause.Error()}, 0, 0)
	})
	if parkErr != nil {
		if !errors.Is(parkErr, repository.ErrAlreadyFinalized) {
			logger.Error(ctx, "park submission as system error failed",
				zap.Int64("submission_id", submission.SubmissionID),
				zap.Error(parkErr),
			)
		}
		return
	}
	if err := s.problemRepo.IncrementStats(ctx, nil, submission.ProblemID, verdict.StatusSystemError); err != nil {
		logger.Warn(ctx, "bump submission counter for parked submission failed",
			zap.Int64("submission_id", submission.SubmissionID),
			zap.Int64("problem_id", submission.ProblemID),
			zap.Error(err),
		)
	}
}
