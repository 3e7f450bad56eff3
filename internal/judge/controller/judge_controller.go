// Package controller exposes the judging pipeline over HTTP.
package controller

import (
	"strconv"
	"time"

	"huebre/internal/judge/model"
	"huebre/internal/judge/repository"
	"huebre/internal/judge/service"
	"huebre/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// JudgeController handles submission and self-test HTTP endpoints.
type JudgeController struct {
	submitService *service.SubmitService
}

// NewJudgeController creates a new JudgeController.
func NewJudgeController(submitService *service.SubmitService) *JudgeController {
	return &JudgeController{submitService: submitService}
}

// RegisterRoutes mounts the judge endpoints on the router group.
func (h *JudgeController) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/problems/:id/submit", h.Submit)
	group.POST("/problems/:id/run-test", h.RunSelfTest)
	group.GET("/problems/:id/stats", h.ProblemStats)
	group.GET("/submissions/:id", h.GetSubmission)
	group.GET("/submissions", h.ListSubmissions)
}

// Submit judges a submission against the problem's test cases and blocks
// until the verdict is final.
func (h *JudgeController) Submit(c *gin.Context) {
	problemID, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "Invalid problem id")
		return
	}
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	result, err := h.submitService.Submit(c.Request.Context(), service.SubmitInput{
		ProblemID:  problemID,
		UserID:     req.UserID,
		Language:   req.Language,
		SourceCode: req.SourceCode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RunSelfTest judges the user's code against their own input. The run's
// outcome, including engine-side failures, always comes back in a
// success envelope so the client renders it like any result.
func (h *JudgeController) RunSelfTest(c *gin.Context) {
	problemID, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "Invalid problem id")
		return
	}
	var req SelfTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	result, err := h.submitService.RunSelfTest(c.Request.Context(), service.SelfTestInput{
		ProblemID:  problemID,
		UserID:     req.UserID,
		Language:   req.Language,
		SourceCode: req.SourceCode,
		TestInput:  req.TestInput,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ProblemStats returns a problem's aggregate verdict counters.
func (h *JudgeController) ProblemStats(c *gin.Context) {
	problemID, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "Invalid problem id")
		return
	}
	stat, err := h.submitService.ProblemStats(c.Request.Context(), problemID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, ProblemStatsResponse{
		ProblemID:  stat.ProblemID,
		Submission: stat.Submission,
		Accepted:   stat.Accepted,
		WrongAns:   stat.WrongAns,
		TimeLimit:  stat.TimeLimit,
		MemLimit:   stat.MemLimit,
		Runtime:    stat.Runtime,
		Compile:    stat.Compile,
	})
}

// GetSubmission returns one submission's detail.
func (h *JudgeController) GetSubmission(c *gin.Context) {
	submissionID, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "Invalid submission id")
		return
	}
	submission, err := h.submitService.GetSubmission(c.Request.Context(), submissionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, submissionDetail(submission))
}

// ListSubmissions lists submissions newest first, filtered by problem
// and/or user.
func (h *JudgeController) ListSubmissions(c *gin.Context) {
	query := repository.ListQuery{
		ProblemID: queryInt64(c, "problem_id"),
		UserID:    queryInt64(c, "user_id"),
		Limit:     int(queryInt64(c, "limit")),
		Offset:    int(queryInt64(c, "offset")),
	}
	submissions, total, err := h.submitService.ListSubmissions(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]SubmissionSummary, 0, len(submissions))
	for _, submission := range submissions {
		items = append(items, SubmissionSummary{
			SubmissionID: submission.SubmissionID,
			ProblemID:    submission.ProblemID,
			UserID:       submission.UserID,
			Language:     submission.Language,
			Status:       string(submission.Status),
			StatusText:   submission.Status.Text(),
			CPUTime:      submission.CPUTime,
			Memory:       submission.Memory,
			CodeLength:   submission.CodeLength,
			CreatedAt:    submission.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	response.Success(c, ListResponse{Items: items, Total: total})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt64(c *gin.Context, name string) int64 {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// SubmitRequest defines the submission payload.
type SubmitRequest struct {
	UserID     int64  `json:"user_id" binding:"required"`
	Language   string `json:"language" binding:"required"`
	SourceCode string `json:"source_code" binding:"required"`
}

// SelfTestRequest defines the run-against-my-input payload.
type SelfTestRequest struct {
	UserID     int64  `json:"user_id"`
	Language   string `json:"language" binding:"required"`
	SourceCode string `json:"source_code" binding:"required"`
	TestInput  string `json:"test_input" binding:"required"`
}

// SubmissionDetail is the single-submission response body.
type SubmissionDetail struct {
	SubmissionID int64                  `json:"submission_id"`
	ProblemID    int64                  `json:"problem_id"`
	UserID       int64                  `json:"user_id"`
	Language     string                 `json:"language"`
	SourceCode   string                 `json:"source_code"`
	Status       string                 `json:"status"`
	StatusText   string                 `json:"status_text"`
	Result       model.SubmissionResult `json:"result"`
	CPUTime      int                    `json:"cpu_time"`
	Memory       int64                  `json:"memory"`
	CodeLength   int                    `json:"code_length"`
	CreatedAt    string                 `json:"created_at"`
}

func submissionDetail(submission *repository.Submission) SubmissionDetail {
	return SubmissionDetail{
		SubmissionID: submission.SubmissionID,
		ProblemID:    submission.ProblemID,
		UserID:       submission.UserID,
		Language:     submission.Language,
		SourceCode:   submission.SourceCode,
		Status:       string(submission.Status),
		StatusText:   submission.Status.Text(),
		Result:       submission.Result,
		CPUTime:      submission.CPUTime,
		Memory:       submission.Memory,
		CodeLength:   submission.CodeLength,
		CreatedAt:    submission.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ProblemStatsResponse is the problem counter response body.
type ProblemStatsResponse struct {
	ProblemID  int64 `json:"problem_id"`
	Submission int64 `json:"submission"`
	Accepted   int64 `json:"ac"`
	WrongAns   int64 `json:"wa"`
	TimeLimit  int64 `json:"tle"`
	MemLimit   int64 `json:"mle"`
	Runtime    int64 `json:"re"`
	Compile    int64 `json:"ce"`
}

// SubmissionSummary is one row of a submission listing.
type SubmissionSummary struct {
	SubmissionID int64  `json:"submission_id"`
	ProblemID    int64  `json:"problem_id"`
	UserID       int64  `json:"user_id"`
	Language     string `json:"language"`
	Status       string `json:"status"`
	StatusText   string `json:"status_text"`
	CPUTime      int    `json:"cpu_time"`
	Memory       int64  `json:"memory"`
	CodeLength   int    `json:"code_length"`
	CreatedAt    string `json:"created_at"`
}

// ListResponse is the submission listing response body.
type ListResponse struct {
	Items []SubmissionSummary `json:"items"`
	Total int64               `json:"total"`
}
