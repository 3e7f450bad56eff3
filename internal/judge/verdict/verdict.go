// Package verdict reduces per-test-case judge results to a final
// submission status.
package verdict

import "huebre/internal/judge/model"

// Status is the lifecycle state of a submission. A submission starts at
// Judging and moves exactly once to one of the terminal statuses.
type Status string

const (
	StatusJudging             Status = "Judging"
	StatusAccepted            Status = "Accepted"
	StatusWrongAnswer         Status = "WrongAnswer"
	StatusTimeLimitExceeded   Status = "TimeLimitExceeded"
	StatusMemoryLimitExceeded Status = "MemoryLimitExceeded"
	StatusRuntimeError        Status = "RuntimeError"
	StatusCompileError        Status = "CompileError"
	StatusSystemError         Status = "SystemError"
)

var statusTexts = map[Status]string{
	StatusJudging:             "Judging",
	StatusAccepted:            "Accepted",
	StatusWrongAnswer:         "Wrong Answer",
	StatusTimeLimitExceeded:   "Time Limit Exceeded",
	StatusMemoryLimitExceeded: "Memory Limit Exceeded",
	StatusRuntimeError:        "Runtime Error",
	StatusCompileError:        "Compile Error",
	StatusSystemError:         "System Error",
}

// Text returns the human-readable form of the status.
func (s Status) Text() string {
	if text, ok := statusTexts[s]; ok {
		return text
	}
	return string(s)
}

// Terminal reports whether the status is a final one.
func (s Status) Terminal() bool {
	return s != StatusJudging && statusTexts[s] != ""
}

// Judge server per-test-case result codes.
const (
	CodeAccepted              = 0
	CodeWrongAnswer           = -1
	CodeCPUTimeLimitExceeded  = 1
	CodeRealTimeLimitExceeded = 2
	CodeMemoryLimitExceeded   = 3
	CodeRuntimeError          = 4
	CodeSystemError           = 5

	// CodeSelfTestError is a synthetic code the self-test path returns when
	// the judge server itself failed (compile error, transport failure).
	CodeSelfTestError = -2
)

// Summary is the aggregation outcome over all test cases of one submission.
type Summary struct {
	Status      Status
	PeakCPUTime int
	PeakMemory  int64
	Passed      int
}

// Aggregate reduces a per-test-case result array to a final status plus
// resource-usage extrema.
//
// The status is decided by the first failing test case alone; later
// failures of a different kind do not override it. This single-verdict
// model is deliberate carried-over policy, not a defect ("worst status"
// ordering is a possible future knob). Peaks and the passed count are
// tracked across every result regardless of which one decided the status.
func Aggregate(results []model.TestResult) Summary {
	summary := Summary{Status: StatusAccepted}
	firstError := Status("")

	for _, res := range results {
		if res.CPUTime > summary.PeakCPUTime {
			summary.PeakCPUTime = res.CPUTime
		}
		if res.Memory > summary.PeakMemory {
			summary.PeakMemory = res.Memory
		}
		if res.Result == CodeAccepted {
			summary.Passed++
			continue
		}
		if firstError != "" {
			continue
		}
		firstError = classify(res.Result)
	}

	if firstError != "" {
		summary.Status = firstError
	}
	return summary
}

func classify(code int) Status {
	switch code {
	case CodeWrongAnswer:
		return StatusWrongAnswer
	case CodeCPUTimeLimitExceeded, CodeRealTimeLimitExceeded:
		// CPU-time and wall-time exceedance fold to the same status.
		return StatusTimeLimitExceeded
	case CodeMemoryLimitExceeded:
		return StatusMemoryLimitExceeded
	case CodeRuntimeError:
		return StatusRuntimeError
	default:
		return StatusSystemError
	}
}
