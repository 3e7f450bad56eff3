package verdict

import (
	"testing"

	"huebre/internal/judge/model"
)

func TestAggregateAllAccepted(t *testing.T) {
	results := []model.TestResult{
		{Result: CodeAccepted, CPUTime: 10, Memory: 1000},
		{Result: CodeAccepted, CPUTime: 30, Memory: 500},
		{Result: CodeAccepted, CPUTime: 20, Memory: 2000},
	}
	summary := Aggregate(results)
	if summary.Status != StatusAccepted {
		t.Fatalf("Status = %s, want Accepted", summary.Status)
	}
	if summary.Passed != 3 {
		t.Fatalf("Passed = %d, want 3", summary.Passed)
	}
	if summary.PeakCPUTime != 30 {
		t.Fatalf("PeakCPUTime = %d, want 30", summary.PeakCPUTime)
	}
	if summary.PeakMemory != 2000 {
		t.Fatalf("PeakMemory = %d, want 2000", summary.PeakMemory)
	}
}

func TestAggregateEmptyIsAccepted(t *testing.T) {
	summary := Aggregate(nil)
	if summary.Status != StatusAccepted {
		t.Fatalf("Status = %s, want Accepted", summary.Status)
	}
	if summary.Passed != 0 {
		t.Fatalf("Passed = %d, want 0", summary.Passed)
	}
}

func TestAggregateFirstFailureWins(t *testing.T) {
	results := []model.TestResult{
		{Result: CodeAccepted},
		{Result: CodeWrongAnswer},
		{Result: CodeMemoryLimitExceeded},
		{Result: CodeAccepted},
	}
	summary := Aggregate(results)
	if summary.Status != StatusWrongAnswer {
		t.Fatalf("Status = %s, want WrongAnswer", summary.Status)
	}
	if summary.Passed != 2 {
		t.Fatalf("Passed = %d, want 2", summary.Passed)
	}
}

func TestAggregatePeaksSpanAllResults(t *testing.T) {
	// The failing test case decides the status, but a later passing one
	// still contributes the peak.
	results := []model.TestResult{
		{Result: CodeRuntimeError, CPUTime: 5, Memory: 100},
		{Result: CodeAccepted, CPUTime: 900, Memory: 9000},
	}
	summary := Aggregate(results)
	if summary.Status != StatusRuntimeError {
		t.Fatalf("Status = %s, want RuntimeError", summary.Status)
	}
	if summary.PeakCPUTime != 900 {
		t.Fatalf("PeakCPUTime = %d, want 900", summary.PeakCPUTime)
	}
	if summary.PeakMemory != 9000 {
		t.Fatalf("PeakMemory = %d, want 9000", summary.PeakMemory)
	}
}

func TestAggregateStatusMapping(t *testing.T) {
	cases := []struct {
		code int
		want Status
	}{
		{CodeWrongAnswer, StatusWrongAnswer},
		{CodeCPUTimeLimitExceeded, StatusTimeLimitExceeded},
		{CodeRealTimeLimitExceeded, StatusTimeLimitExceeded},
		{CodeMemoryLimitExceeded, StatusMemoryLimitExceeded},
		{CodeRuntimeError, StatusRuntimeError},
		{CodeSystemError, StatusSystemError},
		{99, StatusSystemError},
	}
	for _, tc := range cases {
		summary := Aggregate([]model.TestResult{{Result: tc.code}})
		if summary.Status != tc.want {
			t.Fatalf("code %d: Status = %s, want %s", tc.code, summary.Status, tc.want)
		}
	}
}

func TestStatusText(t *testing.T) {
	if got := StatusWrongAnswer.Text(); got != "Wrong Answer" {
		t.Fatalf("Text() = %q, want %q", got, "Wrong Answer")
	}
	if got := Status("Weird").Text(); got != "Weird" {
		t.Fatalf("Text() for unknown status = %q, want passthrough", got)
	}
}

func TestTerminal(t *testing.T) {
	if StatusJudging.Terminal() {
		t.Fatalf("Judging should not be terminal")
	}
	for _, s := range []Status{
		StatusAccepted, StatusWrongAnswer, StatusTimeLimitExceeded,
		StatusMemoryLimitExceeded, StatusRuntimeError, StatusCompileError,
		StatusSystemError,
	} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	if Status("Bogus").Terminal() {
		t.Fatalf("unknown status should not be terminal")
	}
}
