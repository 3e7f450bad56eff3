package model

// TestResult is one element of the judge server's per-test-case result
// array, returned verbatim by the judge client.
//
// Result holds the server's comparison code: 0 means the output matched,
// -1 means it did not, positive codes enumerate resource/runtime/system
// failures. Error is the server-internal error classifier.
type TestResult struct {
	CPUTime   int    `json:"cpu_time"`
	RealTime  int    `json:"real_time"`
	Memory    int64  `json:"memory"`
	Signal    int    `json:"signal"`
	ExitCode  int    `json:"exit_code"`
	Error     int    `json:"error"`
	Result    int    `json:"result"`
	TestCase  string `json:"test_case"`
	OutputMD5 string `json:"output_md5,omitempty"`
	Output    string `json:"output,omitempty"`
}

// SubmissionResult is the structured payload persisted on a submission:
// either the compile/system error detail, or the full per-test-case array
// with pass/total counts.
type SubmissionResult struct {
	Err    string       `json:"err,omitempty"`
	Detail string       `json:"detail,omitempty"`
	Tests  []TestResult `json:"tests,omitempty"`
	Total  int          `json:"total,omitempty"`
	Passed int          `json:"passed,omitempty"`
}
