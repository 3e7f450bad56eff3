package engine

import (
	"encoding/json"

	"huebre/internal/judge/lang"
	"huebre/internal/judge/model"
)

// TestSource names where the judge server finds the test data for a run:
// either an inline test-case array or an opaque test-case-set id already
// known to the server. The zero value is invalid; use InlineTests or
// TestSetRef so the "neither" and "both" states are unrepresentable.
type TestSource struct {
	inline []model.TestCase
	ref    string
}

// InlineTests builds a TestSource carrying the cases in the request body.
func InlineTests(cases []model.TestCase) TestSource {
	return TestSource{inline: cases}
}

// TestSetRef builds a TestSource referencing a server-side test-case set.
func TestSetRef(id string) TestSource {
	return TestSource{ref: id}
}

func (s TestSource) valid() bool {
	return len(s.inline) > 0 || s.ref != ""
}

// SPJConfig carries a custom checker program and its compile/run
// configuration for problems that are not exact-string-match.
type SPJConfig struct {
	Src     string              `json:"spj_src"`
	Version string              `json:"spj_version"`
	Compile *lang.CompileConfig `json:"spj_compile_config,omitempty"`
	Run     *lang.RunConfig     `json:"spj_config,omitempty"`
}

// IOMode selects between standard and file I/O judging.
type IOMode struct {
	IOMode string `json:"io_mode"`
	Input  string `json:"input,omitempty"`
	Output string `json:"output,omitempty"`
}

// Request describes one judging run.
type Request struct {
	Src           string
	Language      string
	Source        TestSource
	MaxCPUTime    int   // ms
	MaxMemory     int64 // bytes
	CaptureOutput bool
	SPJ           *SPJConfig
	IOMode        *IOMode
}

// wireRequest is the judge server's JSON request body.
type wireRequest struct {
	Src            string              `json:"src"`
	LanguageConfig lang.Profile        `json:"language_config"`
	MaxCPUTime     int                 `json:"max_cpu_time"`
	MaxMemory      int64               `json:"max_memory"`
	TestCase       []model.TestCase    `json:"test_case,omitempty"`
	TestCaseID     string              `json:"test_case_id,omitempty"`
	Output         bool                `json:"output"`
	SPJVersion     string              `json:"spj_version,omitempty"`
	SPJSrc         string              `json:"spj_src,omitempty"`
	SPJCompile     *lang.CompileConfig `json:"spj_compile_config,omitempty"`
	SPJRun         *lang.RunConfig     `json:"spj_config,omitempty"`
	IOMode         *IOMode             `json:"io_mode,omitempty"`
}

// wireResponse is the judge server's JSON response envelope. On success
// Err is empty and Data holds the per-test-case result array; on failure
// Err carries the server's error classifier and Data the detail.
type wireResponse struct {
	Err  string          `json:"err"`
	Data json.RawMessage `json:"data"`
}
