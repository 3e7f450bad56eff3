package model

// TestCase is one input/expected-output pair fed to the judge server.
// Output may be empty when the problem ships no expected output for the case.
type TestCase struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Sample is one visible example pair shown on the problem statement.
// Self-test matches user input against these.
type Sample struct {
	Input  string
	Output string
}
