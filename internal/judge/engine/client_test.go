package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"huebre/internal/judge/model"
)

func newTestClient(t *testing.T, endpoint string, timeout time.Duration) *Client {
	t.Helper()
	client, err := NewClient(Config{Endpoint: endpoint, Token: "secret", Timeout: timeout})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func validRequest() Request {
	return Request{
		Src:        "int main() { return 0; }",
		Language:   "cpp",
		Source:     InlineTests([]model.TestCase{{Input: "1\n", Output: "1\n"}}),
		MaxCPUTime: 1000,
		MaxMemory:  256 * 1024 * 1024,
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{Token: "x"}); err == nil {
		t.Fatalf("expected error for missing endpoint")
	}
	if _, err := NewClient(Config{Endpoint: "http://judge"}); err == nil {
		t.Fatalf("expected error for missing token")
	}
}

func TestJudgeSendsTokenDigestAndBody(t *testing.T) {
	wantDigest := sha256.Sum256([]byte("secret"))
	var gotToken string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Judge-Server-Token")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"err":  "",
			"data": []model.TestResult{{Result: 0, CPUTime: 12}},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, time.Second)
	results, err := client.Judge(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Judge failed: %v", err)
	}
	if len(results) != 1 || results[0].CPUTime != 12 {
		t.Fatalf("results = %+v", results)
	}

	if gotToken != hex.EncodeToString(wantDigest[:]) {
		t.Fatalf("token header = %q, want sha256 hex digest", gotToken)
	}
	if gotBody["src"] != "int main() { return 0; }" {
		t.Fatalf("src = %v", gotBody["src"])
	}
	if _, ok := gotBody["language_config"]; !ok {
		t.Fatalf("language_config missing from body: %v", gotBody)
	}
	if gotBody["max_cpu_time"] != float64(1000) {
		t.Fatalf("max_cpu_time = %v, want 1000", gotBody["max_cpu_time"])
	}
	if _, ok := gotBody["test_case_id"]; ok {
		t.Fatalf("test_case_id should be omitted for inline tests")
	}
}

func TestJudgeTestSetRefOmitsInlineCases(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"err": "", "data": []model.TestResult{}})
	}))
	defer server.Close()

	req := validRequest()
	req.Source = TestSetRef("abc123")
	client := newTestClient(t, server.URL, time.Second)
	if _, err := client.Judge(context.Background(), req); err != nil {
		t.Fatalf("Judge failed: %v", err)
	}
	if gotBody["test_case_id"] != "abc123" {
		t.Fatalf("test_case_id = %v, want abc123", gotBody["test_case_id"])
	}
	if _, ok := gotBody["test_case"]; ok {
		t.Fatalf("test_case should be omitted for a test set reference")
	}
}

func TestJudgeEmptySourceRejectedBeforeNetwork(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	req := validRequest()
	req.Source = TestSource{}
	client := newTestClient(t, server.URL, time.Second)
	_, err := client.Judge(context.Background(), req)

	var engineErr *Error
	if !errors.As(err, &engineErr) || engineErr.Kind != KindInvalidRequest {
		t.Fatalf("err = %v, want InvalidRequest", err)
	}
	if called {
		t.Fatalf("server should not be called for an invalid request")
	}
}

func TestJudgeTimeoutClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 50*time.Millisecond)
	_, err := client.Judge(context.Background(), validRequest())

	var engineErr *Error
	if !errors.As(err, &engineErr) || engineErr.Kind != KindTimeout {
		t.Fatalf("err = %v, want Timeout", err)
	}
}

func TestJudgeConnectionRefusedIsRequestError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(t, server.URL, time.Second)
	_, err := client.Judge(context.Background(), validRequest())

	var engineErr *Error
	if !errors.As(err, &engineErr) || engineErr.Kind != KindRequestError {
		t.Fatalf("err = %v, want RequestError", err)
	}
}

func TestJudgeNon200IsRequestError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, time.Second)
	_, err := client.Judge(context.Background(), validRequest())

	var engineErr *Error
	if !errors.As(err, &engineErr) || engineErr.Kind != KindRequestError {
		t.Fatalf("err = %v, want RequestError", err)
	}
}

func TestJudgeUndecodableBodyIsUnknownError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, time.Second)
	_, err := client.Judge(context.Background(), validRequest())

	var engineErr *Error
	if !errors.As(err, &engineErr) || engineErr.Kind != KindUnknownError {
		t.Fatalf("err = %v, want UnknownError", err)
	}
}

func TestJudgeServerErrorPassesThroughKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"err":  "CompileError",
			"data": "main.cpp:1:1: error: expected declaration",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, time.Second)
	_, err := client.Judge(context.Background(), validRequest())

	var engineErr *Error
	if !errors.As(err, &engineErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if !engineErr.IsCompileError() {
		t.Fatalf("Kind = %q, want CompileError", engineErr.Kind)
	}
	if engineErr.Message != "main.cpp:1:1: error: expected declaration" {
		t.Fatalf("Message = %q", engineErr.Message)
	}
}

func TestJudgeServerErrorObjectMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"err":  "JudgeClientError",
			"data": map[string]string{"message": "sandbox unavailable"},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, time.Second)
	_, err := client.Judge(context.Background(), validRequest())

	var engineErr *Error
	if !errors.As(err, &engineErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if engineErr.Kind != "JudgeClientError" {
		t.Fatalf("Kind = %q", engineErr.Kind)
	}
	if engineErr.Message != "sandbox unavailable" {
		t.Fatalf("Message = %q", engineErr.Message)
	}
}
