package testcase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"huebre/internal/common/storage"
)

type fakeStorage struct {
	objects  map[string]string
	pageSize int
	listErr  error
	readErr  map[string]bool

	listCalls int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects:  make(map[string]string),
		pageSize: 1000,
		readErr:  make(map[string]bool),
	}
}

func (f *fakeStorage) put(key, content string) {
	f.objects[key] = content
}

func (f *fakeStorage) GetObject(_ context.Context, _, objectKey string) (storage.ObjectReader, error) {
	if f.readErr[objectKey] {
		return nil, errors.New("read failed")
	}
	content, ok := f.objects[objectKey]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (f *fakeStorage) ListObjectsPage(_ context.Context, _, prefix, continuationToken string) (storage.ObjectPage, error) {
	f.listCalls++
	if f.listErr != nil {
		return storage.ObjectPage{}, f.listErr
	}

	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	// Deterministic paging order.
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}

	start := 0
	if continuationToken != "" {
		fmt.Sscanf(continuationToken, "%d", &start)
	}
	end := start + f.pageSize
	if end > len(keys) {
		end = len(keys)
	}

	page := storage.ObjectPage{}
	for _, key := range keys[start:end] {
		page.Objects = append(page.Objects, storage.ObjectInfo{Key: key, SizeBytes: int64(len(f.objects[key]))})
	}
	if end < len(keys) {
		page.IsTruncated = true
		page.NextContinuationToken = fmt.Sprintf("%d", end)
	}
	return page, nil
}

func newTestLoader(t *testing.T, fs *fakeStorage) *Loader {
	t.Helper()
	loader, err := NewLoader(fs, "oj-data")
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}
	return loader
}

func TestNewLoaderValidation(t *testing.T) {
	if _, err := NewLoader(nil, "bucket"); err == nil {
		t.Fatalf("expected error for nil storage")
	}
	if _, err := NewLoader(newFakeStorage(), ""); err == nil {
		t.Fatalf("expected error for empty bucket")
	}
}

func TestLoadPairsInputsWithOutputs(t *testing.T) {
	fs := newFakeStorage()
	fs.put("problems/7/testcases/1.in", "1 2\n")
	fs.put("problems/7/testcases/1.out", "3\n")
	fs.put("problems/7/testcases/2.in", "4 5\n")
	fs.put("problems/7/testcases/2.out", "9\n")

	cases := newTestLoader(t, fs).Load(context.Background(), 7)
	if len(cases) != 2 {
		t.Fatalf("got %d cases, want 2", len(cases))
	}
	if cases[0].Input != "1 2\n" || cases[0].Output != "3\n" {
		t.Fatalf("case 0 = %+v", cases[0])
	}
	if cases[1].Input != "4 5\n" || cases[1].Output != "9\n" {
		t.Fatalf("case 1 = %+v", cases[1])
	}
}

func TestLoadMissingOutputDegradesToEmpty(t *testing.T) {
	fs := newFakeStorage()
	fs.put("problems/7/testcases/1.in", "data")

	cases := newTestLoader(t, fs).Load(context.Background(), 7)
	if len(cases) != 1 {
		t.Fatalf("got %d cases, want 1", len(cases))
	}
	if cases[0].Input != "data" || cases[0].Output != "" {
		t.Fatalf("case = %+v, want empty output", cases[0])
	}
}

func TestLoadUnreadableOutputDegradesToEmpty(t *testing.T) {
	fs := newFakeStorage()
	fs.put("problems/7/testcases/1.in", "data")
	fs.put("problems/7/testcases/1.out", "expected")
	fs.readErr["problems/7/testcases/1.out"] = true

	cases := newTestLoader(t, fs).Load(context.Background(), 7)
	if len(cases) != 1 {
		t.Fatalf("got %d cases, want 1", len(cases))
	}
	if cases[0].Output != "" {
		t.Fatalf("Output = %q, want empty", cases[0].Output)
	}
}

func TestLoadOrphanOutputSkipped(t *testing.T) {
	fs := newFakeStorage()
	fs.put("problems/7/testcases/1.in", "a")
	fs.put("problems/7/testcases/1.out", "b")
	fs.put("problems/7/testcases/2.out", "orphan")

	cases := newTestLoader(t, fs).Load(context.Background(), 7)
	if len(cases) != 1 {
		t.Fatalf("got %d cases, want 1", len(cases))
	}
}

func TestLoadUnreadableInputSkipsOrdinal(t *testing.T) {
	fs := newFakeStorage()
	fs.put("problems/7/testcases/1.in", "a")
	fs.put("problems/7/testcases/1.out", "b")
	fs.put("problems/7/testcases/2.in", "c")
	fs.put("problems/7/testcases/2.out", "d")
	fs.readErr["problems/7/testcases/1.in"] = true

	cases := newTestLoader(t, fs).Load(context.Background(), 7)
	if len(cases) != 1 {
		t.Fatalf("got %d cases, want 1", len(cases))
	}
	if cases[0].Input != "c" {
		t.Fatalf("Input = %q, want %q", cases[0].Input, "c")
	}
}

func TestLoadOrdinalsSortAsStrings(t *testing.T) {
	fs := newFakeStorage()
	for _, n := range []string{"1", "2", "10"} {
		fs.put("problems/7/testcases/"+n+".in", "in-"+n)
		fs.put("problems/7/testcases/"+n+".out", "out-"+n)
	}

	cases := newTestLoader(t, fs).Load(context.Background(), 7)
	if len(cases) != 3 {
		t.Fatalf("got %d cases, want 3", len(cases))
	}
	// "10" sorts before "2" lexicographically.
	want := []string{"in-1", "in-10", "in-2"}
	for i, tc := range cases {
		if tc.Input != want[i] {
			t.Fatalf("case %d input = %q, want %q", i, tc.Input, want[i])
		}
	}
}

func TestLoadFollowsPagination(t *testing.T) {
	fs := newFakeStorage()
	fs.pageSize = 2
	for _, n := range []string{"1", "2", "3"} {
		fs.put("problems/7/testcases/"+n+".in", "in-"+n)
		fs.put("problems/7/testcases/"+n+".out", "out-"+n)
	}

	cases := newTestLoader(t, fs).Load(context.Background(), 7)
	if len(cases) != 3 {
		t.Fatalf("got %d cases, want 3", len(cases))
	}
	if fs.listCalls < 2 {
		t.Fatalf("listCalls = %d, want multiple pages", fs.listCalls)
	}
}

func TestLoadListingFailureReturnsEmpty(t *testing.T) {
	fs := newFakeStorage()
	fs.listErr = errors.New("connection refused")
	fs.put("problems/7/testcases/1.in", "a")

	cases := newTestLoader(t, fs).Load(context.Background(), 7)
	if len(cases) != 0 {
		t.Fatalf("got %d cases, want 0 on listing failure", len(cases))
	}
}

func TestLoadIgnoresForeignSuffixes(t *testing.T) {
	fs := newFakeStorage()
	fs.put("problems/7/testcases/1.in", "a")
	fs.put("problems/7/testcases/1.out", "b")
	fs.put("problems/7/testcases/readme.txt", "ignore me")

	cases := newTestLoader(t, fs).Load(context.Background(), 7)
	if len(cases) != 1 {
		t.Fatalf("got %d cases, want 1", len(cases))
	}
}
