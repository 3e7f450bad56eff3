// Package testcase reconstructs a problem's ordered test-case set from
// object storage.
package testcase

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"huebre/internal/common/storage"
	"huebre/internal/judge/model"
	"huebre/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	inSuffix  = ".in"
	outSuffix = ".out"
)

// Loader fetches input/output pairs from the problems bucket. Key layout:
// problems/{problem_id}/testcases/{ordinal}.in and .out.
type Loader struct {
	storage storage.ObjectStorage
	bucket  string
}

// NewLoader creates a test case loader.
func NewLoader(objStorage storage.ObjectStorage, bucket string) (*Loader, error) {
	if objStorage == nil {
		return nil, fmt.Errorf("object storage is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	return &Loader{storage: objStorage, bucket: bucket}, nil
}

// Load returns the problem's test cases ordered by ascending ordinal
// string. It never returns an error: any listing failure yields an empty
// slice, which callers must treat as "no test cases available" and reject
// the submission rather than judge against nothing.
//
// Ordinals are compared as strings, so "10" sorts before "2". The bucket
// layout predates this loader and small test-case counts depend on it, so
// the quirk is preserved rather than corrected.
func (l *Loader) Load(ctx context.Context, problemID int64) []model.TestCase {
	prefix := fmt.Sprintf("problems/%d/testcases/", problemID)

	keys, err := l.listAll(ctx, prefix)
	if err != nil {
		logger.Warn(ctx, "list test cases failed",
			zap.Int64("problem_id", problemID),
			zap.Error(err),
		)
		return nil
	}

	inputs := make(map[string]string)
	outputs := make(map[string]string)
	for _, key := range keys {
		name := path.Base(key)
		switch {
		case strings.HasSuffix(name, inSuffix):
			inputs[strings.TrimSuffix(name, inSuffix)] = key
		case strings.HasSuffix(name, outSuffix):
			outputs[strings.TrimSuffix(name, outSuffix)] = key
		}
	}

	ordinals := make([]string, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for ordinal := range inputs {
		ordinals = append(ordinals, ordinal)
		seen[ordinal] = true
	}
	for ordinal := range outputs {
		if !seen[ordinal] {
			ordinals = append(ordinals, ordinal)
		}
	}
	sort.Strings(ordinals)

	cases := make([]model.TestCase, 0, len(ordinals))
	for _, ordinal := range ordinals {
		inKey, ok := inputs[ordinal]
		if !ok {
			// An output with no matching input is unusable.
			continue
		}
		input, err := l.readObject(ctx, inKey)
		if err != nil {
			logger.Warn(ctx, "read test case input failed",
				zap.Int64("problem_id", problemID),
				zap.String("key", inKey),
				zap.Error(err),
			)
			continue
		}

		var output string
		if outKey, ok := outputs[ordinal]; ok {
			output, err = l.readObject(ctx, outKey)
			if err != nil {
				// Missing expected output degrades to empty, not fatal.
				logger.Warn(ctx, "read test case output failed",
					zap.Int64("problem_id", problemID),
					zap.String("key", outKey),
					zap.Error(err),
				)
				output = ""
			}
		}
		cases = append(cases, model.TestCase{Input: input, Output: output})
	}
	return cases
}

// listAll follows continuation tokens until the listing is exhausted.
func (l *Loader) listAll(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	token := ""
	for {
		page, err := l.storage.ListObjectsPage(ctx, l.bucket, prefix, token)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Objects {
			keys = append(keys, obj.Key)
		}
		if !page.IsTruncated || page.NextContinuationToken == "" {
			return keys, nil
		}
		token = page.NextContinuationToken
	}
}

func (l *Loader) readObject(ctx context.Context, key string) (string, error) {
	reader, err := l.storage.GetObject(ctx, l.bucket, key)
	if err != nil {
		return "", err
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
