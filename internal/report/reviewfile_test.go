// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReviewFileRoundTrip(t *testing.T) {
	r := Build(testInput())
	path := filepath.Join(t.TempDir(), "review.yaml")

	if err := WriteReviewFile(path, r); err != nil {
		t.Fatalf("WriteReviewFile: %v", err)
	}

	got, err := ReadReviewFile(path)
	if err != nil {
		t.Fatalf("ReadReviewFile: %v", err)
	}
	if got.ID != r.ID {
		t.Errorf("ID = %q, want %q", got.ID, r.ID)
	}
	if got.Query.Topic != r.Query.Topic {
		t.Errorf("Query.Topic = %q, want %q", got.Query.Topic, r.Query.Topic)
	}
	if len(got.Papers) != len(r.Papers) {
		t.Errorf("len(Papers) = %d, want %d", len(got.Papers), len(r.Papers))
	}
	if got.ExecutiveSummary != r.ExecutiveSummary {
		t.Errorf("ExecutiveSummary = %q, want %q", got.ExecutiveSummary, r.ExecutiveSummary)
	}
	if got.Status != r.Status {
		t.Errorf("Status = %q, want %q", got.Status, r.Status)
	}
}

func TestReadReviewFileMissing(t *testing.T) {
	_, err := ReadReviewFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if !strings.Contains(err.Error(), "reading review file") {
		t.Errorf("err = %v", err)
	}
}

func TestReadReviewFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("{invalid: ["), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadReviewFile(path)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if !strings.Contains(err.Error(), "parsing review file") {
		t.Errorf("err = %v", err)
	}
}
