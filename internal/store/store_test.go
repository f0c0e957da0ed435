package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/interview-engine/internal/interview"
	"github.com/danielpatrickdp/interview-engine/internal/logging"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport() interview.Report {
	start := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	return interview.Report{
		SessionID: "sess-1",
		Settings: interview.Settings{
			Position:      "Backend Developer",
			Experience:    "senior",
			Duration:      15,
			QuestionCount: 2,
			Skills:        []string{"Node.js"},
		},
		Questions: interview.QuestionSet{
			{ID: "q1", Text: "Explain the event loop.", KeyPhrases: []string{"event loop"}},
			{ID: "q2", Text: "How do you scale a service?", KeyPhrases: []string{"cache"}},
		},
		Answers: []string{"The event loop runs callbacks.", "Add a cache."},
		Samples: []interview.MetricSample{
			{Confidence: 80, Relevance: 100, Communication: 40},
			{Confidence: 60, Relevance: 100, Communication: 40},
		},
		Averages:     interview.Averages{Confidence: 70, Relevance: 100, Communication: 40},
		OverallScore: 73,
		Strengths:    []string{"on topic"},
		Improvements: []string{"structure"},
		EndReason:    "completed",
		StartedAt:    start,
		EndedAt:      start.Add(12 * time.Minute),
	}
}

func TestSaveAndGetReport(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	id, err := s.SaveReport(ctx, sampleReport())
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated report ID")
	}

	got, err := s.GetReport(ctx, id)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.ID != id {
		t.Errorf("expected ID %s, got %s", id, got.ID)
	}
	if got.OverallScore != 73 {
		t.Errorf("expected overall 73, got %d", got.OverallScore)
	}
	if len(got.Questions) != 2 || got.Questions[1].ID != "q2" {
		t.Errorf("questions not round-tripped: %+v", got.Questions)
	}
	if got.Settings.Duration != 15 {
		t.Errorf("expected duration 15, got %d", got.Settings.Duration)
	}
}

func TestSaveReport_KeepsExplicitID(t *testing.T) {
	s := tempStore(t)
	r := sampleReport()
	r.ID = "fixed-id"

	id, err := s.SaveReport(context.Background(), r)
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if id != "fixed-id" {
		t.Errorf("expected fixed-id, got %s", id)
	}

	if _, err := s.SaveReport(context.Background(), r); err == nil {
		t.Error("expected duplicate ID to fail")
	}
}

func TestSamples(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	id, err := s.SaveReport(ctx, sampleReport())
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	samples, err := s.Samples(ctx, id)
	if err != nil {
		t.Fatalf("Samples: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].Confidence != 80 || samples[1].Confidence != 60 {
		t.Errorf("unexpected sample order: %+v", samples)
	}
}

func TestGetReport_NotFound(t *testing.T) {
	s := tempStore(t)
	_, err := s.GetReport(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListReports(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		r := sampleReport()
		r.OverallScore = 50 + i
		if _, err := s.SaveReport(ctx, r); err != nil {
			t.Fatalf("SaveReport %d: %v", i, err)
		}
	}

	list, err := s.ListReports(ctx, 2)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(list))
	}
	if list[0].Position != "Backend Developer" {
		t.Errorf("expected position, got %q", list[0].Position)
	}
	if list[0].EndedAt.IsZero() {
		t.Error("expected ended_at to be parsed")
	}
}

func TestJournalUsesStoreSchema(t *testing.T) {
	s := tempStore(t)
	j := logging.NewJournal(s.DB())
	ctx := context.Background()

	if err := j.Record(ctx, logging.Entry{SessionID: "sess-1", Kind: "started", Phase: "active"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	entries, err := j.Entries(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Phase != "active" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestOpenMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if _, err := s.SaveReport(context.Background(), sampleReport()); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
}
