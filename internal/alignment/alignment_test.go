package alignment

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"reelgen/internal/captions"
	"reelgen/internal/services/openaiapi"
)

type fakeTranscriber struct {
	req        openaiapi.TranscribeRequest
	transcript openaiapi.Transcript
	err        error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, req openaiapi.TranscribeRequest) (openaiapi.Transcript, error) {
	f.req = req
	return f.transcript, f.err
}

func TestWhisperAlignConvertsWords(t *testing.T) {
	fake := &fakeTranscriber{transcript: openaiapi.Transcript{Words: []openaiapi.Word{
		{Word: " Ohayou", Start: 0.0, End: 0.42},
		{Word: "gozaimasu", Start: 0.415, End: 1.1},
		{Word: " ", Start: 1.1, End: 1.2},
		{Word: "minna", Start: 1.3, End: 1.3},
	}}}
	w := &Whisper{Client: fake, Model: "whisper-1", Language: "ja"}

	words, err := w.Align(context.Background(), "/tmp/speech.mp3")
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	if fake.req.Model != "whisper-1" || fake.req.Language != "ja" || fake.req.AudioPath != "/tmp/speech.mp3" {
		t.Fatalf("unexpected request %+v", fake.req)
	}
	if len(words) != 4 || words[1].Start != 0.415 || words[3].End != 1.3 {
		t.Fatalf("Align should return words as reported, got %+v", words)
	}

	tidied, repairs := Tidy(words)
	want := []captions.WordInterval{
		{Text: "Ohayou", Start: 0, End: 0.42},
		{Text: "gozaimasu minna", Start: 0.42, End: 1.1},
	}
	if len(tidied) != len(want) {
		t.Fatalf("unexpected words %+v", tidied)
	}
	for i := range want {
		if tidied[i] != want[i] {
			t.Fatalf("word %d = %+v, want %+v", i, tidied[i], want[i])
		}
	}
	if repairs != (Repairs{Blank: 1, Clamped: 1, Merged: 1}) {
		t.Fatalf("unexpected repairs %+v", repairs)
	}
	if err := captions.Validate(tidied); err != nil {
		t.Fatalf("tidied words should validate: %v", err)
	}
	if w.Name() != "whisper:whisper-1" {
		t.Fatalf("unexpected name %s", w.Name())
	}
}

func TestWhisperAlignEmptyTranscript(t *testing.T) {
	w := &Whisper{Client: &fakeTranscriber{}}
	if _, err := w.Align(context.Background(), "a.mp3"); !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("expected ErrEmptyTranscript, got %v", err)
	}
	blank := &fakeTranscriber{transcript: openaiapi.Transcript{Words: []openaiapi.Word{{Word: " ", Start: 0, End: 0.2}}}}
	w = &Whisper{Client: blank}
	if _, err := w.Align(context.Background(), "a.mp3"); !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("expected ErrEmptyTranscript for blank words, got %v", err)
	}
	boom := errors.New("http 500")
	w = &Whisper{Client: &fakeTranscriber{err: boom}}
	if _, err := w.Align(context.Background(), "a.mp3"); !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestTidyLeavesLargeOverlapForValidate(t *testing.T) {
	in := []captions.WordInterval{
		{Text: "a", Start: 0, End: 1},
		{Text: "b", Start: 0.2, End: 0.8},
	}
	words, repairs := Tidy(in)
	if repairs.Total() != 0 {
		t.Fatalf("expected no repairs, got %+v", repairs)
	}
	if len(words) != 2 || words[0] != in[0] || words[1] != in[1] {
		t.Fatalf("overlap should pass through unchanged, got %+v", words)
	}
	if err := captions.Validate(words); !errors.Is(err, captions.ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	if _, err := captions.Segment(words, 1.0); !errors.Is(err, captions.ErrInvalidInterval) {
		t.Fatalf("Segment: expected ErrInvalidInterval, got %v", err)
	}
}

func TestTidyClampsJitterWithinTolerance(t *testing.T) {
	words, repairs := Tidy([]captions.WordInterval{
		{Text: "a", Start: -0.004, End: 0.5},
		{Text: "b", Start: 0.495, End: 0.9},
	})
	want := []captions.WordInterval{
		{Text: "a", Start: 0, End: 0.5},
		{Text: "b", Start: 0.5, End: 0.9},
	}
	if len(words) != 2 || words[0] != want[0] || words[1] != want[1] {
		t.Fatalf("got %+v, want %+v", words, want)
	}
	if repairs != (Repairs{Clamped: 2}) {
		t.Fatalf("unexpected repairs %+v", repairs)
	}
}

func TestTidyKeepsInvalidTimes(t *testing.T) {
	words, repairs := Tidy([]captions.WordInterval{
		{Text: "a", Start: math.NaN(), End: 1},
		{Text: "b", Start: -0.2, End: 0.3},
		{Text: "c", Start: 2, End: 1.5},
	})
	if len(words) != 3 || repairs.Total() != 0 {
		t.Fatalf("invalid words should pass through, got %+v %+v", words, repairs)
	}
	if words[1].Start != -0.2 || words[2].End != 1.5 {
		t.Fatalf("times changed: %+v", words)
	}
	if err := captions.Validate(words); !errors.Is(err, captions.ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestTidyMergesZeroLengthWords(t *testing.T) {
	words, repairs := Tidy([]captions.WordInterval{
		{Text: "¥", Start: 0.1, End: 0.1},
		{Text: "500", Start: 0.1, End: 0.5},
		{Text: "yen", Start: 0.6, End: 0.6},
		{Text: "desu", Start: 0.7, End: 1.0},
	})
	want := []captions.WordInterval{
		{Text: "¥ 500 yen", Start: 0.1, End: 0.5},
		{Text: "desu", Start: 0.7, End: 1.0},
	}
	if len(words) != len(want) || words[0] != want[0] || words[1] != want[1] {
		t.Fatalf("got %+v, want %+v", words, want)
	}
	if repairs != (Repairs{Merged: 2}) {
		t.Fatalf("unexpected repairs %+v", repairs)
	}

	only, _ := Tidy([]captions.WordInterval{{Text: "z", Start: 1, End: 1}})
	if err := captions.Validate(only); !errors.Is(err, captions.ErrInvalidInterval) {
		t.Fatalf("a lone zero-length word should still be rejected, got %v", err)
	}
}

type countingAligner struct {
	calls int
	words []captions.WordInterval
}

func (c *countingAligner) Align(context.Context, string) ([]captions.WordInterval, error) {
	c.calls++
	return c.words, nil
}

func (c *countingAligner) Name() string { return "fake:1" }

type memoryStore struct {
	data map[string]string
	err  error
}

func (m *memoryStore) Transcript(_ context.Context, hash, aligner string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.data[hash+"/"+aligner]
	return v, ok, nil
}

func (m *memoryStore) PutTranscript(_ context.Context, hash, aligner, words string) error {
	if m.err != nil {
		return m.err
	}
	m.data[hash+"/"+aligner] = words
	return nil
}

func writeAudio(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCachedAlignerReusesTranscript(t *testing.T) {
	inner := &countingAligner{words: []captions.WordInterval{{Text: "neko", Start: 0, End: 0.5}}}
	cached := &Cached{Inner: inner, Store: &memoryStore{data: map[string]string{}}}
	first := writeAudio(t, "a.mp3", "same bytes")
	second := writeAudio(t, "b.mp3", "same bytes")

	for _, path := range []string{first, second} {
		words, err := cached.Align(context.Background(), path)
		if err != nil {
			t.Fatalf("Align returned error: %v", err)
		}
		if len(words) != 1 || words[0].Text != "neko" {
			t.Fatalf("unexpected words %+v", words)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("expected one inner call for identical audio, got %d", inner.calls)
	}

	if _, err := cached.Align(context.Background(), writeAudio(t, "c.mp3", "different")); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Fatalf("different audio should miss the cache, got %d calls", inner.calls)
	}
}

func TestCachedAlignerSurvivesStoreFailure(t *testing.T) {
	inner := &countingAligner{words: []captions.WordInterval{{Text: "inu", Start: 0, End: 0.3}}}
	cached := &Cached{Inner: inner, Store: &memoryStore{err: errors.New("database is locked")}}
	words, err := cached.Align(context.Background(), writeAudio(t, "a.mp3", "x"))
	if err != nil || len(words) != 1 {
		t.Fatalf("store failure should not fail alignment: %v", err)
	}
}

func TestHashFile(t *testing.T) {
	hash, err := HashFile(writeAudio(t, "a.mp3", ""))
	if err != nil {
		t.Fatal(err)
	}
	const emptyBlake3 = "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
	if hash != emptyBlake3 {
		t.Fatalf("unexpected digest %s", hash)
	}
	if _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
