package tts

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"writegeist/pkg/store"
)

type fakeSynth struct {
	data    []byte
	err     error
	release chan struct{} // when non-nil, Synthesize blocks until closed
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if f.release != nil {
		<-f.release
	}
	return f.data, f.err
}

func newTestQueue(t *testing.T, synth Synthesizer) (*Queue, *store.Store) {
	t.Helper()
	st, err := store.New(store.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	q, err := New(synth, st, t.TempDir())
	if err != nil {
		t.Fatalf("tts.New: %v", err)
	}
	q.Start()
	t.Cleanup(q.Stop)
	return q, st
}

func seedChapter(t *testing.T, st *store.Store, id, text string) {
	t.Helper()
	if err := st.InsertChapter(store.Chapter{ID: id, Title: "Chapter " + id, Text: text}); err != nil {
		t.Fatalf("InsertChapter: %v", err)
	}
}

func TestEnqueue_CompletesJob(t *testing.T) {
	q, st := newTestQueue(t, &fakeSynth{data: []byte("mp3 bytes")})
	seedChapter(t, st, "ch1", "Kane walked the shore at dusk while the tide came in slowly.")

	jobID, respCh, errCh, err := q.Enqueue("ch1")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	select {
	case path := <-respCh:
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			t.Fatalf("reading audio file: %v", rerr)
		}
		if string(data) != "mp3 bytes" {
			t.Errorf("audio file content = %q", data)
		}
	case err := <-errCh:
		t.Fatalf("unexpected job error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("job did not complete")
	}

	job, err := st.GetAudioJob(jobID)
	if err != nil {
		t.Fatalf("GetAudioJob: %v", err)
	}
	if job.Status != store.AudioComplete {
		t.Errorf("status = %s, want %s", job.Status, store.AudioComplete)
	}
	if job.AudioPath == "" {
		t.Error("completed job should record its audio path")
	}
	if job.Duration <= 0 {
		t.Errorf("duration = %d, want > 0", job.Duration)
	}
}

func TestEnqueue_SynthesisFailureMarksJobFailed(t *testing.T) {
	q, st := newTestQueue(t, &fakeSynth{err: errors.New("api down")})
	seedChapter(t, st, "ch1", "Some chapter text.")

	jobID, respCh, errCh, err := q.Enqueue("ch1")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected a synthesis error")
		}
	case path := <-respCh:
		t.Fatalf("unexpected success: %s", path)
	case <-time.After(5 * time.Second):
		t.Fatal("job did not finish")
	}

	job, err := st.GetAudioJob(jobID)
	if err != nil {
		t.Fatalf("GetAudioJob: %v", err)
	}
	if job.Status != store.AudioFailed {
		t.Errorf("status = %s, want %s", job.Status, store.AudioFailed)
	}
}

func TestEnqueue_UnknownChapter(t *testing.T) {
	q, _ := newTestQueue(t, &fakeSynth{data: []byte("x")})

	if _, _, _, err := q.Enqueue("missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Enqueue(missing) error = %v, want ErrNotFound", err)
	}
}

func TestEnqueue_RejectsConcurrentGenerationForSameChapter(t *testing.T) {
	release := make(chan struct{})
	q, st := newTestQueue(t, &fakeSynth{data: []byte("x"), release: release})
	seedChapter(t, st, "ch1", "Text.")

	_, respCh, errCh, err := q.Enqueue("ch1")
	if err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}

	if _, _, _, err := q.Enqueue("ch1"); !errors.Is(err, ErrGenerationActive) {
		t.Errorf("second Enqueue error = %v, want ErrGenerationActive", err)
	}

	close(release)
	select {
	case <-respCh:
	case err := <-errCh:
		t.Fatalf("unexpected job error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("job did not complete")
	}
}

func TestEstimateDuration(t *testing.T) {
	if got := EstimateDuration("one two three"); got != 1 {
		t.Errorf("EstimateDuration(3 words) = %d, want 1", got)
	}
	// 150 words narrate in one minute.
	var words string
	for range 150 {
		words += "word "
	}
	if got := EstimateDuration(words); got != 60 {
		t.Errorf("EstimateDuration(150 words) = %d, want 60", got)
	}
}
