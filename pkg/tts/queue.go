package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/segmentio/ksuid"

	"writegeist/pkg/store"
	"writegeist/pkg/utils"
)

// ErrGenerationActive reports that a rendering for the chapter is already
// queued or in progress.
var ErrGenerationActive = errors.New("tts: generation already active for chapter")

type Queue struct {
	synth  Synthesizer
	store  *store.Store
	dir    string
	stop   chan struct{}
	items  chan *Item
	active *utils.SyncMap[map[string]struct{}, string, struct{}]
}

type Item struct {
	JobID     string
	ChapterID string
	Title     string
	Text      string
	Response  chan string
	Error     chan error
}

// New builds a queue writing audio files under dir. Jobs are persisted in st
// so status survives across requests.
func New(synth Synthesizer, st *store.Store, dir string) (*Queue, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("tts: creating audio dir: %w", err)
	}
	return &Queue{
		synth:  synth,
		store:  st,
		dir:    dir,
		items:  make(chan *Item, 100),
		stop:   make(chan struct{}),
		active: utils.NewSyncMap[map[string]struct{}](),
	}, nil
}

func (q *Queue) Start() {
	go q.processLoop()
}

func (q *Queue) Stop() {
	close(q.stop)
}

// Enqueue creates an audio job for the chapter and queues it. At most one
// rendering per chapter runs at a time.
func (q *Queue) Enqueue(chapterID string) (string, chan string, chan error, error) {
	ch, err := q.store.GetChapter(chapterID)
	if err != nil {
		return "", nil, nil, err
	}
	// Claim the chapter atomically so two concurrent requests cannot both
	// pass a busy check and create duplicate jobs.
	if _, busy := q.active.LoadOrStore(chapterID, struct{}{}); busy {
		return "", nil, nil, ErrGenerationActive
	}

	jobID := ksuid.New().String()
	if err := q.store.CreateAudioJob(jobID, chapterID); err != nil {
		q.active.Delete(chapterID)
		return "", nil, nil, err
	}

	respCh := make(chan string, 1)
	errCh := make(chan error, 1)
	select {
	case q.items <- &Item{
		JobID:     jobID,
		ChapterID: chapterID,
		Title:     ch.Title,
		Text:      ch.Text,
		Response:  respCh,
		Error:     errCh,
	}:
		return jobID, respCh, errCh, nil
	default:
		q.active.Delete(chapterID)
		if err := q.store.UpdateAudioStatus(jobID, store.AudioFailed, "", 0); err != nil {
			log.Error("marking overflowed audio job failed", "job", jobID, "error", err)
		}
		return "", nil, nil, errors.New("tts: queue is full")
	}
}

// AudioPath returns the file path for a completed job.
func (q *Queue) AudioPath(jobID string) string {
	return filepath.Join(q.dir, utils.SanitizeFilename(jobID)+".mp3")
}

func (q *Queue) processLoop() {
	log.Info("audio queue started")
	for {
		select {
		case <-q.stop:
			log.Info("audio queue stopped")
			return
		case item := <-q.items:
			q.processItem(item)
		}
	}
}

func (q *Queue) processItem(item *Item) {
	defer q.active.Delete(item.ChapterID)

	log.Info("rendering chapter audio", "chapter", utils.LimitStr(item.Title, 50), "job", item.JobID)
	if err := q.store.UpdateAudioStatus(item.JobID, store.AudioProcessing, "", 0); err != nil {
		log.Error("updating audio job status", "job", item.JobID, "error", err)
	}

	data, err := q.synth.Synthesize(context.Background(), item.Text)
	if err != nil {
		q.fail(item, err)
		return
	}

	path := q.AudioPath(item.JobID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		q.fail(item, fmt.Errorf("tts: writing audio file: %w", err))
		return
	}

	duration := EstimateDuration(item.Text)
	if err := q.store.UpdateAudioStatus(item.JobID, store.AudioComplete, path, duration); err != nil {
		log.Error("updating audio job status", "job", item.JobID, "error", err)
	}

	item.Response <- path
	close(item.Error)
}

func (q *Queue) fail(item *Item, err error) {
	log.Error("audio rendering failed", "job", item.JobID, "error", err)
	if uerr := q.store.UpdateAudioStatus(item.JobID, store.AudioFailed, "", 0); uerr != nil {
		log.Error("updating audio job status", "job", item.JobID, "error", uerr)
	}
	item.Error <- err
	close(item.Response)
}

// EstimateDuration approximates playback length in seconds at a 150 WPM
// narration pace.
func EstimateDuration(text string) int {
	words := len(strings.Fields(text))
	return int(float64(words) / 150.0 * 60.0)
}
