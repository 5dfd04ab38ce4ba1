package controllers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"notely/notely/sources/psql/dao"
	"notely/notely/sources/psql/psqltest"

	"gorm.io/gorm"
)

// recordingCleaner captures enqueued URLs instead of removing anything.
type recordingCleaner struct {
	mu   sync.Mutex
	urls []string
}

func (r *recordingCleaner) Enqueue(urls ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, urls...)
}

func (r *recordingCleaner) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls...)
}

// fakeBlobs stands in for MinIO.
type fakeBlobs struct {
	mu     sync.Mutex
	puts   []string
	types  []string
	err    error
	before func()
}

func (f *fakeBlobs) Put(_ context.Context, key string, _ []byte, contentType string) (string, error) {
	if f.before != nil {
		f.before()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.puts = append(f.puts, key)
	f.types = append(f.types, contentType)
	return "/images/" + key, nil
}

func (f *fakeBlobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.puts)
}

type fixture struct {
	db      *gorm.DB
	notes   *NotesController
	images  *ImagesController
	cleaner *recordingCleaner
	blobs   *fakeBlobs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := psqltest.Open(t)
	cleaner := &recordingCleaner{}
	blobs := &fakeBlobs{}
	noteDAO := dao.NewNoteDAO(db)
	return &fixture{
		db:      db,
		notes:   NewNotesController(noteDAO, cleaner),
		images:  NewImagesController(noteDAO, dao.NewNoteImageDAO(db), blobs, cleaner),
		cleaner: cleaner,
		blobs:   blobs,
	}
}

func requireErr(t *testing.T, err error, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}
