package controllers

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"notely/notely/sources/psql/models"
	"notely/notely/sources/psql/psqltest"
	"notely/notely/sources/storage"
)

var keyPattern = regexp.MustCompile(`^notes/\d+-[0-9a-f]{12}\.jpg$`)

func TestAttachStoresImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := psqltest.CreateUser(t, f.db, "img@example.com")
	note, err := f.notes.Create(ctx, user.ID, "t", "c")
	if err != nil {
		t.Fatal(err)
	}

	img, err := f.images.Attach(ctx, user.ID, note.ID, []byte("GIF89a tiny"), `C:\photos\cat.gif`)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if img.NoteID != note.ID || img.Filename != "cat.gif" {
		t.Errorf("unexpected image row %+v", img)
	}
	if f.blobs.count() != 1 || !keyPattern.MatchString(f.blobs.puts[0]) {
		t.Errorf("unexpected blob keys %v", f.blobs.puts)
	}
	if f.blobs.types[0] != "image/gif" {
		t.Errorf("expected detected content type, got %s", f.blobs.types[0])
	}

	list, err := f.notes.List(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list[0].Images) != 1 || list[0].Images[0].ImageURL != img.ImageURL {
		t.Errorf("image not listed with note: %+v", list[0].Images)
	}
}

func TestAttachToForeignNoteWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := psqltest.CreateUser(t, f.db, "owner@example.com")
	intruder := psqltest.CreateUser(t, f.db, "intruder@example.com")
	note, err := f.notes.Create(ctx, owner.ID, "t", "c")
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.images.Attach(ctx, intruder.ID, note.ID, []byte("data"), "x.png")
	requireErr(t, err, ErrNoteNotFound)
	_, err = f.images.Attach(ctx, intruder.ID, note.ID+99, []byte("data"), "x.png")
	requireErr(t, err, ErrNoteNotFound)

	if f.blobs.count() != 0 {
		t.Errorf("expected zero blob writes, got %d", f.blobs.count())
	}
	var rows int64
	f.db.Model(&models.NoteImage{}).Count(&rows)
	if rows != 0 {
		t.Errorf("expected zero image rows, got %d", rows)
	}
}

func TestAttachRejectsEmptyData(t *testing.T) {
	f := newFixture(t)
	user := psqltest.CreateUser(t, f.db, "empty@example.com")

	_, err := f.images.Attach(context.Background(), user.ID, 1, nil, "x.png")
	requireErr(t, err, ErrInvalidInput)
}

func TestAttachUploadFailureIsStorageError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := psqltest.CreateUser(t, f.db, "fail@example.com")
	note, err := f.notes.Create(ctx, user.ID, "t", "c")
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("minio down")
	f.blobs.err = boom

	_, err = f.images.Attach(ctx, user.ID, note.ID, []byte("data"), "x.png")
	if !errors.Is(err, boom) {
		t.Errorf("expected upload error, got %v", err)
	}
}

func TestAttachWithoutBlobStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := psqltest.CreateUser(t, f.db, "noblob@example.com")
	note, err := f.notes.Create(ctx, user.ID, "t", "c")
	if err != nil {
		t.Fatal(err)
	}
	f.images.blobs = nil

	_, err = f.images.Attach(ctx, user.ID, note.ID, []byte("data"), "x.png")
	requireErr(t, err, storage.ErrBlobStoreDisabled)
}

func TestAttachCleansUpWhenRowInsertFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := psqltest.CreateUser(t, f.db, "race@example.com")
	note, err := f.notes.Create(ctx, user.ID, "t", "c")
	if err != nil {
		t.Fatal(err)
	}
	// The note disappears while the upload is in flight.
	f.blobs.before = func() {
		f.db.Delete(&models.Note{}, note.ID)
	}

	_, err = f.images.Attach(ctx, user.ID, note.ID, []byte("data"), "x.png")
	if err == nil {
		t.Fatal("expected insert to fail")
	}
	if got := f.cleaner.seen(); len(got) != 1 || got[0] != "/images/"+f.blobs.puts[0] {
		t.Errorf("expected uploaded object to be scheduled for cleanup, got %v", got)
	}
}

func TestDetach(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := psqltest.CreateUser(t, f.db, "owner@example.com")
	other := psqltest.CreateUser(t, f.db, "other@example.com")
	note, err := f.notes.Create(ctx, owner.ID, "t", "c")
	if err != nil {
		t.Fatal(err)
	}
	img, err := f.images.Attach(ctx, owner.ID, note.ID, []byte("data"), "x.png")
	if err != nil {
		t.Fatal(err)
	}

	requireErr(t, f.images.Detach(ctx, other.ID, img.ID), ErrImageNotFound)
	if len(f.cleaner.seen()) != 0 {
		t.Fatal("foreign detach must not schedule cleanup")
	}

	if err := f.images.Detach(ctx, owner.ID, img.ID); err != nil {
		t.Fatalf("detach: %v", err)
	}
	if got := f.cleaner.seen(); len(got) != 1 || got[0] != img.ImageURL {
		t.Errorf("expected %s scheduled, got %v", img.ImageURL, got)
	}
	requireErr(t, f.images.Detach(ctx, owner.ID, img.ID), ErrImageNotFound)
}
