package controllers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"notely/notely/services/imageprep"
	"notely/notely/sources/psql/dao"
	"notely/notely/sources/psql/models"
	"notely/notely/sources/storage"
	"notely/notely/utils/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BlobStore uploads prepared image bytes and returns the URL to store.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type ImagesController struct {
	notes   *dao.NoteDAO
	images  *dao.NoteImageDAO
	blobs   BlobStore
	cleaner Cleaner
	now     func() time.Time
}

// NewImagesController wires the attachment store. blobs may be nil when no
// blob store is configured; uploads then fail as storage errors.
func NewImagesController(notes *dao.NoteDAO, images *dao.NoteImageDAO, blobs BlobStore, cleaner Cleaner) *ImagesController {
	if cleaner == nil {
		cleaner = nopCleaner{}
	}
	return &ImagesController{notes: notes, images: images, blobs: blobs, cleaner: cleaner, now: time.Now}
}

func objectKey(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("notes/%d-%s.jpg", now.UnixMilli(), suffix)
}

func displayName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	for utf8.RuneCountInString(name) > 255 {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	return name
}

// Attach uploads data and links it to the caller's note. Ownership is checked
// before anything is written to the blob store.
func (c *ImagesController) Attach(ctx context.Context, userID, noteID int, data []byte, filename string) (*models.NoteImage, error) {
	defer logging.LogDuration(ctx, "images.Attach")()
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image is empty", ErrInvalidInput)
	}

	owned, err := c.notes.NoteOwned(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrNoteNotFound
	}
	if c.blobs == nil {
		return nil, storage.ErrBlobStoreDisabled
	}

	prepared := imageprep.Prepare(data)
	key := objectKey(c.now())
	url, err := c.blobs.Put(ctx, key, prepared.Data, prepared.ContentType)
	if err != nil {
		return nil, err
	}

	img := &models.NoteImage{
		NoteID:   noteID,
		ImageURL: url,
		Filename: displayName(filename),
	}
	if err := c.images.CreateImage(ctx, img); err != nil {
		// The note may have been deleted between the check and the insert.
		c.cleaner.Enqueue(url)
		return nil, fmt.Errorf("record image: %w", err)
	}
	logging.AppLogger.Info("image attached",
		zap.Int("note_id", noteID), zap.String("key", key),
		zap.Int("bytes", len(prepared.Data)), zap.Bool("compressed", prepared.Compressed))
	return img, nil
}

// Detach deletes the image row owned through its note, then schedules the
// blob for removal.
func (c *ImagesController) Detach(ctx context.Context, userID, imageID int) error {
	defer logging.LogDuration(ctx, "images.Detach")()
	if userID <= 0 {
		return ErrUnauthorized
	}
	img, err := c.images.DeleteOwnedImage(ctx, userID, imageID)
	if err != nil {
		return err
	}
	if img == nil {
		return ErrImageNotFound
	}
	c.cleaner.Enqueue(img.ImageURL)
	return nil
}
