// notely/controllers/notes.go
package controllers

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"notely/notely/sources/psql/dao"
	"notely/notely/sources/psql/models"
	"notely/notely/utils/logging"

	"go.uber.org/zap"
)

const maxTitleLen = 255

// Cleaner schedules blob removal. Enqueue must not block.
type Cleaner interface {
	Enqueue(urls ...string)
}

type nopCleaner struct{}

func (nopCleaner) Enqueue(...string) {}

type NotesController struct {
	dao     *dao.NoteDAO
	cleaner Cleaner
	now     func() time.Time
}

func NewNotesController(dao *dao.NoteDAO, cleaner Cleaner) *NotesController {
	if cleaner == nil {
		cleaner = nopCleaner{}
	}
	return &NotesController{dao: dao, cleaner: cleaner, now: time.Now}
}

func validTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "", fmt.Errorf("%w: title is longer than %d characters", ErrInvalidInput, maxTitleLen)
	}
	return title, nil
}

func (c *NotesController) List(ctx context.Context, userID int) ([]models.Note, error) {
	defer logging.LogDuration(ctx, "notes.List")()
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	return c.dao.GetAllNotesByUser(ctx, userID)
}

func (c *NotesController) Create(ctx context.Context, userID int, title, content string) (*models.Note, error) {
	defer logging.LogDuration(ctx, "notes.Create")()
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	title, err := validTitle(title)
	if err != nil {
		return nil, err
	}
	now := c.now().Truncate(time.Microsecond)
	note := &models.Note{
		UserID:    userID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.dao.CreateNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (c *NotesController) Update(ctx context.Context, userID, noteID int, title, content string) (*models.Note, error) {
	defer logging.LogDuration(ctx, "notes.Update")()
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	title, err := validTitle(title)
	if err != nil {
		return nil, err
	}
	note, err := c.dao.UpdateOwnedNote(ctx, userID, noteID, title, content, c.now())
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}
	return note, nil
}

func (c *NotesController) ToggleFavorite(ctx context.Context, userID, noteID int) (*models.Note, error) {
	defer logging.LogDuration(ctx, "notes.ToggleFavorite")()
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	note, err := c.dao.ToggleFavorite(ctx, userID, noteID, c.now())
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}
	return note, nil
}

// Delete removes the note and its image rows, then hands the image URLs to
// the cleaner. Cleanup outcome never affects the result.
func (c *NotesController) Delete(ctx context.Context, userID, noteID int) error {
	defer logging.LogDuration(ctx, "notes.Delete")()
	if userID <= 0 {
		return ErrUnauthorized
	}
	urls, found, err := c.dao.DeleteOwnedNote(ctx, userID, noteID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNoteNotFound
	}
	if len(urls) > 0 {
		logging.AppLogger.Info("scheduling image cleanup",
			zap.Int("note_id", noteID), zap.Int("images", len(urls)), zap.String("request_id", logging.RequestID(ctx)))
		c.cleaner.Enqueue(urls...)
	}
	return nil
}
