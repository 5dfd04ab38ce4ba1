// notely/sources/psql/dao/dao.note.go
package dao

import (
	"context"
	"errors"
	"time"

	"notely/notely/sources/psql/models"

	"gorm.io/gorm"
)

// NoteDAO scopes every query by the owning user id. A note that exists but
// belongs to someone else is reported exactly like a missing one: nil, nil.
type NoteDAO struct {
	DB *gorm.DB
}

func NewNoteDAO(db *gorm.DB) *NoteDAO {
	return &NoteDAO{DB: db}
}

func orderImages(db *gorm.DB) *gorm.DB {
	return db.Order("created_at asc, id asc")
}

func withImages(notes ...*models.Note) {
	for _, n := range notes {
		if n.Images == nil {
			n.Images = []models.NoteImage{}
		}
	}
}

func (dao *NoteDAO) CreateNote(ctx context.Context, note *models.Note) error {
	if err := dao.DB.WithContext(ctx).Omit("User", "Images").Create(note).Error; err != nil {
		return err
	}
	withImages(note)
	return nil
}

// GetAllNotesByUser returns the user's notes, newest first, images attached.
func (dao *NoteDAO) GetAllNotesByUser(ctx context.Context, userID int) ([]models.Note, error) {
	notes := []models.Note{}
	err := dao.DB.WithContext(ctx).
		Preload("Images", orderImages).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	for i := range notes {
		withImages(&notes[i])
	}
	return notes, nil
}

// NoteOwned reports whether noteID exists and belongs to userID.
func (dao *NoteDAO) NoteOwned(ctx context.Context, userID, noteID int) (bool, error) {
	var count int64
	err := dao.DB.WithContext(ctx).
		Model(&models.Note{}).
		Where("id = ? AND user_id = ?", noteID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateOwnedNote rewrites title and content. updated_at is moved strictly
// past created_at even when the clock has not advanced.
func (dao *NoteDAO) UpdateOwnedNote(ctx context.Context, userID, noteID int, title, content string, now time.Time) (*models.Note, error) {
	var updated *models.Note
	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		note, err := getOwnedNote(tx, userID, noteID)
		if err != nil || note == nil {
			return err
		}
		res := tx.Model(&models.Note{}).
			Where("id = ? AND user_id = ?", noteID, userID).
			Updates(map[string]interface{}{
				"title":      title,
				"content":    content,
				"updated_at": touch(now, note.CreatedAt),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		updated, err = getOwnedNote(tx, userID, noteID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ToggleFavorite flips is_favorite and refreshes updated_at.
func (dao *NoteDAO) ToggleFavorite(ctx context.Context, userID, noteID int, now time.Time) (*models.Note, error) {
	var updated *models.Note
	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		note, err := getOwnedNote(tx, userID, noteID)
		if err != nil || note == nil {
			return err
		}
		res := tx.Model(&models.Note{}).
			Where("id = ? AND user_id = ?", noteID, userID).
			Updates(map[string]interface{}{
				"is_favorite": gorm.Expr("NOT is_favorite"),
				"updated_at":  touch(now, note.CreatedAt),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		updated, err = getOwnedNote(tx, userID, noteID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteOwnedNote removes the note and its image rows in one transaction and
// returns the image URLs that were attached, so the caller can clean up the
// blobs after commit. found is false when the note is missing or not owned.
func (dao *NoteDAO) DeleteOwnedNote(ctx context.Context, userID, noteID int) (urls []string, found bool, err error) {
	err = dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Note{}).Where("id = ? AND user_id = ?", noteID, userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		if err := tx.Model(&models.NoteImage{}).Where("note_id = ?", noteID).Pluck("image_url", &urls).Error; err != nil {
			return err
		}
		if err := tx.Where("note_id = ?", noteID).Delete(&models.NoteImage{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND user_id = ?", noteID, userID).Delete(&models.Note{})
		if res.Error != nil {
			return res.Error
		}
		found = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return urls, true, nil
}

func getOwnedNote(db *gorm.DB, userID, noteID int) (*models.Note, error) {
	var note models.Note
	err := db.Preload("Images", orderImages).
		Where("id = ? AND user_id = ?", noteID, userID).
		First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	withImages(&note)
	return &note, nil
}

func touch(now, createdAt time.Time) time.Time {
	now = now.Truncate(time.Microsecond)
	if !now.After(createdAt) {
		return createdAt.Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return now
}
