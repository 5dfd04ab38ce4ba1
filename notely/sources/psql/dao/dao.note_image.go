package dao

import (
	"context"
	"errors"

	"notely/notely/sources/psql/models"

	"gorm.io/gorm"
)

type NoteImageDAO struct {
	DB *gorm.DB
}

func NewNoteImageDAO(db *gorm.DB) *NoteImageDAO {
	return &NoteImageDAO{DB: db}
}

func (dao *NoteImageDAO) CreateImage(ctx context.Context, img *models.NoteImage) error {
	return dao.DB.WithContext(ctx).Create(img).Error
}

// DeleteOwnedImage removes the image row when the caller owns the parent note
// and returns the deleted row, or nil when there was nothing to delete.
func (dao *NoteImageDAO) DeleteOwnedImage(ctx context.Context, userID, imageID int) (*models.NoteImage, error) {
	var deleted *models.NoteImage
	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		img, err := getOwnedImage(tx, userID, imageID)
		if err != nil || img == nil {
			return err
		}
		owned := tx.Model(&models.Note{}).Select("id").Where("user_id = ?", userID)
		res := tx.Where("id = ? AND note_id IN (?)", imageID, owned).Delete(&models.NoteImage{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			deleted = img
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// ReferencedURLs returns every image_url currently stored.
func (dao *NoteImageDAO) ReferencedURLs(ctx context.Context) (map[string]struct{}, error) {
	var urls []string
	if err := dao.DB.WithContext(ctx).Model(&models.NoteImage{}).Pluck("image_url", &urls).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		set[u] = struct{}{}
	}
	return set, nil
}

// getOwnedImage joins through notes so only the owner of the parent note can
// see the image.
func getOwnedImage(db *gorm.DB, userID, imageID int) (*models.NoteImage, error) {
	var img models.NoteImage
	err := db.Model(&models.NoteImage{}).
		Select("note_images.*").
		Joins("JOIN notes ON notes.id = note_images.note_id").
		Where("note_images.id = ? AND notes.user_id = ?", imageID, userID).
		First(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}
