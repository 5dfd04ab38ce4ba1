package models

import "time"

// NoteImage is an image attached to a note. ImageURL is a blob-store URL, an
// in-app proxy path (/images/...) or a legacy local path (/uploads/...).
type NoteImage struct {
	ID        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	NoteID    int       `json:"note_id" gorm:"not null;index"`
	ImageURL  string    `json:"image_url" gorm:"type:varchar(1024);not null"`
	Filename  string    `json:"filename" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (NoteImage) TableName() string {
	return "note_images"
}
