package dao

import (
	"context"
	"errors"

	"notely/notely/sources/psql/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserDAO struct {
	DB *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{DB: db}
}

func (dao *UserDAO) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	err := dao.DB.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail matches case-insensitively so rows stored with mixed case
// resolve to the same user. The oldest row wins if several differ only in case.
func (dao *UserDAO) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := dao.DB.WithContext(ctx).
		Where("lower(email) = lower(?)", email).
		Order("id").
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// InsertIfAbsent inserts the user unless a row with the same email exists.
// It reports whether this call created the row. A concurrent insert of the
// same email is absorbed by the unique constraint rather than failing.
func (dao *UserDAO) InsertIfAbsent(ctx context.Context, email string, name, image *string) (bool, error) {
	user := models.User{
		Email: email,
		Name:  name,
		Image: image,
	}
	res := dao.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&user)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
