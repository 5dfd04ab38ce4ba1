// notely/controllers/user.go
package controllers

import (
	"context"

	"notely/notely/sources/psql/dao"
	"notely/notely/sources/psql/models"
)

type UserController struct {
	dao *dao.UserDAO
}

func NewUserController(dao *dao.UserDAO) *UserController {
	return &UserController{dao: dao}
}

// Me returns the stored profile of the signed-in user.
func (c *UserController) Me(ctx context.Context, userID int) (*models.User, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	user, err := c.dao.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}
