package usecase

import (
	"context"
	"errors"
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type UserUsecase struct {
	users repo.UserRepository
}

func NewUserUsecase(users repo.UserRepository) *UserUsecase {
	return &UserUsecase{users: users}
}

func (u *UserUsecase) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, &NotFoundError{Kind: "user", ID: userID}
	}
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return user, nil
}

// 無効化されたユーザーは middleware.UserSync で403になる
func (u *UserUsecase) AdminSetActive(ctx context.Context, adminUserID string, userID string, active bool) (*model.User, error) {
	if adminUserID == "" {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if userID == adminUserID && !active {
		return nil, NewHTTPError(http.StatusBadRequest, "cannot deactivate yourself")
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, &NotFoundError{Kind: "user", ID: userID}
	}
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	user.IsActive = active
	if err := u.users.Update(ctx, user); err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return user, nil
}
