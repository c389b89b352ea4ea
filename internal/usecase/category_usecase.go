package usecase

import (
	"context"
	"net/http"

	"lojaia/internal/domain/model"
	repo "lojaia/internal/repository"
)

type CategoryUsecase struct {
	categoryRepo repo.CategoryRepository
}

// DI
func NewCategoryUsecase(categoryRepo repo.CategoryRepository) *CategoryUsecase {
	return &CategoryUsecase{categoryRepo: categoryRepo}
}

func (u *CategoryUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := u.categoryRepo.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return categories, nil
}
