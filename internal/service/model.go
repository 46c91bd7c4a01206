package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lexicognize/lexicognize/internal/middleware"
	"github.com/lexicognize/lexicognize/internal/model"
	"github.com/lexicognize/lexicognize/internal/repository"
	"github.com/lexicognize/lexicognize/internal/storage"
)

// Model service errors.
var (
	ErrModelNotFound = errors.New("model not found")
	ErrModelNameUsed = errors.New("model with this name already exists")
)

// ModelService manages fine-tuned model metadata and sharing.
type ModelService struct {
	repo   *repository.Repository
	store  *storage.Local
	logger *slog.Logger
}

// NewModelService creates a ModelService.
func NewModelService(repo *repository.Repository, store *storage.Local, logger *slog.Logger) *ModelService {
	return &ModelService{
		repo:   repo,
		store:  store,
		logger: logger.With("component", "service.model"),
	}
}

// Get returns a model the user can access.
func (s *ModelService) Get(ctx context.Context, userID, id string) (*model.UserModel, error) {
	m, err := s.repo.GetUserModelByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrModelNotFound) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("get model: %w", err)
	}
	if !m.AccessibleBy(userID) {
		return nil, ErrModelNotFound
	}
	return m, nil
}

// List returns models visible to the user.
func (s *ModelService) List(ctx context.Context, filter repository.ModelFilter, cursor string, limit int) ([]*model.UserModel, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListUserModels(ctx, filter, cursor, limit)
}

// UpdateModelInput defines mutable model fields.
type UpdateModelInput struct {
	Name        *string
	Description *string
	IsPublic    *bool
}

// Update edits model metadata. Owner only.
func (s *ModelService) Update(ctx context.Context, userID, id string, input UpdateModelInput) (*model.UserModel, error) {
	m, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := middleware.ValidateResourceName(*input.Name); err != nil {
			return nil, err
		}
		m.Name = *input.Name
	}
	if input.Description != nil {
		if err := middleware.ValidateDescription(*input.Description); err != nil {
			return nil, err
		}
		m.Description = *input.Description
	}
	if input.IsPublic != nil {
		m.IsPublic = *input.IsPublic
	}

	if err := s.repo.UpdateUserModel(ctx, m); err != nil {
		if errors.Is(err, repository.ErrModelExists) {
			return nil, ErrModelNameUsed
		}
		return nil, fmt.Errorf("update model: %w", err)
	}
	return m, nil
}

// Share replaces the model's share list. Owner only.
func (s *ModelService) Share(ctx context.Context, userID, id string, sharedWith []string) error {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.ShareUserModel(ctx, id, sharedWith); err != nil {
		return fmt.Errorf("share model: %w", err)
	}
	return nil
}

// Delete soft-deletes a model and removes its local artifacts. Archived
// copies in object storage are left in place.
func (s *ModelService) Delete(ctx context.Context, userID, id string) error {
	m, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteUserModel(ctx, id); err != nil {
		return fmt.Errorf("delete model: %w", err)
	}
	if m.TrainingJobID != "" {
		if err := s.store.RemoveModelDir(m.TrainingJobID); err != nil {
			s.logger.Warn("remove model artifacts", "model_id", id, "error", err)
		}
	}
	return nil
}

// BaseModels returns the pretrained checkpoint catalog.
func (s *ModelService) BaseModels() []model.BaseModelInfo {
	return model.BaseModelCatalog()
}

func (s *ModelService) getOwned(ctx context.Context, userID, id string) (*model.UserModel, error) {
	m, err := s.repo.GetUserModelByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrModelNotFound) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("get model: %w", err)
	}
	if m.UserID != userID {
		return nil, ErrModelNotFound
	}
	return m, nil
}
