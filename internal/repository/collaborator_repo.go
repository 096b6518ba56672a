package repository

import (
	"context"

	"bodega/internal/model"

	"gorm.io/gorm"
)

type CollaboratorRepository interface {
	Directory(ctx context.Context) ([]model.Collaborator, error)
	FindByID(ctx context.Context, id int) (*model.Collaborator, error)
	FindByEmail(ctx context.Context, email string) (*model.Collaborator, error)
	Create(ctx context.Context, collaborator *model.Collaborator) error
}

type collaboratorRepository struct {
	db *gorm.DB
}

func NewCollaboratorRepository(db *gorm.DB) CollaboratorRepository {
	return &collaboratorRepository{db: db}
}

// Directory returns the union the withdrawal forms consume: authorized
// collaborators (may approve) plus former employees (may still receive).
func (r *collaboratorRepository) Directory(ctx context.Context) ([]model.Collaborator, error) {
	var collaborators []model.Collaborator
	if err := GetDB(ctx, r.db).
		Where("authorized = ? OR employed = ?", true, false).
		Order("alias asc").
		Find(&collaborators).Error; err != nil {
		return nil, err
	}
	return collaborators, nil
}

func (r *collaboratorRepository) FindByID(ctx context.Context, id int) (*model.Collaborator, error) {
	var collaborator model.Collaborator
	if err := GetDB(ctx, r.db).First(&collaborator, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &collaborator, nil
}

func (r *collaboratorRepository) FindByEmail(ctx context.Context, email string) (*model.Collaborator, error) {
	var collaborator model.Collaborator
	if err := GetDB(ctx, r.db).Where("email ILIKE ?", email).First(&collaborator).Error; err != nil {
		return nil, err
	}
	return &collaborator, nil
}

func (r *collaboratorRepository) Create(ctx context.Context, collaborator *model.Collaborator) error {
	return GetDB(ctx, r.db).Create(collaborator).Error
}
