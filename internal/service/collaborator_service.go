package service

import (
	"context"
	"errors"

	"bodega/internal/model"
	"bodega/internal/repository"

	"gorm.io/gorm"
)

type CollaboratorResponse struct {
	ID         int    `json:"id"`
	Alias      string `json:"alias"`
	FullName   string `json:"full_name"`
	Authorized bool   `json:"authorized"`
}

// DirectoryResponse partitions the directory by the authorized flag:
// authorized collaborators may approve, the rest may only receive.
type DirectoryResponse struct {
	Approvers []CollaboratorResponse `json:"approvers"`
	Receivers []CollaboratorResponse `json:"receivers"`
}

type CollaboratorService interface {
	Directory(ctx context.Context) (*DirectoryResponse, error)
	MatchByEmail(ctx context.Context, email string) (*CollaboratorResponse, error)
}

type collaboratorService struct {
	repo repository.CollaboratorRepository
}

func NewCollaboratorService(repo repository.CollaboratorRepository) CollaboratorService {
	return &collaboratorService{repo: repo}
}

func (s *collaboratorService) Directory(ctx context.Context) (*DirectoryResponse, error) {
	collaborators, err := s.repo.Directory(ctx)
	if err != nil {
		return nil, err
	}

	res := &DirectoryResponse{
		Approvers: []CollaboratorResponse{},
		Receivers: []CollaboratorResponse{},
	}
	for _, c := range collaborators {
		entry := mapCollaborator(&c)
		if c.Authorized {
			res.Approvers = append(res.Approvers, entry)
		} else {
			res.Receivers = append(res.Receivers, entry)
		}
	}
	return res, nil
}

// MatchByEmail resolves the authenticated user to a directory entry so forms
// can pre-fill the approver. Returns nil without error when no entry matches.
func (s *collaboratorService) MatchByEmail(ctx context.Context, email string) (*CollaboratorResponse, error) {
	if email == "" {
		return nil, nil
	}

	collaborator, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	entry := mapCollaborator(collaborator)
	return &entry, nil
}

func mapCollaborator(c *model.Collaborator) CollaboratorResponse {
	return CollaboratorResponse{
		ID:         c.ID,
		Alias:      c.DisplayName(),
		FullName:   c.FullName,
		Authorized: c.Authorized,
	}
}
