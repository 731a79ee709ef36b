package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"PortfolioCMS/internal/model"
)

// ProjectRepo - доступ к таблице projects
type ProjectRepo interface {
	CreateProject(ctx context.Context, id string, in model.ProjectInput, position *int) (*model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	UpdateProject(ctx context.Context, id string, in model.ProjectInput) (*model.Project, error)
	DeleteProject(ctx context.Context, id string) error
	ListProjects(ctx context.Context, f model.ListFilter) ([]model.Project, int, error)
}

// EducationRepo - доступ к таблице education
type EducationRepo interface {
	CreateEducation(ctx context.Context, id string, in model.EducationInput) (*model.Education, error)
	GetEducation(ctx context.Context, id string) (*model.Education, error)
	UpdateEducation(ctx context.Context, id string, in model.EducationInput) (*model.Education, error)
	DeleteEducation(ctx context.Context, id string) error
	ListEducation(ctx context.Context, f model.ListFilter) ([]model.Education, int, error)
}

// ProjectsService - CRUD проектов
type ProjectsService = Items[model.Project, model.ProjectInput]

// EducationService - CRUD записей об образовании
type EducationService = Items[model.Education, model.EducationInput]

// NewProjectsService создаёт сервис проектов
func NewProjectsService(repo ProjectRepo, c Cache, p Publisher, log *slog.Logger, ttl time.Duration) *ProjectsService {
	s := newItems[model.Project, model.ProjectInput](model.CollectionProjects.Spec(), projectStore{repo}, c, p, log, ttl)
	s.validate = validateProject
	s.input = (*model.Project).Input
	s.position = func(p *model.Project) *int { return p.Position }
	return s
}

// NewEducationService создаёт сервис образования
func NewEducationService(repo EducationRepo, c Cache, p Publisher, log *slog.Logger, ttl time.Duration) *EducationService {
	s := newItems[model.Education, model.EducationInput](model.CollectionEducation.Spec(), educationStore{repo}, c, p, log, ttl)
	s.validate = validateEducation
	s.input = (*model.Education).Input
	s.position = func(e *model.Education) *int { return e.Position }
	return s
}

func validateProject(in model.ProjectInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return validationf("title is required")
	}
	return nil
}

func validateEducation(in model.EducationInput) error {
	if strings.TrimSpace(in.Institution) == "" {
		return validationf("institution is required")
	}
	if strings.TrimSpace(in.Degree) == "" {
		return validationf("degree is required")
	}
	if in.StartYear != nil && in.EndYear != nil && *in.EndYear < *in.StartYear {
		return validationf("endYear must not be before startYear")
	}
	return nil
}

type projectStore struct{ repo ProjectRepo }

func (s projectStore) Create(ctx context.Context, id string, in model.ProjectInput, position *int) (*model.Project, error) {
	return s.repo.CreateProject(ctx, id, in, position)
}
func (s projectStore) Get(ctx context.Context, id string) (*model.Project, error) {
	return s.repo.GetProject(ctx, id)
}
func (s projectStore) Update(ctx context.Context, id string, in model.ProjectInput) (*model.Project, error) {
	return s.repo.UpdateProject(ctx, id, in)
}
func (s projectStore) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteProject(ctx, id)
}
func (s projectStore) List(ctx context.Context, f model.ListFilter) ([]model.Project, int, error) {
	return s.repo.ListProjects(ctx, f)
}

// educationStore: позицию при создании считает база (max + 1)
type educationStore struct{ repo EducationRepo }

func (s educationStore) Create(ctx context.Context, id string, in model.EducationInput, _ *int) (*model.Education, error) {
	return s.repo.CreateEducation(ctx, id, in)
}
func (s educationStore) Get(ctx context.Context, id string) (*model.Education, error) {
	return s.repo.GetEducation(ctx, id)
}
func (s educationStore) Update(ctx context.Context, id string, in model.EducationInput) (*model.Education, error) {
	return s.repo.UpdateEducation(ctx, id, in)
}
func (s educationStore) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteEducation(ctx, id)
}
func (s educationStore) List(ctx context.Context, f model.ListFilter) ([]model.Education, int, error) {
	return s.repo.ListEducation(ctx, f)
}
