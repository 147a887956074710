package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/labfoundry/workbench-engine/pkg/apperrors"
	"github.com/labfoundry/workbench-engine/pkg/audit"
	"github.com/labfoundry/workbench-engine/pkg/authz"
	"github.com/labfoundry/workbench-engine/pkg/models"
	"github.com/labfoundry/workbench-engine/pkg/store"
	"github.com/labfoundry/workbench-engine/pkg/validation"
)

// projectAuthzExtensionPoint scopes which authorization plugins
// participate in project mutations.
const projectAuthzExtensionPoint = "project-authz"

// CreateProjectInput is the payload for ProjectService.Create.
type CreateProjectInput struct {
	ID          string `json:"id" validate:"required,min=1,max=128"`
	IndexID     string `json:"indexId" validate:"omitempty,max=128"`
	Description string `json:"description" validate:"omitempty,max=2048"`
}

// UpdateProjectInput is the payload for ProjectService.Update. Rev is
// the caller's optimistic-concurrency expectation; the stored revision
// is always derived server-side.
type UpdateProjectInput struct {
	ID          string `json:"id" validate:"required,min=1,max=128"`
	Rev         *int64 `json:"rev" validate:"required,gte=0"`
	IndexID     string `json:"indexId" validate:"omitempty,max=128"`
	Description string `json:"description" validate:"omitempty,max=2048"`
}

// ProjectService implements the optimistic-concurrency record service
// for projects.
type ProjectService interface {
	// Find returns the project, or nil when absent or when the caller's
	// role is blanket-restricted. Non-admin callers must be associated
	// with the project or Find fails with Forbidden.
	Find(ctx context.Context, p models.Principal, id string, fields []string) (*models.Project, error)

	// MustFind is Find, failing with NotFound on absence.
	MustFind(ctx context.Context, p models.Principal, id string, fields []string) (*models.Project, error)

	Create(ctx context.Context, p models.Principal, input CreateProjectInput) (*models.Project, error)
	Update(ctx context.Context, p models.Principal, input UpdateProjectInput) (*models.Project, error)
	Delete(ctx context.Context, p models.Principal, id string) error

	// List returns the projects visible to the caller, preserving scan
	// order. Restricted roles get an empty slice.
	List(ctx context.Context, p models.Principal, fields []string) ([]*models.Project, error)
}

// ProjectServiceOptions carries tunables for the project service.
type ProjectServiceOptions struct {
	// StreamingEnrichment enables the derived isStreamingConfigured flag
	// on reads.
	StreamingEnrichment bool
	// ScanLimit bounds List scans.
	ScanLimit int
}

type projectService struct {
	projects     store.RecordStore
	environments store.RecordStore
	users        UserService
	accounts     CloudAccountService
	indexes      IndexService
	gate         *authz.Gate
	validator    *validation.Service
	auditor      *audit.Writer
	logger       *zap.Logger
	opts         ProjectServiceOptions
}

// NewProjectService creates a project service with its collaborators.
func NewProjectService(
	projects, environments store.RecordStore,
	users UserService,
	accounts CloudAccountService,
	indexes IndexService,
	gate *authz.Gate,
	validator *validation.Service,
	auditor *audit.Writer,
	logger *zap.Logger,
	opts ProjectServiceOptions,
) ProjectService {
	if opts.ScanLimit <= 0 {
		opts.ScanLimit = 1000
	}
	return &projectService{
		projects:     projects,
		environments: environments,
		users:        users,
		accounts:     accounts,
		indexes:      indexes,
		gate:         gate,
		validator:    validator,
		auditor:      auditor,
		logger:       logger,
		opts:         opts,
	}
}

var _ ProjectService = (*projectService)(nil)

func (s *projectService) Find(ctx context.Context, p models.Principal, id string, fields []string) (*models.Project, error) {
	// Blanket denial for restricted roles, independent of ownership.
	if p.IsRestricted() {
		return nil, nil
	}

	if !p.IsAdmin() && !p.IsSystem() {
		associated, err := s.verifyUserProjectAssociation(ctx, p.UID, id)
		if err != nil {
			return nil, err
		}
		if !associated {
			return nil, apperrors.Forbiddenf("you are not authorized to access project %q", id)
		}
	}

	rec, err := s.projects.Get(ctx, id, store.Projection(fields))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	project, err := models.ProjectFromRecord(rec)
	if err != nil {
		return nil, err
	}

	if s.opts.StreamingEnrichment {
		enriched, err := s.withStreamingConfig(ctx, []*models.Project{project})
		if err != nil {
			return nil, err
		}
		project = enriched[0]
	}
	return project, nil
}

func (s *projectService) MustFind(ctx context.Context, p models.Principal, id string, fields []string) (*models.Project, error) {
	project, err := s.Find(ctx, p, id, fields)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperrors.NotFoundf("project with id %q does not exist", id)
	}
	return project, nil
}

func (s *projectService) Create(ctx context.Context, p models.Principal, input CreateProjectInput) (*models.Project, error) {
	req := authz.Request{
		ExtensionPoint: projectAuthzExtensionPoint,
		Action:         "create",
		Conditions:     []authz.Condition{authz.AllowIfActive, authz.AllowIfAdmin},
	}
	if err := s.gate.AssertAuthorized(ctx, p, req, input); err != nil {
		return nil, err
	}

	if err := s.validator.EnsureValid(input); err != nil {
		return nil, err
	}

	project := &models.Project{
		ID:          input.ID,
		IndexID:     input.IndexID,
		Description: input.Description,
		CreatedBy:   p.UID,
		UpdatedBy:   p.UID,
	}
	rec, err := project.ToRecord()
	if err != nil {
		return nil, err
	}

	stored, err := s.projects.ConditionalCreate(ctx, rec)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.BadRequestf("project with id %q already exists", input.ID)
		}
		return nil, err
	}

	result, err := models.ProjectFromRecord(stored)
	if err != nil {
		return nil, err
	}

	s.auditor.WriteAndForget(ctx, p, audit.Event{Action: models.AuditActionCreateProject, Body: projectAuditBody(result)})
	return result, nil
}

func (s *projectService) Update(ctx context.Context, p models.Principal, input UpdateProjectInput) (*models.Project, error) {
	req := authz.Request{
		ExtensionPoint: projectAuthzExtensionPoint,
		Action:         "update",
		Conditions:     []authz.Condition{authz.AllowIfActive, authz.AllowIfAdmin},
	}
	if err := s.gate.AssertAuthorized(ctx, p, req, input); err != nil {
		return nil, err
	}

	if err := s.validator.EnsureValid(input); err != nil {
		return nil, err
	}

	// The client-supplied rev is only the CAS expectation; the written
	// body never carries it and the store derives the new revision.
	project := &models.Project{
		ID:          input.ID,
		IndexID:     input.IndexID,
		Description: input.Description,
		UpdatedBy:   p.UID,
	}
	rec, err := project.ToRecord()
	if err != nil {
		return nil, err
	}

	stored, err := s.projects.ConditionalUpdate(ctx, input.ID, *input.Rev, rec)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrRevisionConflict):
			return nil, apperrors.BadRequestf("project information changed just before your request is processed, please try again")
		case errors.Is(err, apperrors.ErrNotFound):
			return nil, apperrors.NotFoundf("project with id %q does not exist", input.ID)
		}
		return nil, err
	}

	result, err := models.ProjectFromRecord(stored)
	if err != nil {
		return nil, err
	}

	s.auditor.WriteAndForget(ctx, p, audit.Event{Action: models.AuditActionUpdateProject, Body: projectAuditBody(result)})
	return result, nil
}

func (s *projectService) Delete(ctx context.Context, p models.Principal, id string) error {
	req := authz.Request{
		ExtensionPoint: projectAuthzExtensionPoint,
		Action:         "delete",
		Conditions:     []authz.Condition{authz.AllowIfActive, authz.AllowIfAdmin},
	}
	if err := s.gate.AssertAuthorized(ctx, p, req, map[string]any{"id": id}); err != nil {
		return err
	}

	// Referential-integrity guard: a full scan of the environments
	// collection rather than an indexed foreign-key constraint.
	envRecords, err := s.environments.Scan(ctx, 0, store.Projection{"projectId"})
	if err != nil {
		return err
	}
	for _, rec := range envRecords {
		env, err := models.EnvironmentFromRecord(rec)
		if err != nil {
			return err
		}
		if env.ProjectID == id {
			return apperrors.BadRequestf("deletion could not be completed, project is linked to existing resources")
		}
	}

	if err := s.projects.ConditionalDelete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFoundf("project with id %q does not exist", id)
		}
		return err
	}

	s.auditor.WriteAndForget(ctx, p, audit.Event{Action: models.AuditActionDeleteProject, Body: map[string]any{"id": id}})
	return nil
}

func (s *projectService) List(ctx context.Context, p models.Principal, fields []string) ([]*models.Project, error) {
	if p.IsRestricted() {
		return []*models.Project{}, nil
	}

	records, err := s.projects.Scan(ctx, s.opts.ScanLimit, store.Projection(fields))
	if err != nil {
		return nil, err
	}

	projects := make([]*models.Project, 0, len(records))
	for _, rec := range records {
		project, err := models.ProjectFromRecord(rec)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}

	if s.opts.StreamingEnrichment {
		projects, err = s.withStreamingConfig(ctx, projects)
		if err != nil {
			return nil, err
		}
	}

	if p.IsAdmin() || p.IsSystem() {
		return projects, nil
	}

	// Concurrent association fan-out; scan order is preserved and
	// unassociated records are dropped.
	visible := make([]*models.Project, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	for i, project := range projects {
		g.Go(func() error {
			associated, err := s.verifyUserProjectAssociation(gctx, p.UID, project.ID)
			if err != nil {
				return err
			}
			if associated {
				visible[i] = project
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]*models.Project, 0, len(visible))
	for _, project := range visible {
		if project != nil {
			result = append(result, project)
		}
	}
	return result, nil
}

// withStreamingConfig computes the derived isStreamingConfigured flag
// for each project. The lookups run under the system principal because
// non-admin callers cannot read accounts or indexes directly; nothing
// beyond the derived flag is exposed to them.
func (s *projectService) withStreamingConfig(ctx context.Context, projects []*models.Project) ([]*models.Project, error) {
	system := models.SystemPrincipal()

	accounts, err := s.accounts.List(ctx, system)
	if err != nil {
		return nil, apperrors.BadRequestf("there was an error resolving streaming configuration: %v", err)
	}
	indexes, err := s.indexes.List(ctx, system)
	if err != nil {
		return nil, apperrors.BadRequestf("there was an error resolving streaming configuration: %v", err)
	}

	capableAccounts := make(map[string]bool, len(accounts))
	for _, account := range accounts {
		if account.IsStreamingCapable() {
			capableAccounts[account.ID] = true
		}
	}
	streamingIndexes := make(map[string]bool, len(indexes))
	for _, index := range indexes {
		if capableAccounts[index.AccountID] {
			streamingIndexes[index.ID] = true
		}
	}

	for _, project := range projects {
		configured := streamingIndexes[project.IndexID]
		project.IsStreamingConfigured = &configured
	}
	return projects, nil
}

// verifyUserProjectAssociation checks whether the user's own record
// lists the project id. Associations are consulted, never mutated, here.
func (s *projectService) verifyUserProjectAssociation(ctx context.Context, uid, projectID string) (bool, error) {
	user, err := s.users.MustFindUser(ctx, uid)
	if err != nil {
		return false, err
	}
	return user.HasProject(projectID), nil
}

func projectAuditBody(p *models.Project) map[string]any {
	body := map[string]any{
		"id":  p.ID,
		"rev": p.Rev,
	}
	if p.IndexID != "" {
		body["indexId"] = p.IndexID
	}
	if p.Description != "" {
		body["description"] = p.Description
	}
	return body
}
