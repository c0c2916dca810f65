package forks

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultRenameDelay gives a fresh fork time to become consistent before it is renamed.
	DefaultRenameDelay = 3 * time.Second

	logFieldSourceConstant                  = "source"
	logFieldForkConstant                    = "fork"
	logFieldTargetNameConstant              = "target_name"
	logFieldBranchConstant                  = "branch"
	logFieldWarningConstant                 = "warning"
	logFieldActionConstant                  = "action"
	logFieldDelayConstant                   = "delay"
	forkExistsLogMessageConstant            = "Fork already exists, skipping creation"
	forkExistenceCheckFailedMessageConstant = "Fork existence check failed, assuming it does not exist"
	forkCreatedLogMessageConstant           = "Fork created"
	forkRenamedLogMessageConstant           = "Fork renamed"
	defaultBranchSetLogMessageConstant      = "Default branch set"
	issuesEnabledLogMessageConstant         = "Issues enabled"
	branchListingFailedLogMessageConstant   = "Branch listing failed"
	plannedActionLogMessageConstant         = "Dry run: planned action"
	waitingForForkLogMessageConstant        = "Waiting for fork to become available"
	warningLogMessageConstant               = "Fork setup degraded"
	renameWarningTemplateConstant           = "could not rename %s to %s, keeping %s: %v"
	defaultBranchWarningTemplateConstant    = "could not set default branch of %s to %s: %v"
	branchMissingWarningTemplateConstant    = "branch %s does not exist in %s (available: %s)"
	branchUnknownWarningTemplateConstant    = "branch %s could not be verified in %s"
	issuesWarningTemplateConstant           = "could not enable issues on %s: %v"
	plannedForkTemplateConstant             = "fork %s as %s"
	plannedRenameTemplateConstant           = "rename %s to %s"
	plannedDefaultBranchTemplateConstant    = "set default branch of %s to %s"
	plannedIssuesTemplateConstant           = "enable issues on %s"
	renameDelayInterruptedTemplateConstant  = "waiting to rename %s interrupted: %w"
	availableBranchesSeparatorConstant      = ", "
	noBranchesLabelConstant                 = "none"
)

// RepositorySettings describes repository attributes that can be patched. Zero values are left untouched.
type RepositorySettings struct {
	DefaultBranch string
	HasIssues     *bool
}

// RepositoryService is the remote capability surface required to set up a fork.
type RepositoryService interface {
	IdentityProvider
	RepositoryExists(executionContext context.Context, repository RepositoryRef) (bool, error)
	ForkRepository(executionContext context.Context, source RepositoryRef) error
	RenameRepository(executionContext context.Context, repository RepositoryRef, newName string) error
	UpdateRepositorySettings(executionContext context.Context, repository RepositoryRef, settings RepositorySettings) error
	ListBranches(executionContext context.Context, repository RepositoryRef) ([]string, error)
}

// ForkRequest describes the fork to set up.
type ForkRequest struct {
	Source        RepositoryRef
	TargetName    string
	DefaultBranch string
	CopyIssues    bool
	DryRun        bool
}

// CandidateName returns the requested target name, falling back to the source name.
func (request ForkRequest) CandidateName() string {
	trimmedTargetName := strings.TrimSpace(request.TargetName)
	if len(trimmedTargetName) == 0 {
		return request.Source.Name
	}
	return trimmedTargetName
}

// RequiresRename reports whether the fork must be renamed after creation.
func (request ForkRequest) RequiresRename() bool {
	return request.CandidateName() != request.Source.Name
}

// ForkResult captures the fork that replication targets and how it was reached.
type ForkResult struct {
	Owner            string
	Name             string
	AlreadyExisted   bool
	Renamed          bool
	DefaultBranchSet bool
	IssuesEnabled    bool
	Warnings         []string
	PlannedActions   []string
}

// Repository returns the fork as a RepositoryRef.
func (result ForkResult) Repository() RepositoryRef {
	return RepositoryRef{Owner: result.Owner, Name: result.Name}
}

// ServiceDependencies describes collaborators for the fork workflow.
type ServiceDependencies struct {
	Logger            *zap.Logger
	RepositoryService RepositoryService
	Sleeper           Sleeper
	RenameDelay       time.Duration
}

// Service ensures a fork of the source repository exists under the actor.
type Service struct {
	logger            *zap.Logger
	repositoryService RepositoryService
	sleeper           Sleeper
	renameDelay       time.Duration
}

// NewService constructs a Service. Missing logger and sleeper fall back to no-op logging and a timer.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.RepositoryService == nil {
		return nil, ErrRepositoryServiceNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sleeper := dependencies.Sleeper
	if sleeper == nil {
		sleeper = TimerSleeper{}
	}

	renameDelay := dependencies.RenameDelay
	if renameDelay < 0 {
		renameDelay = 0
	}

	return &Service{
		logger:            logger,
		repositoryService: dependencies.RepositoryService,
		sleeper:           sleeper,
		renameDelay:       renameDelay,
	}, nil
}

// EnsureFork creates, renames, and configures the fork. Only fork creation failures and
// cancellation are returned as errors; every other problem is recorded in ForkResult.Warnings.
func (service *Service) EnsureFork(executionContext context.Context, actor string, request ForkRequest) (ForkResult, error) {
	trimmedActor := strings.TrimSpace(actor)
	if len(trimmedActor) == 0 {
		return ForkResult{}, ErrActorRequired
	}

	candidateReference := RepositoryRef{Owner: trimmedActor, Name: request.CandidateName()}
	result := ForkResult{Owner: trimmedActor, Name: candidateReference.Name}

	exists, existenceError := service.repositoryService.RepositoryExists(executionContext, candidateReference)
	if existenceError != nil {
		service.logger.Debug(forkExistenceCheckFailedMessageConstant, zap.String(logFieldForkConstant, candidateReference.String()), zap.Error(existenceError))
		exists = false
	}

	branchListingReference := candidateReference
	switch {
	case exists:
		result.AlreadyExisted = true
		service.logger.Info(forkExistsLogMessageConstant, zap.String(logFieldForkConstant, candidateReference.String()))
	case request.DryRun:
		service.plan(&result, fmt.Sprintf(plannedForkTemplateConstant, request.Source, candidateReference))
		if request.RequiresRename() {
			service.plan(&result, fmt.Sprintf(plannedRenameTemplateConstant, candidateReference.WithName(request.Source.Name), candidateReference.Name))
		}
		branchListingReference = request.Source
	default:
		if forkError := service.repositoryService.ForkRepository(executionContext, request.Source); forkError != nil {
			return ForkResult{}, ForkCreationError{Source: request.Source, Cause: forkError}
		}
		result.Name = request.Source.Name
		service.logger.Info(forkCreatedLogMessageConstant, zap.String(logFieldSourceConstant, request.Source.String()), zap.String(logFieldForkConstant, result.Repository().String()))

		if request.RequiresRename() {
			if renameError := service.renameFork(executionContext, &result, candidateReference.Name); renameError != nil {
				return ForkResult{}, renameError
			}
		}
		branchListingReference = result.Repository()
	}

	service.configureDefaultBranch(executionContext, &result, request, branchListingReference)
	service.enableIssues(executionContext, &result, request)

	return result, nil
}

func (service *Service) renameFork(executionContext context.Context, result *ForkResult, targetName string) error {
	currentReference := result.Repository()
	service.logger.Debug(waitingForForkLogMessageConstant, zap.String(logFieldForkConstant, currentReference.String()), zap.Duration(logFieldDelayConstant, service.renameDelay))
	if sleepError := service.sleeper.Sleep(executionContext, service.renameDelay); sleepError != nil {
		return fmt.Errorf(renameDelayInterruptedTemplateConstant, currentReference, sleepError)
	}

	if renameError := service.repositoryService.RenameRepository(executionContext, currentReference, targetName); renameError != nil {
		service.warn(result, fmt.Sprintf(renameWarningTemplateConstant, currentReference, targetName, currentReference.Name, renameError))
		return nil
	}

	result.Name = targetName
	result.Renamed = true
	service.logger.Info(forkRenamedLogMessageConstant, zap.String(logFieldForkConstant, result.Repository().String()), zap.String(logFieldTargetNameConstant, targetName))
	return nil
}

func (service *Service) configureDefaultBranch(executionContext context.Context, result *ForkResult, request ForkRequest, listingReference RepositoryRef) {
	branch := strings.TrimSpace(request.DefaultBranch)
	if len(branch) == 0 {
		return
	}
	forkReference := result.Repository()

	branches, listError := service.repositoryService.ListBranches(executionContext, listingReference)
	if listError != nil {
		// Listing is best effort; the branch is reported as unverifiable instead.
		service.logger.Debug(branchListingFailedLogMessageConstant, zap.String(logFieldForkConstant, listingReference.String()), zap.Error(listError))
		service.warn(result, fmt.Sprintf(branchUnknownWarningTemplateConstant, branch, forkReference))
		return
	}

	if !slices.Contains(branches, branch) {
		availableBranches := noBranchesLabelConstant
		if len(branches) > 0 {
			availableBranches = strings.Join(branches, availableBranchesSeparatorConstant)
		}
		service.warn(result, fmt.Sprintf(branchMissingWarningTemplateConstant, branch, forkReference, availableBranches))
		return
	}

	if request.DryRun {
		service.plan(result, fmt.Sprintf(plannedDefaultBranchTemplateConstant, forkReference, branch))
		return
	}

	if updateError := service.repositoryService.UpdateRepositorySettings(executionContext, forkReference, RepositorySettings{DefaultBranch: branch}); updateError != nil {
		service.warn(result, fmt.Sprintf(defaultBranchWarningTemplateConstant, forkReference, branch, updateError))
		return
	}

	result.DefaultBranchSet = true
	service.logger.Info(defaultBranchSetLogMessageConstant, zap.String(logFieldForkConstant, forkReference.String()), zap.String(logFieldBranchConstant, branch))
}

func (service *Service) enableIssues(executionContext context.Context, result *ForkResult, request ForkRequest) {
	forkReference := result.Repository()
	if request.DryRun {
		service.plan(result, fmt.Sprintf(plannedIssuesTemplateConstant, forkReference))
		return
	}

	issuesEnabled := true
	if updateError := service.repositoryService.UpdateRepositorySettings(executionContext, forkReference, RepositorySettings{HasIssues: &issuesEnabled}); updateError != nil {
		service.warn(result, fmt.Sprintf(issuesWarningTemplateConstant, forkReference, updateError))
		return
	}

	result.IssuesEnabled = true
	service.logger.Info(issuesEnabledLogMessageConstant, zap.String(logFieldForkConstant, forkReference.String()))
}

func (service *Service) warn(result *ForkResult, message string) {
	result.Warnings = append(result.Warnings, message)
	service.logger.Warn(warningLogMessageConstant, zap.String(logFieldWarningConstant, message))
}

func (service *Service) plan(result *ForkResult, action string) {
	result.PlannedActions = append(result.PlannedActions, action)
	service.logger.Info(plannedActionLogMessageConstant, zap.String(logFieldActionConstant, action))
}
