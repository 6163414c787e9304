package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/repairhub/repairhub-api/models"
)

// JobInput creates a job directly, outside the assignment flow
type JobInput struct {
	CustomerName string `json:"customer_name" validate:"required,min=2,max=100"`
	Appliance    string `json:"appliance" validate:"required,max=100,no_markup"`
	Issue        string `json:"issue" validate:"required,max=1000,no_markup"`
	Address      string `json:"address" validate:"required,min=5,max=200,no_markup"`
	Urgency      string `json:"urgency" validate:"omitempty,oneof=Low Medium High"`
	Date         string `json:"date"`
	TechnicianID uint   `json:"technician_id"`
}

// JobPatch edits the descriptive fields of a job; nil means keep
type JobPatch struct {
	CustomerName *string `json:"customer_name"`
	Appliance    *string `json:"appliance"`
	Issue        *string `json:"issue"`
	Address      *string `json:"address"`
	Urgency      *string `json:"urgency"`
	Date         *string `json:"date"`
	TechnicianID *uint   `json:"technician_id"`
}

// JobFilter narrows job listings
type JobFilter struct {
	Status models.JobStatus
}

// JobService manages technician work items and their state machine
type JobService struct {
	store
}

// NewJobService creates a job service backed by db
func NewJobService(db *gorm.DB, opts Options) *JobService {
	return &JobService{store: newStore(db, opts)}
}

// Create stores a pending job. Technicians create jobs for themselves;
// admins name the technician.
func (s *JobService) Create(ctx context.Context, actor Actor, input JobInput) (*models.Job, error) {
	switch {
	case actor.IsTechnician():
		if input.TechnicianID != 0 && input.TechnicianID != actor.ID {
			return nil, fmt.Errorf("technicians can only create their own jobs: %w", ErrForbidden)
		}
		input.TechnicianID = actor.ID
	case actor.IsAdmin():
	default:
		return nil, fmt.Errorf("role %s cannot create jobs: %w", actor.Role, ErrForbidden)
	}

	now := s.now()
	input = cleanJobInput(input)
	verr := merge(nil, validateStruct(input))
	if input.TechnicianID == 0 {
		verr = merge(verr, fieldError("technician_id", "is required"))
	}
	date, err := parseJobDate(input.Date, now)
	verr = merge(verr, err)
	if verr != nil {
		return nil, verr
	}

	job := &models.Job{
		CustomerName: input.CustomerName,
		Appliance:    input.Appliance,
		Issue:        input.Issue,
		Address:      input.Address,
		Urgency:      urgencyOrDefault(input.Urgency),
		Date:         date,
		Status:       models.JobPending,
		TechnicianID: input.TechnicianID,
	}

	err = s.inTx(ctx, "JobService.Create", func(tx *gorm.DB) error {
		if err := requireTechnician(tx, input.TechnicianID); err != nil {
			return err
		}
		return tx.Create(job).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("job_id", job.ID).WithField("technician_id", job.TechnicianID).Info("job created")
	return job, nil
}

// List returns the technician's own jobs, or every job for admins
func (s *JobService) List(ctx context.Context, actor Actor, filter JobFilter) ([]models.Job, error) {
	var jobs []models.Job
	err := s.read(ctx, "JobService.List", func(db *gorm.DB) error {
		q, err := scopeJobs(db, actor)
		if err != nil {
			return err
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		return q.Order("date DESC").Order("id DESC").Find(&jobs).Error
	})
	return jobs, err
}

// Get returns one job visible to actor
func (s *JobService) Get(ctx context.Context, actor Actor, id uint) (*models.Job, error) {
	var job models.Job
	err := s.read(ctx, "JobService.Get", func(db *gorm.DB) error {
		q, err := scopeJobs(db, actor)
		if err != nil {
			return err
		}
		return find(q.Preload("Technician"), &job, "job", id)
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Update edits a job that is not yet completed or cancelled. Only admins
// may hand a job to another technician.
func (s *JobService) Update(ctx context.Context, actor Actor, id uint, patch JobPatch) (*models.Job, error) {
	if patch.TechnicianID != nil && !actor.IsAdmin() {
		return nil, fmt.Errorf("only admins can reassign jobs: %w", ErrForbidden)
	}

	var job models.Job
	err := s.inTx(ctx, "JobService.Update", func(tx *gorm.DB) error {
		q, err := scopeJobs(tx, actor)
		if err != nil {
			return err
		}
		if err := find(q, &job, "job", id); err != nil {
			return err
		}
		if job.Status == models.JobCompleted || job.Status == models.JobCancelled {
			return conflictf("job %d is %s and can no longer be edited", id, job.Status)
		}

		input := cleanJobInput(applyJobPatch(jobInputOf(&job), patch))
		verr := merge(nil, validateStruct(input))
		date := job.Date
		if patch.Date != nil {
			var err error
			date, err = parseJobDate(input.Date, s.now())
			verr = merge(verr, err)
		}
		if verr != nil {
			return verr
		}
		if input.TechnicianID != job.TechnicianID {
			if err := requireTechnician(tx, input.TechnicianID); err != nil {
				return err
			}
		}

		res := tx.Model(&models.Job{}).
			Where("id = ? AND status = ?", job.ID, job.Status).
			Updates(map[string]interface{}{
				"customer_name": input.CustomerName,
				"appliance":     input.Appliance,
				"issue":         input.Issue,
				"address":       input.Address,
				"urgency":       urgencyOrDefault(input.Urgency),
				"date":          date,
				"technician_id": input.TechnicianID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return conflictf("job %d was changed by another request", id)
		}
		return find(tx, &job, "job", id)
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Delete removes a job that is not in progress
func (s *JobService) Delete(ctx context.Context, actor Actor, id uint) error {
	return s.inTx(ctx, "JobService.Delete", func(tx *gorm.DB) error {
		q, err := scopeJobs(tx, actor)
		if err != nil {
			return err
		}
		var job models.Job
		if err := find(q, &job, "job", id); err != nil {
			return err
		}
		if job.Status == models.JobInProgress {
			return conflictf("job %d is in progress and cannot be deleted", id)
		}

		res := tx.Where("status = ?", job.Status).Delete(&models.Job{}, job.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return conflictf("job %d was changed by another request", id)
		}
		s.log.WithField("job_id", id).WithField("actor_id", actor.ID).Info("job deleted")
		return nil
	})
}

// Start moves a pending job to in progress
func (s *JobService) Start(ctx context.Context, actor Actor, id uint) (*models.Job, error) {
	return s.transition(ctx, "JobService.Start", actor, id, models.JobInProgress)
}

// Complete moves an in-progress job to completed
func (s *JobService) Complete(ctx context.Context, actor Actor, id uint) (*models.Job, error) {
	return s.transition(ctx, "JobService.Complete", actor, id, models.JobCompleted)
}

// Cancel cancels a pending or in-progress job
func (s *JobService) Cancel(ctx context.Context, actor Actor, id uint) (*models.Job, error) {
	return s.transition(ctx, "JobService.Cancel", actor, id, models.JobCancelled)
}

func (s *JobService) transition(ctx context.Context, op string, actor Actor, id uint, to models.JobStatus) (*models.Job, error) {
	var job models.Job
	var from models.JobStatus
	err := s.inTx(ctx, op, func(tx *gorm.DB) error {
		q, err := scopeJobs(tx, actor)
		if err != nil {
			return err
		}
		if err := find(q, &job, "job", id); err != nil {
			return err
		}
		from = job.Status
		if !from.CanTransitionTo(to) {
			return conflictf("job %d cannot move from %s to %s", id, from, to)
		}

		res := tx.Model(&models.Job{}).
			Where("id = ? AND status = ?", id, from).
			Update("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return conflictf("job %d was changed by another request", id)
		}
		return find(tx, &job, "job", id)
	})
	if err != nil {
		return nil, err
	}

	s.transitioned("job", id, string(from), string(to), actor)
	return &job, nil
}

// scopeJobs restricts technicians to their own jobs
func scopeJobs(db *gorm.DB, actor Actor) (*gorm.DB, error) {
	switch {
	case actor.IsAdmin():
		return db, nil
	case actor.IsTechnician():
		return db.Where("technician_id = ?", actor.ID), nil
	}
	return nil, fmt.Errorf("role %s cannot manage jobs: %w", actor.Role, ErrForbidden)
}

// requireTechnician checks that id names an existing user with the
// technician role
func requireTechnician(tx *gorm.DB, id uint) error {
	var user models.User
	if err := find(tx, &user, "technician", id); err != nil {
		return err
	}
	if user.Role != models.RoleTechnician {
		return fieldError("technician_id", "must reference a user with the technician role")
	}
	return nil
}

// parseJobDate accepts "2006-01-02" or RFC 3339; empty means now
func parseJobDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	day, err := time.ParseInLocation(models.DateLayout, raw, now.Location())
	if err != nil {
		return time.Time{}, fieldError("date", "must be a date in YYYY-MM-DD or RFC 3339 format")
	}
	return day, nil
}

func urgencyOrDefault(raw string) models.Urgency {
	if raw == "" {
		return models.UrgencyMedium
	}
	return models.Urgency(raw)
}

func cleanJobInput(in JobInput) JobInput {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Appliance = strings.TrimSpace(in.Appliance)
	in.Issue = strings.TrimSpace(in.Issue)
	in.Address = strings.TrimSpace(in.Address)
	in.Urgency = strings.TrimSpace(in.Urgency)
	return in
}

func jobInputOf(j *models.Job) JobInput {
	return JobInput{
		CustomerName: j.CustomerName,
		Appliance:    j.Appliance,
		Issue:        j.Issue,
		Address:      j.Address,
		Urgency:      string(j.Urgency),
		TechnicianID: j.TechnicianID,
	}
}

func applyJobPatch(in JobInput, p JobPatch) JobInput {
	if p.CustomerName != nil {
		in.CustomerName = *p.CustomerName
	}
	if p.Appliance != nil {
		in.Appliance = *p.Appliance
	}
	if p.Issue != nil {
		in.Issue = *p.Issue
	}
	if p.Address != nil {
		in.Address = *p.Address
	}
	if p.Urgency != nil {
		in.Urgency = *p.Urgency
	}
	if p.Date != nil {
		in.Date = *p.Date
	}
	if p.TechnicianID != nil {
		in.TechnicianID = *p.TechnicianID
	}
	return in
}
