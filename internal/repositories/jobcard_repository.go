package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"workforce-service/internal/models"
)

var ErrJobCardNotFound = errors.New("job card not found")

// JobCardRepository persists job cards.
type JobCardRepository interface {
	GetJobCard(ctx context.Context, jobCardID int) (models.JobCard, error)
	Assign(ctx context.Context, req models.AssignmentRequest) (models.JobCard, error)
	UpdateStatus(ctx context.Context, jobCardID int, status models.JobStatus) error
}

// JobCardRepo is a sqlx implementation of JobCardRepository.
type JobCardRepo struct {
	db *sqlx.DB
}

// NewJobCardRepo constructs a JobCardRepo.
func NewJobCardRepo(db *sqlx.DB) *JobCardRepo {
	return &JobCardRepo{db: db}
}

const jobCardColumns = `id, type, description, customer, status, priority, due_date, notes, assigned_to, updated_at`

// GetJobCard fetches a job card by id.
func (r *JobCardRepo) GetJobCard(ctx context.Context, jobCardID int) (models.JobCard, error) {
	var card models.JobCard
	err := r.db.GetContext(ctx, &card, `SELECT `+jobCardColumns+` FROM job_cards WHERE id=$1`, jobCardID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.JobCard{}, ErrJobCardNotFound
	}
	return card, err
}

// Assign binds the job card to the employee with the request metadata.
func (r *JobCardRepo) Assign(ctx context.Context, req models.AssignmentRequest) (models.JobCard, error) {
	var card models.JobCard
	err := r.db.GetContext(ctx, &card, `UPDATE job_cards
        SET assigned_to=$2, priority=$3, due_date=$4, notes=$5, status='assigned', updated_at=NOW()
        WHERE id=$1 RETURNING `+jobCardColumns,
		req.JobCardID, req.EmployeeID, req.Priority, req.DueDate, req.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return models.JobCard{}, ErrJobCardNotFound
	}
	return card, err
}

// UpdateStatus changes the lifecycle status of a job card.
func (r *JobCardRepo) UpdateStatus(ctx context.Context, jobCardID int, status models.JobStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE job_cards SET status=$2, updated_at=NOW() WHERE id=$1`, jobCardID, status)
	if err != nil {
		return err
	}
	return expectRows(res, ErrJobCardNotFound)
}
