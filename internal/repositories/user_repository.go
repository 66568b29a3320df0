package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"workforce-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository resolves user references.
type UserRepository interface {
	GetUser(ctx context.Context, userID int) (models.User, error)
	BulkUsers(ctx context.Context, ids []int) ([]models.User, error)
	EmployeeDetails(ctx context.Context, userID int) (models.EmployeeDetails, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetUser fetches one user.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT id, name, profile_pic, role FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return u, err
}

// BulkUsers fetches multiple users in one query. Unknown ids are skipped.
func (r *UserRepo) BulkUsers(ctx context.Context, ids []int) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	id64s := make([]int64, 0, len(ids))
	for _, id := range ids {
		id64s = append(id64s, int64(id))
	}
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT id, name, profile_pic, role FROM users WHERE id = ANY($1) ORDER BY id`, pq.Array(id64s))
	return users, err
}

// EmployeeDetails returns department, active job count and availability.
func (r *UserRepo) EmployeeDetails(ctx context.Context, userID int) (models.EmployeeDetails, error) {
	var d models.EmployeeDetails
	err := r.db.GetContext(ctx, &d, `SELECT u.id, u.name, u.department, u.available,
            (SELECT COUNT(*) FROM job_cards j WHERE j.assigned_to = u.id AND j.status IN ('assigned', 'in_progress')) AS active_jobs
        FROM users u WHERE u.id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EmployeeDetails{}, ErrUserNotFound
	}
	return d, err
}
