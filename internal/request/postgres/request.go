package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/gatepass/internal"
	requestDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/request"
	userDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/user"
	"github.com/frahmantamala/gatepass/internal/request"
	"github.com/frahmantamala/gatepass/internal/workflow"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const emergencyPredicate = "(requests.type = 'emergency' OR requests.category = 'emergency')"

// gateReadyPredicate selects requests waiting for their exit scan.
const gateReadyPredicate = "((requests.status = 'approved_hod' AND (users.student_type = 'day_scholar' OR " + emergencyPredicate + ")) OR " +
	"(requests.status = 'approved_warden' AND users.student_type = 'hostel'))"

// RequestRepository implements request.Repository using GORM
type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func openStatuses() []string {
	out := make([]string, len(workflow.NonTerminal))
	for i, s := range workflow.NonTerminal {
		out[i] = string(s)
	}
	return out
}

// CreateIfNoActive inserts r unless its owner already has an open request.
// The owner's user row is locked for the duration, so concurrent creates for
// one user serialise on every backend. On PostgreSQL a partial unique index
// backs the check as well.
func (r *RequestRepository) CreateIfNoActive(ctx context.Context, req *request.Request) error {
	row := request.ToDataModel(req)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner userDatamodel.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", req.UserID).
			First(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrUserNotFound
			}
			return err
		}

		var open int64
		if err := tx.Model(&requestDatamodel.Request{}).
			Where("user_id = ? AND status IN ?", req.UserID, openStatuses()).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return internal.ErrActiveRequestExists
		}
		return tx.Create(row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrActiveRequestExists
		}
		return internal.StorageError(err)
	}

	*req = *request.FromDataModel(row)
	return nil
}

func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*request.Request, error) {
	var row requestDatamodel.Request
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrRequestNotFound
		}
		return nil, internal.StorageError(err)
	}
	return request.FromDataModel(&row), nil
}

// Transition is a compare-and-swap on status. Zero affected rows means another
// writer moved the request first and nothing is written.
func (r *RequestRepository) Transition(ctx context.Context, id int64, from, to workflow.Status, changes request.Changes) (*request.Request, error) {
	updates := changeSet(changes)
	updates["status"] = string(to)
	updates["updated_at"] = time.Now()

	var row requestDatamodel.Request
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&requestDatamodel.Request{}).
			Where("id = ? AND status = ?", id, string(from)).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&requestDatamodel.Request{}).Where("id = ?", id).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return internal.ErrRequestNotFound
			}
			return internal.ErrStaleStatus
		}
		return tx.Where("id = ?", id).First(&row).Error
	})
	if err != nil {
		return nil, internal.StorageError(err)
	}
	return request.FromDataModel(&row), nil
}

func changeSet(c request.Changes) map[string]interface{} {
	m := map[string]interface{}{}
	if c.ForwardedTo != nil {
		m["forwarded_to"] = *c.ForwardedTo
	}
	if c.HODApprovedBy != nil {
		m["hod_approved_by"] = *c.HODApprovedBy
	}
	if c.WardenApprovedBy != nil {
		m["warden_approved_by"] = *c.WardenApprovedBy
	}
	if c.RejectedBy != nil {
		m["rejected_by"] = *c.RejectedBy
	}
	if c.RejectReason != nil {
		m["reject_reason"] = *c.RejectReason
	}
	if c.ExitAt != nil {
		m["exit_at"] = *c.ExitAt
	}
	if c.ReturnAt != nil {
		m["return_at"] = *c.ReturnAt
	}
	return m
}

func (r *RequestRepository) SetAttachment(ctx context.Context, id int64, path string) error {
	res := r.db.WithContext(ctx).Model(&requestDatamodel.Request{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attachment_path": path,
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return internal.StorageError(res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepository) filtered(ctx context.Context, f request.Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&requestDatamodel.Request{}).
		Joins("JOIN users ON users.id = requests.user_id")
	return r.conditions(q, f)
}

// conditions ANDs the restrictions of f onto q. Alternatives in f.Any are
// built on fresh sessions and attached as one parenthesised OR group.
func (r *RequestRepository) conditions(q *gorm.DB, f request.Filter) *gorm.DB {
	if f.OwnerID != nil {
		q = q.Where("requests.user_id = ?", *f.OwnerID)
	}
	if len(f.DepartmentIDs) > 0 {
		q = q.Where("users.department_id IN ?", f.DepartmentIDs)
	}
	if f.StudentType != "" {
		q = q.Where("users.student_type = ?", string(f.StudentType))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("requests.status IN ?", statuses)
	}
	if f.Emergency != nil {
		if *f.Emergency {
			q = q.Where(emergencyPredicate)
		} else {
			q = q.Where("NOT " + emergencyPredicate)
		}
	}
	if f.GateReady {
		q = q.Where(gateReadyPredicate)
	}

	if len(f.Any) > 0 {
		group := r.db.Session(&gorm.Session{NewDB: true})
		for i, alt := range f.Any {
			cond := r.conditions(r.db.Session(&gorm.Session{NewDB: true}), alt)
			if i == 0 {
				group = group.Where(cond)
			} else {
				group = group.Or(cond)
			}
		}
		q = q.Where(group)
	}
	return q
}

func (r *RequestRepository) List(ctx context.Context, f request.Filter) ([]*request.Request, error) {
	var rows []*requestDatamodel.Request
	q := r.filtered(ctx, f).
		Select("requests.*").
		Order("requests.created_at DESC").
		Order("requests.id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, internal.StorageError(err)
	}
	return request.FromDataModelSlice(rows), nil
}

func (r *RequestRepository) CountByStatus(ctx context.Context, f request.Filter) (map[workflow.Status]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	if err := r.filtered(ctx, f).
		Select("requests.status AS status, COUNT(*) AS total").
		Group("requests.status").
		Scan(&rows).Error; err != nil {
		return nil, internal.StorageError(err)
	}

	counts := make(map[workflow.Status]int64, len(rows))
	for _, row := range rows {
		counts[workflow.Status(row.Status)] = row.Total
	}
	return counts, nil
}

// LatestOpen returns the user's open request, or nil when there is none.
func (r *RequestRepository) LatestOpen(ctx context.Context, userID int64) (*request.Request, error) {
	var row requestDatamodel.Request
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, openStatuses()).
		Order("created_at DESC").
		Order("id DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, internal.StorageError(err)
	}
	return request.FromDataModel(&row), nil
}
