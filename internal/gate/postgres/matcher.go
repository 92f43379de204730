package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/jmoiron/sqlx"
)

// candidateQuery keeps the eligibility rule in one statement so a scan never
// sees more than one row: newest request first, highest id on equal timestamps.
const candidateQuery = `
SELECT r.id
FROM requests r
JOIN users u ON u.id = r.user_id
WHERE u.register_number = ?
  AND (
    (u.student_type = 'day_scholar' AND r.status = 'approved_hod')
    OR (u.student_type = 'hostel' AND r.status = 'approved_warden')
    OR (r.status = 'approved_hod' AND (r.type = 'emergency' OR r.category = 'emergency'))
    OR r.status = 'active'
  )
ORDER BY r.created_at DESC, r.id DESC
LIMIT 1`

type Matcher struct {
	db *sqlx.DB
}

func NewMatcher(db *sqlx.DB) *Matcher {
	return &Matcher{db: db}
}

func (m *Matcher) Match(ctx context.Context, registerNumber string) (int64, error) {
	var id int64
	err := m.db.GetContext(ctx, &id, m.db.Rebind(candidateQuery), registerNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, internal.ErrNoEligiblePass
		}
		return 0, internal.StorageError(err)
	}
	return id, nil
}
