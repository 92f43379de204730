package proxy

import (
	"time"

	proxyDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/proxy"
)

// Setting delegates an HOD's approval authority to another user for a date window.
type Setting struct {
	ID          int64     `json:"id"`
	HODID       int64     `json:"hod_id"`
	ProxyUserID int64     `json:"proxy_user_id"`
	IsActive    bool      `json:"is_active"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// Day truncates t to its UTC calendar date. Stored start/end dates are UTC
// midnights, so the delegation window follows UTC day boundaries whatever
// zone t carries.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ActiveOn reports whether the delegation is in force on the given day.
func (s *Setting) ActiveOn(at time.Time) bool {
	today := Day(at)
	return s.IsActive && !today.Before(Day(s.StartDate)) && !today.After(Day(s.EndDate))
}

// LapsedOn reports whether the window ended before the given day.
func (s *Setting) LapsedOn(at time.Time) bool {
	return Day(s.EndDate).Before(Day(at))
}

func ToDataModel(s *Setting) *proxyDatamodel.ProxySetting {
	return &proxyDatamodel.ProxySetting{
		ID:          s.ID,
		HODID:       s.HODID,
		ProxyUserID: s.ProxyUserID,
		IsActive:    s.IsActive,
		StartDate:   s.StartDate,
		EndDate:     s.EndDate,
		CreatedAt:   s.CreatedAt,
	}
}

func FromDataModel(s *proxyDatamodel.ProxySetting) *Setting {
	return &Setting{
		ID:          s.ID,
		HODID:       s.HODID,
		ProxyUserID: s.ProxyUserID,
		IsActive:    s.IsActive,
		StartDate:   s.StartDate,
		EndDate:     s.EndDate,
		CreatedAt:   s.CreatedAt,
	}
}
