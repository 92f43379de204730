package workflow

import (
	"github.com/frahmantamala/gatepass/internal"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusApprovedHOD    Status = "approved_hod"
	StatusApprovedWarden Status = "approved_warden"
	StatusActive         Status = "active"
	StatusCompleted      Status = "completed"
	StatusRejected       Status = "rejected"
	StatusCancelled      Status = "cancelled"
)

// NonTerminal lists the statuses that count towards the one-active-request rule.
var NonTerminal = []Status{StatusPending, StatusApprovedHOD, StatusApprovedWarden, StatusActive}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApprovedHOD, StatusApprovedWarden, StatusActive,
		StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

type Role string

const (
	RoleStudent    Role = "student"
	RoleStaff      Role = "staff"
	RoleHOD        Role = "hod"
	RoleWarden     Role = "warden"
	RoleGatekeeper Role = "gatekeeper"
	RoleAdmin      Role = "admin"
	RolePrincipal  Role = "principal"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleStaff, RoleHOD, RoleWarden, RoleGatekeeper, RoleAdmin, RolePrincipal:
		return true
	}
	return false
}

type StudentType string

const (
	DayScholar StudentType = "day_scholar"
	Hostel     StudentType = "hostel"
)

type Action string

const (
	ActionCreate        Action = "create"
	ActionHODApprove    Action = "hod_approve"
	ActionWardenApprove Action = "warden_approve"
	ActionGateExit      Action = "gate_exit"
	ActionGateReturn    Action = "gate_return"
	ActionReject        Action = "reject"
	ActionCancel        Action = "cancel"
)

const (
	TypeLeave     = "leave"
	TypeOuting    = "outing"
	TypeEmergency = "emergency"

	CategoryNormal    = "normal"
	CategoryEmergency = "emergency"
)

// IsEmergency treats either an emergency type or an emergency category as emergency.
func IsEmergency(requestType, category string) bool {
	return requestType == TypeEmergency || category == CategoryEmergency
}

type key struct {
	status      Status
	emergency   bool
	studentType StudentType
}

// Rule is one edge of the approval chain.
type Rule struct {
	Role       Role
	Next       Status
	Action     Action
	Rejectable bool
}

var rules = map[key]Rule{}

func add(status Status, emergency bool, st StudentType, r Rule) {
	rules[key{status, emergency, st}] = r
}

func init() {
	hod := Rule{Role: RoleHOD, Next: StatusApprovedHOD, Action: ActionHODApprove, Rejectable: true}
	exit := Rule{Role: RoleGatekeeper, Next: StatusActive, Action: ActionGateExit}
	ret := Rule{Role: RoleGatekeeper, Next: StatusCompleted, Action: ActionGateReturn}

	for _, st := range []StudentType{DayScholar, Hostel} {
		for _, em := range []bool{false, true} {
			add(StatusPending, em, st, hod)
			add(StatusActive, em, st, ret)
		}
		add(StatusApprovedHOD, true, st, exit)
	}

	add(StatusApprovedHOD, false, DayScholar, exit)
	add(StatusApprovedHOD, false, Hostel, Rule{Role: RoleWarden, Next: StatusApprovedWarden, Action: ActionWardenApprove, Rejectable: true})
	add(StatusApprovedWarden, false, Hostel, exit)
}

// Input is everything the engine needs to decide a transition.
type Input struct {
	Status      Status
	Emergency   bool
	StudentType StudentType
	ActorRole   Role
}

// Lookup returns the rule for the current position in the chain, if any.
func Lookup(status Status, emergency bool, st StudentType) (Rule, bool) {
	r, ok := rules[key{status, emergency, st}]
	return r, ok
}

// Decide returns the rule that moves the request forward for the acting role.
func Decide(in Input) (Rule, error) {
	r, ok := Lookup(in.Status, in.Emergency, in.StudentType)
	if !ok {
		return Rule{}, internal.ErrInvalidTransition.Withf("no transition from %s", in.Status)
	}
	if r.Role != in.ActorRole {
		return Rule{}, internal.ErrForbiddenTransition.Withf("%s cannot move a request out of %s", in.ActorRole, in.Status)
	}
	return r, nil
}

// Reject is allowed to the role that could approve the current step, on rejectable steps only.
func Reject(in Input) (Status, error) {
	r, ok := Lookup(in.Status, in.Emergency, in.StudentType)
	if !ok || !r.Rejectable {
		return "", internal.ErrInvalidTransition.Withf("request in %s cannot be rejected", in.Status)
	}
	if r.Role != in.ActorRole {
		return "", internal.ErrForbiddenTransition.Withf("%s cannot reject a request in %s", in.ActorRole, in.Status)
	}
	return StatusRejected, nil
}

// Cancel only checks the status; ownership is the caller's concern.
func Cancel(status Status) (Status, error) {
	switch status {
	case StatusPending, StatusApprovedHOD, StatusApprovedWarden:
		return StatusCancelled, nil
	}
	return "", internal.ErrInvalidTransition.Withf("request in %s cannot be cancelled", status)
}

// NextRole is the role expected to act on a request sitting in status, empty when none.
func NextRole(status Status, emergency bool, st StudentType) Role {
	if r, ok := Lookup(status, emergency, st); ok {
		return r.Role
	}
	return ""
}

// Chain returns the full path a request follows from pending to completed.
func Chain(emergency bool, st StudentType) []Status {
	path := []Status{StatusPending}
	cur := StatusPending
	for {
		r, ok := Lookup(cur, emergency, st)
		if !ok {
			return path
		}
		path = append(path, r.Next)
		cur = r.Next
	}
}
