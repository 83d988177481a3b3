package session

import "strings"

// Plan is an account entitlement.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanSubscriber Plan = "subscriber"
	PlanAmbassador Plan = "ambassador"
	PlanAdmin      Plan = "admin"
)

// Unlimited reports whether the plan skips generation quotas.
func (p Plan) Unlimited() bool {
	return p == PlanAdmin || p == PlanAmbassador
}

// EntitlementResolver maps an account email to its plan.
type EntitlementResolver interface {
	Resolve(email string) Plan
}

// Table is an email → plan lookup. Emails compare case-insensitively and
// unknown accounts are free.
type Table map[string]Plan

// NewTable builds a Table from config, normalizing emails.
func NewTable(entries map[string]string) Table {
	t := make(Table, len(entries))
	for email, plan := range entries {
		t[normalize(email)] = Plan(plan)
	}
	return t
}

func (t Table) Resolve(email string) Plan {
	if p, ok := t[normalize(email)]; ok {
		return p
	}
	return PlanFree
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
