package billing

import "time"

// OrgStatus is the lifecycle status of an organization.
type OrgStatus string

// Possible organization statuses.
const (
	OrgStatusActive   OrgStatus = "active"
	OrgStatusInactive OrgStatus = "inactive"
)

// Organization is the billing view of a tenant: status plus subscription.
type Organization struct {
	ID     int64
	Name   string
	Status OrgStatus
}

// SubscriptionStatus is the lifecycle status of a subscription row.
type SubscriptionStatus string

// Possible subscription statuses.
const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
)

// Subscription is one paid access window for an organization. The current
// subscription is the active row with the greatest end date.
type Subscription struct {
	ID      int64
	OrgID   int64
	Status  SubscriptionStatus
	EndDate time.Time
}

// Reason explains why access was or was not granted.
type Reason string

// Gate decision reasons. ReasonGrandfathered is the deliberate policy that
// an active organization with no subscription row at all predates billing
// and stays allowed; it is a named branch so the policy is auditable.
const (
	ReasonOrgInactive         Reason = "org_inactive"
	ReasonSubscriptionExpired Reason = "subscription_expired"
	ReasonGrandfathered       Reason = "no_subscription_found_but_org_active"
)

// Access is the gate's decision for one organization.
type Access struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`
}
