package domain

import (
	"strings"
	"time"
)

type ReferralStatus string

const (
	ReferralPending   ReferralStatus = "pending"
	ReferralApproved  ReferralStatus = "approved"
	ReferralRejected  ReferralStatus = "rejected"
	ReferralCompleted ReferralStatus = "completed"
	ReferralExpired   ReferralStatus = "expired"
)

// CompletionSource records which event moved a referral out of pending:
// a business approving it, or the referred party redeeming the link.
type CompletionSource string

const (
	SourceBusinessApproval CompletionSource = "business_approval"
	SourceSelfRedemption   CompletionSource = "self_redemption"
)

// PendingWindow is how long a referral may sit in pending before it is
// treated as expired on next access.
const PendingWindow = 30 * 24 * time.Hour

func (s ReferralStatus) IsValid() bool {
	switch s {
	case ReferralPending, ReferralApproved, ReferralRejected, ReferralCompleted, ReferralExpired:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition may leave this status.
func (s ReferralStatus) IsTerminal() bool {
	return s.IsValid() && s != ReferralPending
}

// IsSuccessful reports whether the status counts toward a campaign's
// successful-referral analytics.
func (s ReferralStatus) IsSuccessful() bool {
	return s == ReferralApproved || s == ReferralCompleted
}

type TrackingData struct {
	ViewCount  int        `json:"view_count" db:"view_count"`
	LastViewed *time.Time `json:"last_viewed,omitempty" db:"last_viewed"`
}

type Referral struct {
	ID               string            `json:"id" db:"id"`
	CampaignID       string            `json:"campaign_id" db:"campaign_id"`
	BusinessID       string            `json:"business_id" db:"business_id"`
	ReferrerEmail    string            `json:"referrer_email" db:"referrer_email"`
	ReferredEmail    *string           `json:"referred_email,omitempty" db:"referred_email"`
	ReferredName     *string           `json:"referred_name,omitempty" db:"referred_name"`
	ReferredPhone    *string           `json:"referred_phone,omitempty" db:"referred_phone"`
	Code             string            `json:"code" db:"code"`
	Status           ReferralStatus    `json:"status" db:"status"`
	CompletionSource *CompletionSource `json:"completion_source,omitempty" db:"completion_source"`
	Tracking         TrackingData      `json:"tracking"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty" db:"completed_at"`
}

// ExpiredAt reports whether the referral's pending window has elapsed at
// the given instant. Only pending referrals can lapse this way; terminal
// statuses keep whatever they already are.
func (r *Referral) ExpiredAt(now time.Time) bool {
	return r.Status == ReferralPending && now.Sub(r.CreatedAt) > PendingWindow
}

// IsSelfReferral reports whether the candidate referred email matches the
// referrer's, compared case-insensitively.
func (r *Referral) IsSelfReferral(referredEmail string) bool {
	return r.ReferrerEmail != "" && strings.EqualFold(r.ReferrerEmail, referredEmail)
}
