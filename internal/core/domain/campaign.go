package domain

import "time"

type RewardType string

const (
	RewardPercentage RewardType = "percentage"
	RewardFixed      RewardType = "fixed"
)

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

func (s CampaignStatus) IsValid() bool {
	switch s {
	case CampaignDraft, CampaignActive, CampaignPaused, CampaignCompleted:
		return true
	default:
		return false
	}
}

// CampaignAnalytics is denormalized onto the campaign row and recomputed
// from the referrals table whenever an attached referral changes state.
// Reads may briefly lag the referral write; see the dashboard aggregator
// for exact counts.
type CampaignAnalytics struct {
	TotalReferrals      int     `json:"total_referrals" db:"total_referrals"`
	SuccessfulReferrals int     `json:"successful_referrals" db:"successful_referrals"`
	ConversionRate      float64 `json:"conversion_rate" db:"conversion_rate"`
	RewardRedemptions   int     `json:"reward_redemptions" db:"reward_redemptions"`
}

// Recompute refreshes the conversion rate from the raw counters.
func (a *CampaignAnalytics) Recompute() {
	if a.TotalReferrals > 0 {
		a.ConversionRate = float64(a.SuccessfulReferrals) / float64(a.TotalReferrals) * 100
	} else {
		a.ConversionRate = 0
	}
}

type Campaign struct {
	ID                string            `json:"id" db:"id"`
	BusinessID        string            `json:"business_id" db:"business_id"`
	Title             string            `json:"title" db:"title"`
	Description       string            `json:"description" db:"description"`
	RewardType        RewardType        `json:"reward_type" db:"reward_type"`
	RewardValue       float64           `json:"reward_value" db:"reward_value"`
	RewardDescription string            `json:"reward_description" db:"reward_description"`
	Status            CampaignStatus    `json:"status" db:"status"`
	ExpiresAt         *time.Time        `json:"expires_at,omitempty" db:"expires_at"`
	MaxReferrals      *int              `json:"max_referrals,omitempty" db:"max_referrals"`
	Analytics         CampaignAnalytics `json:"analytics"`
	CreatedAt         time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" db:"updated_at"`
}

// ValidateReward checks the reward configuration: value must be positive,
// and percentage rewards cannot exceed 100.
func (c *Campaign) ValidateReward() error {
	switch c.RewardType {
	case RewardPercentage:
		if c.RewardValue <= 0 || c.RewardValue > 100 {
			return E(KindValidation, "reward_value must be between 0 and 100 for percentage rewards")
		}
	case RewardFixed:
		if c.RewardValue <= 0 {
			return E(KindValidation, "reward_value must be positive")
		}
	default:
		return E(KindValidation, "reward_type must be 'percentage' or 'fixed'")
	}
	return nil
}

// Referenceable reports whether new referrals may be attached: the
// campaign must be active and not past its expiration date.
func (c *Campaign) Referenceable(now time.Time) bool {
	if c.Status != CampaignActive {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	return true
}
