package domain

import "time"

// ReferralListItem is a referral row joined with the campaign fields the
// dashboards display alongside it.
type ReferralListItem struct {
	Referral
	CampaignTitle     string     `json:"campaign_title"`
	RewardType        RewardType `json:"reward_type"`
	RewardValue       float64    `json:"reward_value"`
	RewardDescription string     `json:"reward_description"`
}

// ReferralPage is the public summary served to someone opening a referral
// link. It deliberately omits referrer contact details.
type ReferralPage struct {
	Code              string     `json:"code"`
	Status            ReferralStatus `json:"status"`
	BusinessName      string     `json:"business_name"`
	CampaignTitle     string     `json:"campaign_title"`
	CampaignDesc      string     `json:"campaign_description"`
	RewardType        RewardType `json:"reward_type"`
	RewardValue       float64    `json:"reward_value"`
	RewardDescription string     `json:"reward_description"`
	CreatedAt         time.Time  `json:"created_at"`
}

type MonthlyReferralCount struct {
	Month time.Time `json:"month"`
	Count int       `json:"count"`
}

// DashboardSummary aggregates a business's referral activity for the
// dashboard view. Counts come straight from the referrals table, so they
// can run ahead of the denormalized campaign analytics.
type DashboardSummary struct {
	TotalCampaigns      int                    `json:"total_campaigns"`
	ActiveCampaigns     int                    `json:"active_campaigns"`
	TotalReferrals      int                    `json:"total_referrals"`
	SuccessfulReferrals int                    `json:"successful_referrals"`
	ConversionRate      float64                `json:"conversion_rate"`
	ByStatus            map[ReferralStatus]int `json:"by_status"`
	Monthly             []MonthlyReferralCount `json:"monthly"`
}
