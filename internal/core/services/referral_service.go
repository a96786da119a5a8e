package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/lewiswilliams7/refrr-sub000/internal/core/domain"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/ports"
	"github.com/lewiswilliams7/refrr-sub000/internal/metrics"

	"github.com/google/uuid"
)

type referralService struct {
	referrals  ports.ReferralRepository
	campaigns  ports.CampaignRepository
	businesses ports.BusinessRepository
	notifier   ports.Notifier
	codegen    *CodeGenerator
	metrics    *metrics.Metrics
	logger     *zap.Logger

	frontendOrigin string
	now            func() time.Time
}

func NewReferralService(
	referrals ports.ReferralRepository,
	campaigns ports.CampaignRepository,
	businesses ports.BusinessRepository,
	notifier ports.Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
	frontendOrigin string,
) ports.ReferralService {
	return &referralService{
		referrals:      referrals,
		campaigns:      campaigns,
		businesses:     businesses,
		notifier:       notifier,
		codegen:        NewCodeGenerator(referrals),
		metrics:        m,
		logger:         logger,
		frontendOrigin: strings.TrimRight(frontendOrigin, "/"),
		now:            time.Now,
	}
}

// Create is the explicit creation path: the owning business attaches a
// referrer up front.
func (s *referralService) Create(ctx context.Context, ident domain.Identity, campaignID, referrerEmail string) (*domain.Referral, error) {
	if err := validateEmail(referrerEmail); err != nil {
		return nil, err
	}

	campaign, err := s.loadCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	business, err := s.resolveBusiness(ctx, ident)
	if err != nil {
		return nil, err
	}
	if campaign.BusinessID != business.ID {
		return nil, domain.E(domain.KindForbidden, "campaign belongs to another business")
	}

	if err := s.checkReferralCap(ctx, campaign); err != nil {
		return nil, err
	}

	referral, err := s.insertReferral(ctx, campaign, referrerEmail)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ReferralsCreated.WithLabelValues("explicit").Inc()
	}
	s.logger.Info("referral created",
		zap.String("referral_id", referral.ID),
		zap.String("campaign_id", campaign.ID))

	return referral, nil
}

// GenerateLink is the self-service path: anyone holding an active
// campaign's id can mint a shareable link. An authenticated business must
// own the campaign; the referrer email is optional until a notification
// has to go out.
func (s *referralService) GenerateLink(ctx context.Context, ident *domain.Identity, campaignID, referrerEmail string) (*domain.Referral, string, error) {
	if referrerEmail != "" {
		if err := validateEmail(referrerEmail); err != nil {
			return nil, "", err
		}
	}

	campaign, err := s.loadCampaign(ctx, campaignID)
	if err != nil {
		return nil, "", err
	}
	if !campaign.Referenceable(s.now()) {
		return nil, "", domain.E(domain.KindConflict, "campaign is not accepting referrals")
	}

	if ident != nil && ident.Role == domain.RoleBusiness {
		business, err := s.resolveBusiness(ctx, *ident)
		if err != nil {
			return nil, "", err
		}
		if campaign.BusinessID != business.ID {
			return nil, "", domain.E(domain.KindForbidden, "campaign belongs to another business")
		}
	}

	if err := s.checkReferralCap(ctx, campaign); err != nil {
		return nil, "", err
	}

	referral, err := s.insertReferral(ctx, campaign, referrerEmail)
	if err != nil {
		return nil, "", err
	}

	link := fmt.Sprintf("%s/referral/%s", s.frontendOrigin, referral.Code)

	if referrerEmail != "" {
		s.send(ctx, ports.Email{
			To:      referrerEmail,
			Subject: fmt.Sprintf("Your referral link for %s", campaign.Title),
			Body: fmt.Sprintf("Share this link to refer friends to %s: %s\r\nReward: %s",
				campaign.Title, link, campaign.RewardDescription),
		})
	}

	if s.metrics != nil {
		s.metrics.ReferralsCreated.WithLabelValues("link").Inc()
	}
	s.logger.Info("referral link generated",
		zap.String("referral_id", referral.ID),
		zap.String("campaign_id", campaign.ID))

	return referral, link, nil
}

// GetByCode serves the public referral page. Every successful read bumps
// the view counter; that side effect is the point of the endpoint.
func (s *referralService) GetByCode(ctx context.Context, code string) (*domain.ReferralPage, error) {
	referral, err := s.referrals.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if referral.ExpiredAt(s.now()) {
		s.lapse(ctx, referral)
		return nil, domain.E(domain.KindConflict, "referral has expired")
	}
	if referral.Status != domain.ReferralPending {
		return nil, domain.E(domain.KindConflict, "referral is no longer active")
	}

	if err := s.referrals.TrackView(ctx, referral.ID, s.now()); err != nil {
		s.logger.Warn("failed to track referral view",
			zap.String("referral_id", referral.ID), zap.Error(err))
	} else if s.metrics != nil {
		s.metrics.ReferralViews.Inc()
	}

	campaign, err := s.loadCampaign(ctx, referral.CampaignID)
	if err != nil {
		return nil, err
	}
	business, err := s.businesses.GetByID(ctx, campaign.BusinessID)
	if err != nil {
		return nil, err
	}

	return &domain.ReferralPage{
		Code:              referral.Code,
		Status:            referral.Status,
		BusinessName:      business.Name,
		CampaignTitle:     campaign.Title,
		CampaignDesc:      campaign.Description,
		RewardType:        campaign.RewardType,
		RewardValue:       campaign.RewardValue,
		RewardDescription: campaign.RewardDescription,
		CreatedAt:         referral.CreatedAt,
	}, nil
}

// Complete redeems a pending referral on behalf of the referred party.
// The final transition is a conditional write keyed on the pending status,
// so two concurrent redemptions produce exactly one winner.
func (s *referralService) Complete(ctx context.Context, code, referredEmail string, referredName, referredPhone *string) (*domain.Referral, error) {
	if err := validateEmail(referredEmail); err != nil {
		return nil, err
	}

	referral, err := s.referrals.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if referral.Status == domain.ReferralExpired {
		return nil, domain.E(domain.KindConflict, "referral has expired")
	}
	if referral.Status != domain.ReferralPending {
		return nil, domain.E(domain.KindConflict, "referral has already been processed")
	}
	if referral.ExpiredAt(s.now()) {
		s.lapse(ctx, referral)
		return nil, domain.E(domain.KindConflict, "referral has expired")
	}
	if referral.IsSelfReferral(referredEmail) {
		return nil, domain.E(domain.KindValidation, "you cannot refer yourself")
	}

	completedAt := s.now()
	won, err := s.referrals.Complete(ctx, referral.ID, referredEmail, referredName, referredPhone, completedAt)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, domain.E(domain.KindConflict, "referral has already been processed")
	}

	referral.Status = domain.ReferralCompleted
	referral.ReferredEmail = &referredEmail
	referral.ReferredName = referredName
	referral.ReferredPhone = referredPhone
	referral.CompletedAt = &completedAt
	referral.UpdatedAt = completedAt
	source := domain.SourceSelfRedemption
	referral.CompletionSource = &source

	s.afterClose(ctx, referral)
	s.notifyCompletion(ctx, referral)

	s.logger.Info("referral completed",
		zap.String("referral_id", referral.ID),
		zap.String("code", referral.Code))

	return referral, nil
}

// UpdateStatus is the business review action: approve or reject a pending
// referral it owns.
func (s *referralService) UpdateStatus(ctx context.Context, ident domain.Identity, referralID string, target domain.ReferralStatus) (*domain.Referral, error) {
	if target != domain.ReferralApproved && target != domain.ReferralRejected {
		return nil, domain.E(domain.KindValidation, "status must be 'approved' or 'rejected'")
	}

	referral, err := s.referrals.GetByID(ctx, referralID)
	if err != nil {
		return nil, err
	}

	business, err := s.resolveBusiness(ctx, ident)
	if err != nil {
		return nil, err
	}
	if referral.BusinessID != business.ID {
		return nil, domain.E(domain.KindForbidden, "referral belongs to another business")
	}

	if referral.Status != domain.ReferralPending {
		return nil, domain.E(domain.KindConflict, "referral has already been processed")
	}

	now := s.now()
	var source *domain.CompletionSource
	var completedAt *time.Time
	if target == domain.ReferralApproved {
		src := domain.SourceBusinessApproval
		source = &src
		completedAt = &now
	}

	won, err := s.referrals.SetStatus(ctx, referral.ID, target, source, completedAt)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, domain.E(domain.KindConflict, "referral has already been processed")
	}

	referral.Status = target
	referral.CompletionSource = source
	referral.CompletedAt = completedAt
	referral.UpdatedAt = now

	s.afterClose(ctx, referral)
	if target == domain.ReferralApproved {
		s.notifyCompletion(ctx, referral)
	} else {
		s.notifyRejection(ctx, referral)
	}

	s.logger.Info("referral reviewed",
		zap.String("referral_id", referral.ID),
		zap.String("status", string(target)))

	return referral, nil
}

func (s *referralService) Delete(ctx context.Context, ident domain.Identity, referralID string) error {
	referral, err := s.referrals.GetByID(ctx, referralID)
	if err != nil {
		return err
	}

	business, err := s.resolveBusiness(ctx, ident)
	if err != nil {
		return err
	}
	if referral.BusinessID != business.ID {
		return domain.E(domain.KindForbidden, "referral belongs to another business")
	}

	if err := s.referrals.Delete(ctx, referral.ID); err != nil {
		return err
	}

	s.refreshAnalytics(ctx, referral.CampaignID)
	s.logger.Info("referral deleted", zap.String("referral_id", referral.ID))
	return nil
}

func (s *referralService) ListForBusiness(ctx context.Context, ident domain.Identity) ([]domain.ReferralListItem, error) {
	business, err := s.resolveBusiness(ctx, ident)
	if err != nil {
		return nil, err
	}
	return s.referrals.ListByBusiness(ctx, business.ID)
}

func (s *referralService) ListForCustomer(ctx context.Context, ident domain.Identity) ([]domain.ReferralListItem, error) {
	if ident.Email == "" {
		return nil, domain.E(domain.KindValidation, "account has no email address")
	}
	return s.referrals.ListByReferrer(ctx, ident.Email)
}

// insertReferral generates a code and persists the new pending referral.
// The unique index on code is the authoritative collision signal; one
// retry with a fresh code covers the generator's check-then-insert gap, a
// second collision is surfaced as unavailable.
func (s *referralService) insertReferral(ctx context.Context, campaign *domain.Campaign, referrerEmail string) (*domain.Referral, error) {
	var referral *domain.Referral

	backoff := retry.WithMaxRetries(1, retry.NewConstant(10*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		code, err := s.codegen.Generate(ctx)
		if err != nil {
			return err
		}

		now := s.now()
		candidate := &domain.Referral{
			ID:            uuid.New().String(),
			CampaignID:    campaign.ID,
			BusinessID:    campaign.BusinessID,
			ReferrerEmail: referrerEmail,
			Code:          code,
			Status:        domain.ReferralPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := s.referrals.Save(ctx, candidate); err != nil {
			if domain.KindOf(err) == domain.KindConflict {
				if s.metrics != nil {
					s.metrics.CodeCollisions.Inc()
				}
				s.logger.Warn("referral code collision on insert", zap.String("code", code))
				return retry.RetryableError(err)
			}
			return err
		}

		referral = candidate
		return nil
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindConflict {
			return nil, domain.EW(domain.KindUnavailable, "could not store referral code", err)
		}
		return nil, err
	}

	return referral, nil
}

func (s *referralService) loadCampaign(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return campaign, nil
}

// resolveBusiness maps the authenticated account onto its business
// profile. Suspended businesses lose access to everything.
func (s *referralService) resolveBusiness(ctx context.Context, ident domain.Identity) (*domain.Business, error) {
	if ident.Role != domain.RoleBusiness && ident.Role != domain.RoleAdmin {
		return nil, domain.E(domain.KindForbidden, "a business account is required")
	}
	business, err := s.businesses.GetByAccountID(ctx, ident.AccountID)
	if err != nil {
		return nil, err
	}
	if business.Status == domain.BusinessSuspended {
		return nil, domain.E(domain.KindForbidden, "business account is suspended")
	}
	return business, nil
}

func (s *referralService) checkReferralCap(ctx context.Context, campaign *domain.Campaign) error {
	if campaign.MaxReferrals == nil {
		return nil
	}
	count, err := s.referrals.CountByCampaign(ctx, campaign.ID)
	if err != nil {
		return err
	}
	if count >= *campaign.MaxReferrals {
		return domain.E(domain.KindConflict, "campaign referral limit reached")
	}
	return nil
}

// lapse persists the expired transition so later reads short-circuit on
// the status check instead of recomputing elapsed time.
func (s *referralService) lapse(ctx context.Context, referral *domain.Referral) {
	won, err := s.referrals.SetStatus(ctx, referral.ID, domain.ReferralExpired, nil, nil)
	if err != nil {
		s.logger.Warn("failed to persist referral expiry",
			zap.String("referral_id", referral.ID), zap.Error(err))
		return
	}
	if won {
		referral.Status = domain.ReferralExpired
		if s.metrics != nil {
			s.metrics.ReferralsClosed.WithLabelValues(string(domain.ReferralExpired)).Inc()
		}
	}
}

// afterClose runs the bookkeeping that follows any terminal transition:
// campaign counters are refreshed best-effort, never rolling back the
// already-committed referral write.
func (s *referralService) afterClose(ctx context.Context, referral *domain.Referral) {
	if s.metrics != nil {
		s.metrics.ReferralsClosed.WithLabelValues(string(referral.Status)).Inc()
	}
	s.refreshAnalytics(ctx, referral.CampaignID)
}

func (s *referralService) refreshAnalytics(ctx context.Context, campaignID string) {
	if err := s.campaigns.RefreshAnalytics(ctx, campaignID); err != nil {
		s.logger.Warn("failed to refresh campaign analytics",
			zap.String("campaign_id", campaignID), zap.Error(err))
	}
}

func (s *referralService) notifyCompletion(ctx context.Context, referral *domain.Referral) {
	if referral.ReferrerEmail != "" {
		s.send(ctx, ports.Email{
			To:      referral.ReferrerEmail,
			Subject: "Your referral was successful",
			Body:    fmt.Sprintf("Great news! Your referral %s has been confirmed. Your reward is on its way.", referral.Code),
		})
	}
	if referral.ReferredEmail != nil && *referral.ReferredEmail != "" {
		s.send(ctx, ports.Email{
			To:      *referral.ReferredEmail,
			Subject: "Welcome aboard",
			Body:    fmt.Sprintf("Thanks for joining through referral %s. Your reward will be applied to your account.", referral.Code),
		})
	}
}

func (s *referralService) notifyRejection(ctx context.Context, referral *domain.Referral) {
	if referral.ReferrerEmail == "" {
		return
	}
	s.send(ctx, ports.Email{
		To:      referral.ReferrerEmail,
		Subject: "Update on your referral",
		Body:    fmt.Sprintf("Unfortunately your referral %s was not accepted this time.", referral.Code),
	})
}

// send delivers one email best-effort. A failed send is logged and
// counted but never converts a committed state change into an error.
func (s *referralService) send(ctx context.Context, email ports.Email) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, email); err != nil {
		s.logger.Warn("failed to send notification email",
			zap.String("to", email.To), zap.Error(err))
		if s.metrics != nil {
			s.metrics.EmailsSent.WithLabelValues("failed").Inc()
		}
		return
	}
	if s.metrics != nil {
		s.metrics.EmailsSent.WithLabelValues("sent").Inc()
	}
}

func validateEmail(address string) error {
	if address == "" {
		return domain.E(domain.KindValidation, "email is required")
	}
	parsed, err := mail.ParseAddress(address)
	if err != nil || parsed.Address != address {
		return domain.E(domain.KindValidation, "email address is not valid")
	}
	return nil
}
