package services

import (
	"context"
	"math/rand"

	"github.com/lewiswilliams7/refrr-sub000/internal/core/domain"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/ports"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8

	// maxCodeAttempts bounds the draw-check loop. With a 36^8 code space
	// hitting this means the store is lying to us, not bad luck.
	maxCodeAttempts = 10
)

// CodeGenerator produces referral codes that are unique among stored
// referrals at the moment of the existence check. These are marketing
// codes, not security tokens, so math/rand is enough; the referrals
// table's unique index is the authoritative collision guard on insert.
type CodeGenerator struct {
	repo ports.ReferralRepository
}

func NewCodeGenerator(repo ports.ReferralRepository) *CodeGenerator {
	return &CodeGenerator{repo: repo}
}

// Generate draws 8 symbols from A-Z0-9 and re-draws the whole string on a
// collision with an existing referral.
func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := randomCode()

		exists, err := g.repo.ExistsByCode(ctx, code)
		if err != nil {
			return "", domain.EW(domain.KindUnavailable, "failed to check referral code", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", domain.E(domain.KindUnavailable, "could not generate a unique referral code")
}

func randomCode() string {
	buf := make([]byte, codeLength)
	for i := range buf {
		buf[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(buf)
}
