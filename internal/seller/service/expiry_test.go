package service

import (
	"time"

	"medidrop/internal/seller/models"
	"medidrop/pkg/platform/audit"
)

func (s *EngineSuite) TestSweepSuspendsExpired() {
	expired := s.verifiedSeller(s.now.Add(-24 * time.Hour))
	healthy := s.verifiedSeller(s.now.AddDate(1, 0, 0))

	report, err := s.engine.RunDailyExpiryCheck(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(2, report.Checked)
	s.Equal(1, report.Suspended)

	found, err := s.engine.GetSeller(s.ctx, expired.ID)
	s.Require().NoError(err)
	s.Equal(models.StateSuspended, found.State)

	stillVerified, err := s.engine.GetSeller(s.ctx, healthy.ID)
	s.Require().NoError(err)
	s.True(stillVerified.IsVerified())

	s.Equal(1, s.auditStore.CountByKind(audit.KindLicenseExpired))

	call, ok := s.syncer.last()
	s.Require().True(ok)
	s.Equal(expired.ID, call.sellerID)
	s.False(call.verified)
}

func (s *EngineSuite) TestSweepIsIdempotent() {
	s.verifiedSeller(s.now.Add(-24 * time.Hour))
	s.verifiedSeller(s.now.AddDate(0, 0, 14))

	first, err := s.engine.RunDailyExpiryCheck(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(1, first.Suspended)
	s.Equal(1, first.Warned)

	suspensions := s.auditStore.CountByKind(audit.KindLicenseExpired)
	warnings := s.auditStore.CountByKind(audit.KindPendingExpiry)
	total := s.auditStore.Count()

	second, err := s.engine.RunDailyExpiryCheck(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(0, second.Suspended)
	s.Equal(0, second.Warned)

	s.Equal(suspensions, s.auditStore.CountByKind(audit.KindLicenseExpired))
	s.Equal(warnings, s.auditStore.CountByKind(audit.KindPendingExpiry))
	s.Equal(total, s.auditStore.Count())
}

func (s *EngineSuite) TestSweepWarnsAgainNextDay() {
	s.verifiedSeller(s.now.AddDate(0, 0, 14))

	first, err := s.engine.RunDailyExpiryCheck(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(1, first.Warned)

	nextDay, err := s.engine.RunDailyExpiryCheck(s.ctx, s.now.Add(24*time.Hour))
	s.Require().NoError(err)
	s.Equal(1, nextDay.Warned)
	s.Equal(2, s.auditStore.CountByKind(audit.KindPendingExpiry))
}

func (s *EngineSuite) TestSweepIgnoresDistantExpiry() {
	s.verifiedSeller(s.now.AddDate(1, 0, 0))

	report, err := s.engine.RunDailyExpiryCheck(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(0, report.Suspended)
	s.Equal(0, report.Warned)
}

func (s *EngineSuite) TestSweepOnlyTouchesVerifiedSellers() {
	pending := s.pendingSeller(s.now.Add(-24 * time.Hour))

	report, err := s.engine.RunDailyExpiryCheck(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(0, report.Checked)

	found, err := s.engine.GetSeller(s.ctx, pending.ID)
	s.Require().NoError(err)
	s.Equal(models.StatePendingReview, found.State)
}
