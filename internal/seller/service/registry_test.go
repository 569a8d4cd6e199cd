package service

import (
	"time"

	"medidrop/internal/registry"
	"medidrop/internal/seller/models"
	dErrors "medidrop/pkg/domain-errors"
	"medidrop/pkg/platform/audit"
)

func (s *EngineSuite) TestRegistryCheckApproves() {
	s.checker.Add(registry.Record{LicenseNumber: "EG-PH-10021", Country: "EG", Valid: true})
	seller := s.pendingSeller(s.now.AddDate(1, 0, 0))

	outcome, err := s.engine.RunRegistryCheck(s.ctx, seller.ID)
	s.Require().NoError(err)
	s.Equal(OutcomeApproved, outcome)

	found, err := s.engine.GetSeller(s.ctx, seller.ID)
	s.Require().NoError(err)
	s.True(found.IsVerified())
	s.NotNil(found.LastRegistryCheck)
	s.Equal(1, s.auditStore.CountByKind(audit.KindRegistryChecked))
}

func (s *EngineSuite) TestRegistryCheckRejectsInvalidLicense() {
	s.checker.Add(registry.Record{LicenseNumber: "EG-PH-10021", Country: "EG", Valid: false})
	seller := s.pendingSeller(s.now.AddDate(1, 0, 0))

	outcome, err := s.engine.RunRegistryCheck(s.ctx, seller.ID)
	s.Require().NoError(err)
	s.Equal(OutcomeRejected, outcome)

	found, err := s.engine.GetSeller(s.ctx, seller.ID)
	s.Require().NoError(err)
	s.Equal(models.StateUnverified, found.State)
}

func (s *EngineSuite) TestRegistryCheckCountryMismatchDemotesVerifiedSeller() {
	s.checker.Add(registry.Record{LicenseNumber: "EG-PH-10021", Country: "AE", Valid: true})
	seller := s.verifiedSeller(s.now.AddDate(1, 0, 0))

	outcome, err := s.engine.RunRegistryCheck(s.ctx, seller.ID)
	s.Require().NoError(err)
	s.Equal(OutcomeMismatch, outcome)

	found, err := s.engine.GetSeller(s.ctx, seller.ID)
	s.Require().NoError(err)
	s.Equal(models.StatePendingReview, found.State)
	s.Equal(1, s.auditStore.CountByKind(audit.KindCountryMismatch))

	call, ok := s.syncer.lastQuarantine()
	s.Require().True(ok)
	s.Equal(seller.ID, call.sellerID)
	s.Contains(call.reason, "country")
}

func (s *EngineSuite) TestRegistryCheckCountryMismatchKeepsReviewOpen() {
	s.checker.Add(registry.Record{LicenseNumber: "EG-PH-10021", Country: "AE", Valid: true})
	seller := s.pendingSeller(s.now.AddDate(1, 0, 0))

	outcome, err := s.engine.RunRegistryCheck(s.ctx, seller.ID)
	s.Require().NoError(err)
	s.Equal(OutcomeMismatch, outcome)

	found, err := s.engine.GetSeller(s.ctx, seller.ID)
	s.Require().NoError(err)
	s.Equal(models.StatePendingReview, found.State)
}

func (s *EngineSuite) TestRegistryCheckUnknownLicenseRoutesToManualReview() {
	seller := s.pendingSeller(s.now.AddDate(1, 0, 0))

	outcome, err := s.engine.RunRegistryCheck(s.ctx, seller.ID)
	s.Require().NoError(err)
	s.Equal(OutcomeManualReview, outcome)

	found, err := s.engine.GetSeller(s.ctx, seller.ID)
	s.Require().NoError(err)
	s.Equal(models.StatePendingReview, found.State)
	s.Equal(1, s.auditStore.CountByKind(audit.KindRegistryChecked))
}

func (s *EngineSuite) TestRegistryCheckTimeoutRoutesToManualReview() {
	s.checker.Add(registry.Record{LicenseNumber: "EG-PH-10021", Country: "EG", Valid: true})
	s.checker.Delay = 50 * time.Millisecond

	slow := registry.WithTimeout(s.checker, 5*time.Millisecond)
	engine := NewEngine(s.store, s.engine.auditLog, s.docs, slow, testLogger())
	engine.SetListingSyncer(s.syncer)

	seller := s.pendingSeller(s.now.AddDate(1, 0, 0))

	outcome, err := engine.RunRegistryCheck(s.ctx, seller.ID)
	s.Require().NoError(err)
	s.Equal(OutcomeManualReview, outcome)

	found, err := engine.GetSeller(s.ctx, seller.ID)
	s.Require().NoError(err)
	s.Equal(models.StatePendingReview, found.State)
}

func (s *EngineSuite) TestRegistryCheckRequiresSubmittedLicense() {
	seller := s.createSeller()
	_, err := s.engine.RunRegistryCheck(s.ctx, seller.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}
