package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"medidrop/internal/seller/models"
	"medidrop/pkg/domain"
	"medidrop/pkg/platform/sentinel"
)

type InMemorySuite struct {
	suite.Suite
	store *InMemory
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.store = NewInMemory()
}

func (s *InMemorySuite) newSeller() *models.Seller {
	seller, err := models.NewSeller(domain.NewSellerID(), "PharmaPlus Cairo", "EG", time.Now())
	s.Require().NoError(err)
	return seller
}

func (s *InMemorySuite) TestCreateAndFind() {
	ctx := context.Background()
	seller := s.newSeller()

	s.Run("create then find returns a copy", func() {
		s.Require().NoError(s.store.Create(ctx, seller))

		found, err := s.store.FindByID(ctx, seller.ID)
		s.Require().NoError(err)
		s.Equal(seller.ID, found.ID)

		found.DisplayName = "mutated"
		again, err := s.store.FindByID(ctx, seller.ID)
		s.Require().NoError(err)
		s.Equal("PharmaPlus Cairo", again.DisplayName)
	})

	s.Run("duplicate create conflicts", func() {
		s.ErrorIs(s.store.Create(ctx, seller), sentinel.ErrConflict)
	})

	s.Run("missing seller is not found", func() {
		_, err := s.store.FindByID(ctx, domain.NewSellerID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemorySuite) TestListByState() {
	ctx := context.Background()
	now := time.Now()

	unverified := s.newSeller()
	s.Require().NoError(s.store.Create(ctx, unverified))

	pending := s.newSeller()
	pending.ApplySubmission(models.Submission{
		LicenseNumber: "EG-PH-1",
		LicenseExpiry: now.AddDate(1, 0, 0),
		LicenseDocRef: "doc",
	}, now)
	s.Require().NoError(s.store.Create(ctx, pending))

	got, err := s.store.ListByState(ctx, models.StatePendingReview)
	s.Require().NoError(err)
	s.Len(got, 1)
	s.Equal(pending.ID, got[0].ID)
}

func (s *InMemorySuite) TestExecute() {
	ctx := context.Background()
	now := time.Now()
	seller := s.newSeller()
	s.Require().NoError(s.store.Create(ctx, seller))

	s.Run("validate error aborts without mutation", func() {
		boom := errors.New("boom")
		_, err := s.store.Execute(ctx, seller.ID,
			func(*models.Seller) error { return boom },
			func(sl *models.Seller) { sl.DisplayName = "mutated" },
		)
		s.ErrorIs(err, boom)

		found, err := s.store.FindByID(ctx, seller.ID)
		s.Require().NoError(err)
		s.Equal("PharmaPlus Cairo", found.DisplayName)
	})

	s.Run("mutation persists", func() {
		updated, err := s.store.Execute(ctx, seller.ID,
			func(*models.Seller) error { return nil },
			func(sl *models.Seller) { sl.RecordRegistryCheck(now) },
		)
		s.Require().NoError(err)
		s.NotNil(updated.LastRegistryCheck)

		found, err := s.store.FindByID(ctx, seller.ID)
		s.Require().NoError(err)
		s.NotNil(found.LastRegistryCheck)
	})

	s.Run("missing seller is not found", func() {
		_, err := s.store.Execute(ctx, domain.NewSellerID(),
			func(*models.Seller) error { return nil },
			func(*models.Seller) {},
		)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemorySuite) TestExecuteSerializes() {
	ctx := context.Background()
	seller := s.newSeller()
	s.Require().NoError(s.store.Create(ctx, seller))

	// Concurrent increments through Execute must not lose updates.
	const workers = 16
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.store.Execute(ctx, seller.ID,
				func(*models.Seller) error { return nil },
				func(sl *models.Seller) { sl.TaxNumber += "x" },
			)
		}()
	}
	wg.Wait()

	found, err := s.store.FindByID(ctx, seller.ID)
	s.Require().NoError(err)
	s.Len(found.TaxNumber, workers)
}
