//go:build integration

package authz_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"sigil/internal/issuance/authz"
	id "sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
	"sigil/pkg/testutil/containers"
)

const nonceHolder = id.Address("0x1111111111111111111111111111111111111111")

type PostgresNonceSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *authz.PostgresNonceStore
}

func TestPostgresNonceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresNonceSuite))
}

func (s *PostgresNonceSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = authz.NewPostgresNonceStore(s.postgres.DB)
}

func (s *PostgresNonceSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "holder_nonces")
	s.Require().NoError(err)
}

func (s *PostgresNonceSuite) TestUnknownHolderStartsAtZero() {
	nonce, err := s.store.Current(context.Background(), nonceHolder)
	s.Require().NoError(err)
	s.Equal(uint64(0), nonce)
}

func (s *PostgresNonceSuite) TestConsumeAdvances() {
	ctx := context.Background()

	s.Require().NoError(s.store.Consume(ctx, nonceHolder, 0))

	nonce, err := s.store.Current(ctx, nonceHolder)
	s.Require().NoError(err)
	s.Equal(uint64(1), nonce)

	s.ErrorIs(s.store.Consume(ctx, nonceHolder, 0), sentinel.ErrStaleNonce)
	s.Require().NoError(s.store.Consume(ctx, nonceHolder, 1))
}

// TestConcurrentConsumeAdmitsExactlyOne verifies the compare-and-swap at the
// database level: 50 racing consumers of the same nonce produce exactly one
// winner.
func (s *PostgresNonceSuite) TestConcurrentConsumeAdmitsExactlyOne() {
	ctx := context.Background()
	const goroutines = 50

	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.Consume(ctx, nonceHolder, 0); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())

	nonce, err := s.store.Current(ctx, nonceHolder)
	s.Require().NoError(err)
	s.Equal(uint64(1), nonce)
}
