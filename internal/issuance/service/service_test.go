package service

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	acmodels "sigil/internal/accesscontrol/models"
	acservice "sigil/internal/accesscontrol/service"
	acstore "sigil/internal/accesscontrol/store"
	"sigil/internal/audit"
	"sigil/internal/issuance/authz"
	"sigil/internal/issuance/models"
	"sigil/internal/ledger"
	"sigil/internal/platform/config"
	regservice "sigil/internal/registry/service"
	regstore "sigil/internal/registry/store"
	"sigil/internal/treasury"
	id "sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
)

const (
	owner        = id.Address("0x1111111111111111111111111111111111111111")
	minter       = id.Address("0x2222222222222222222222222222222222222222")
	holder       = id.Address("0x3333333333333333333333333333333333333333")
	operator     = id.Address("0x4444444444444444444444444444444444444444")
	stranger     = id.Address("0x5555555555555555555555555555555555555555")
	treasuryAcct = id.Address("0x6666666666666666666666666666666666666666")
)

const testDomain = "sigil-test"

// Credential types created in SetupTest, by ID.
const (
	typeFree    = id.CredentialTypeID(0) // price 0
	typePriced  = id.CredentialTypeID(1) // price 50
	typeLicense = id.CredentialTypeID(2) // price 0
)

type ServiceSuite struct {
	suite.Suite
	role      *Service // mint authorization by minter role
	signature *Service // mint authorization by signed message

	access     *acservice.Service
	registry   *regservice.Service
	nonces     *authz.InMemoryNonceStore
	sink       *treasury.InMemorySink
	auditStore *audit.InMemoryStore

	priv  ed25519.PrivateKey
	clock time.Time
	ctx   context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = time.Unix(1_800_000_000, 0)

	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	s.priv = ed25519.NewKeyFromSeed(seed)
	signerKey := hex.EncodeToString(s.priv.Public().(ed25519.PublicKey))

	genesis := acmodels.State{Owner: owner, Treasury: treasuryAcct, Signer: signerKey}
	s.access = acservice.New(acstore.NewMemory(genesis))
	s.registry = regservice.New(regstore.NewMemory(), s.access)
	s.nonces = authz.NewInMemoryNonceStore()
	s.sink = treasury.NewInMemorySink()
	s.auditStore = audit.NewInMemoryStore()
	auditor := audit.NewPublisher(s.auditStore)

	credentialLedger := ledger.New(ledger.NewInMemoryStore())
	clock := func() time.Time { return s.clock }
	s.role = New(s.registry, credentialLedger, s.access, s.nonces, s.sink,
		config.MintAuthRole, testDomain, WithAuditPublisher(auditor), WithClock(clock))
	s.signature = New(s.registry, credentialLedger, s.access, s.nonces, s.sink,
		config.MintAuthSignature, testDomain, WithAuditPublisher(auditor), WithClock(clock))

	s.Require().NoError(s.access.AddMinter(s.ctx, owner, minter))
	for _, t := range []struct {
		name  string
		price uint64
	}{
		{"Degree", 0},
		{"Membership", 50},
		{"License", 0},
	} {
		_, err := s.registry.Create(s.ctx, owner, t.name, "", 0, 0, t.price)
		s.Require().NoError(err)
	}
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

// signedRequest builds a mint request carrying a valid authorization from the
// trusted signer over the given nonce.
func (s *ServiceSuite) signedRequest(to id.Address, typeID id.CredentialTypeID, price, value, nonce uint64) models.MintRequest {
	deadline := s.clock.Add(time.Hour).Unix()
	msg := authz.Message{
		Recipient: to,
		TypeID:    typeID,
		Price:     price,
		Deadline:  deadline,
		DomainID:  authz.DomainID(testDomain),
		Nonce:     nonce,
	}
	return models.MintRequest{
		To:     to,
		TypeID: typeID,
		Value:  value,
		Authorization: &models.Authorization{
			Deadline:  deadline,
			Nonce:     nonce,
			Signature: authz.Sign(s.priv, msg),
		},
	}
}

func (s *ServiceSuite) balance(holder id.Address, typeID id.CredentialTypeID) uint64 {
	qty, err := s.role.BalanceOf(s.ctx, holder, typeID)
	s.Require().NoError(err)
	return qty
}

func (s *ServiceSuite) nonce(holder id.Address) uint64 {
	n, err := s.role.Nonce(s.ctx, holder)
	s.Require().NoError(err)
	return n
}

// --- role path ---

func (s *ServiceSuite) TestRoleMint() {
	receipt, err := s.role.Mint(s.ctx, minter, models.MintRequest{To: holder, TypeID: typeFree})
	s.Require().NoError(err)
	s.Equal(holder, receipt.To)
	s.Equal("role", receipt.Path)
	s.Equal(uint64(1), s.balance(holder, typeFree))
}

func (s *ServiceSuite) TestRoleMintRequiresMinterRole() {
	_, err := s.role.Mint(s.ctx, stranger, models.MintRequest{To: holder, TypeID: typeFree})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Equal(uint64(0), s.balance(holder, typeFree))
}

func (s *ServiceSuite) TestMintRejectsZeroRecipient() {
	_, err := s.role.Mint(s.ctx, minter, models.MintRequest{To: id.ZeroAddress, TypeID: typeFree})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestMintPauseGated() {
	s.Require().NoError(s.access.Pause(s.ctx, owner))

	_, err := s.role.Mint(s.ctx, minter, models.MintRequest{To: holder, TypeID: typeFree})
	s.True(dErrors.HasCode(err, dErrors.CodeStatePaused))
}

func (s *ServiceSuite) TestMintUnknownType() {
	_, err := s.role.Mint(s.ctx, minter, models.MintRequest{To: holder, TypeID: 99})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestMintWindowBoundaries() {
	start := s.clock.Unix() + 100
	end := start + 100
	ct, err := s.registry.Create(s.ctx, owner, "Seasonal", "", start, end, 0)
	s.Require().NoError(err)

	_, err = s.role.Mint(s.ctx, minter, models.MintRequest{To: holder, TypeID: ct.ID})
	s.True(dErrors.HasCode(err, dErrors.CodeWindowNotStarted))

	// The window is [start, end): minting opens exactly at start.
	s.clock = time.Unix(start, 0)
	_, err = s.role.Mint(s.ctx, minter, models.MintRequest{To: holder, TypeID: ct.ID})
	s.Require().NoError(err)

	s.clock = time.Unix(end-1, 0)
	_, err = s.role.Mint(s.ctx, minter, models.MintRequest{To: stranger, TypeID: ct.ID})
	s.Require().NoError(err)

	s.clock = time.Unix(end, 0)
	_, err = s.role.Mint(s.ctx, minter, models.MintRequest{To: operator, TypeID: ct.ID})
	s.True(dErrors.HasCode(err, dErrors.CodeWindowEnded))
}

// --- signature path ---

func (s *ServiceSuite) TestSignedMint() {
	req := s.signedRequest(holder, typePriced, 50, 50, 0)

	receipt, err := s.signature.Mint(s.ctx, holder, req)
	s.Require().NoError(err)
	s.Equal("signature", receipt.Path)
	s.Equal(uint64(1), s.balance(holder, typePriced))
	s.Equal(uint64(1), s.nonce(holder))

	receipts := s.sink.Receipts()
	s.Require().Len(receipts, 1)
	s.Equal(treasuryAcct, receipts[0].Treasury)
	s.Equal(uint64(50), receipts[0].Value)
}

func (s *ServiceSuite) TestSignedMintRequiresAuthorization() {
	_, err := s.signature.Mint(s.ctx, holder, models.MintRequest{To: holder, TypeID: typeFree})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestSignedMintReplayRejected() {
	req := s.signedRequest(holder, typeFree, 0, 0, 0)

	_, err := s.signature.Mint(s.ctx, holder, req)
	s.Require().NoError(err)

	// An identical replay fails: the nonce was consumed by the first mint.
	_, err = s.signature.Mint(s.ctx, holder, req)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Equal(uint64(1), s.balance(holder, typeFree))
	s.Equal(uint64(1), s.nonce(holder))
}

func (s *ServiceSuite) TestSignedMintRejectsSkippedNonce() {
	// Validly signed, but over nonce 5 while the holder's counter is 0.
	req := s.signedRequest(holder, typeFree, 0, 0, 5)

	_, err := s.signature.Mint(s.ctx, holder, req)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Equal(uint64(0), s.nonce(holder))
	s.Equal(uint64(0), s.balance(holder, typeFree))
}

func (s *ServiceSuite) TestSignedMintExpiredAuthorization() {
	req := s.signedRequest(holder, typeFree, 0, 0, 0)
	s.clock = s.clock.Add(2 * time.Hour)

	_, err := s.signature.Mint(s.ctx, holder, req)
	s.True(dErrors.HasCode(err, dErrors.CodeAuthorizationExpired),
		"a stale authorization must be distinguishable from a forged one")
	s.Equal(uint64(0), s.nonce(holder))
}

func (s *ServiceSuite) TestSignedMintForgedSignature() {
	forger := ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))
	deadline := s.clock.Add(time.Hour).Unix()
	msg := authz.Message{
		Recipient: holder,
		TypeID:    typeFree,
		Deadline:  deadline,
		DomainID:  authz.DomainID(testDomain),
	}
	req := models.MintRequest{
		To:     holder,
		TypeID: typeFree,
		Authorization: &models.Authorization{
			Deadline:  deadline,
			Signature: authz.Sign(forger, msg),
		},
	}

	_, err := s.signature.Mint(s.ctx, holder, req)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.False(dErrors.HasCode(err, dErrors.CodeAuthorizationExpired))
}

func (s *ServiceSuite) TestSignedMintValueTooLow() {
	req := s.signedRequest(holder, typePriced, 50, 49, 0)

	_, err := s.signature.Mint(s.ctx, holder, req)
	s.True(dErrors.HasCode(err, dErrors.CodeValueTooLow))
	s.Equal(uint64(0), s.nonce(holder))
	s.Equal(uint64(0), s.balance(holder, typePriced))
	s.Empty(s.sink.Receipts())
}

func (s *ServiceSuite) TestSignedMintRejectsDuplicateHolding() {
	_, err := s.signature.Mint(s.ctx, holder, s.signedRequest(holder, typeFree, 0, 0, 0))
	s.Require().NoError(err)

	_, err = s.signature.Mint(s.ctx, holder, s.signedRequest(holder, typeFree, 0, 0, 1))
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	s.Equal(uint64(1), s.balance(holder, typeFree))
	s.Equal(uint64(1), s.nonce(holder), "a rejected mint leaves the nonce unchanged")
}

func (s *ServiceSuite) TestSignedMintZeroValueSkipsForwarding() {
	_, err := s.signature.Mint(s.ctx, holder, s.signedRequest(holder, typeFree, 0, 0, 0))
	s.Require().NoError(err)
	s.Empty(s.sink.Receipts())
}

func (s *ServiceSuite) TestSignedMintNonceAdvancesAcrossTypes() {
	_, err := s.signature.Mint(s.ctx, holder, s.signedRequest(holder, typeFree, 0, 0, 0))
	s.Require().NoError(err)

	_, err = s.signature.Mint(s.ctx, holder, s.signedRequest(holder, typeLicense, 0, 0, 1))
	s.Require().NoError(err)
	s.Equal(uint64(2), s.nonce(holder))
}

func (s *ServiceSuite) TestSignedMintValueForwardedAudited() {
	_, err := s.signature.Mint(s.ctx, holder, s.signedRequest(holder, typePriced, 50, 50, 0))
	s.Require().NoError(err)

	events, err := s.auditStore.ListByHolder(s.ctx, treasuryAcct)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionValueForwarded, events[0].Action)
	s.Equal(uint64(50), events[0].Value)
}

// --- burn ---

func (s *ServiceSuite) TestBurnByHolder() {
	_, err := s.role.Mint(s.ctx, minter, models.MintRequest{To: holder, TypeID: typeFree})
	s.Require().NoError(err)

	s.Require().NoError(s.role.Burn(s.ctx, holder, holder, typeFree, 1))
	s.Equal(uint64(0), s.balance(holder, typeFree))
}

func (s *ServiceSuite) TestBurnByApprovedOperator() {
	_, err := s.role.Mint(s.ctx, minter, models.MintRequest{To: holder, TypeID: typeFree})
	s.Require().NoError(err)

	err = s.role.Burn(s.ctx, operator, holder, typeFree, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	s.Require().NoError(s.role.SetApprovalForAll(s.ctx, holder, operator, true))
	s.Require().NoError(s.role.Burn(s.ctx, operator, holder, typeFree, 1))
	s.Equal(uint64(0), s.balance(holder, typeFree))
}

func (s *ServiceSuite) TestBurnInsufficientBalance() {
	err := s.role.Burn(s.ctx, holder, holder, typeFree, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *ServiceSuite) TestBurnWorksWhilePaused() {
	_, err := s.role.Mint(s.ctx, minter, models.MintRequest{To: holder, TypeID: typeFree})
	s.Require().NoError(err)

	// Holders can always shed credentials, even on a frozen engine.
	s.Require().NoError(s.access.Pause(s.ctx, owner))
	s.Require().NoError(s.role.Burn(s.ctx, holder, holder, typeFree, 1))
}

func (s *ServiceSuite) TestBurnBatchIsAtomic() {
	_, err := s.role.Mint(s.ctx, minter, models.MintRequest{To: holder, TypeID: typeFree})
	s.Require().NoError(err)
	_, err = s.role.Mint(s.ctx, minter, models.MintRequest{To: holder, TypeID: typeLicense})
	s.Require().NoError(err)

	err = s.role.BurnBatch(s.ctx, holder, holder, []models.BurnEntry{
		{TypeID: typeFree, Quantity: 1},
		{TypeID: typeLicense, Quantity: 2},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	s.Equal(uint64(1), s.balance(holder, typeFree), "a failed batch must not burn partially")

	s.Require().NoError(s.role.BurnBatch(s.ctx, holder, holder, []models.BurnEntry{
		{TypeID: typeFree, Quantity: 1},
		{TypeID: typeLicense, Quantity: 1},
	}))
	s.Equal(uint64(0), s.balance(holder, typeFree))
	s.Equal(uint64(0), s.balance(holder, typeLicense))
}

func (s *ServiceSuite) TestSetApprovalForAllAudited() {
	s.Require().NoError(s.role.SetApprovalForAll(s.ctx, holder, operator, true))
	s.Require().NoError(s.role.SetApprovalForAll(s.ctx, holder, operator, false))

	events, err := s.auditStore.ListByHolder(s.ctx, holder)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.ActionApprovalChanged, events[0].Action)
	s.Equal("granted", events[0].Detail)
	s.Equal("revoked", events[1].Detail)

	// The revoked operator is powerless again.
	err = s.role.Burn(s.ctx, operator, holder, typeFree, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

// --- recovery ---

func (s *ServiceSuite) TestRecoverMovesNonZeroBalances() {
	_, err := s.role.Mint(s.ctx, minter, models.MintRequest{To: holder, TypeID: typeFree})
	s.Require().NoError(err)
	_, err = s.role.Mint(s.ctx, minter, models.MintRequest{To: holder, TypeID: typeLicense})
	s.Require().NoError(err)

	moved, err := s.role.Recover(s.ctx, owner, holder, stranger)
	s.Require().NoError(err)
	s.Equal([]id.CredentialTypeID{typeFree, typeLicense}, moved, "only held types move")

	s.Equal(uint64(0), s.balance(holder, typeFree))
	s.Equal(uint64(1), s.balance(stranger, typeFree))
	s.Equal(uint64(1), s.balance(stranger, typeLicense))
	s.Equal(uint64(0), s.balance(stranger, typePriced))
}

func (s *ServiceSuite) TestRecoverRequiresOwner() {
	_, err := s.role.Recover(s.ctx, stranger, holder, stranger)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestRecoverPauseGated() {
	s.Require().NoError(s.access.Pause(s.ctx, owner))

	_, err := s.role.Recover(s.ctx, owner, holder, stranger)
	s.True(dErrors.HasCode(err, dErrors.CodeStatePaused))
}

func (s *ServiceSuite) TestRecoverEmptyHolder() {
	_, err := s.role.Recover(s.ctx, owner, holder, stranger)
	s.True(dErrors.HasCode(err, dErrors.CodeEmptyRecovery))
}

func (s *ServiceSuite) TestRecoverValidatesEndpoints() {
	_, err := s.role.Recover(s.ctx, owner, id.ZeroAddress, stranger)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.role.Recover(s.ctx, owner, holder, id.ZeroAddress)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.role.Recover(s.ctx, owner, holder, holder)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

// --- reads ---

func (s *ServiceSuite) TestBalancesReturnsNonZeroOnly() {
	_, err := s.role.Mint(s.ctx, minter, models.MintRequest{To: holder, TypeID: typeLicense})
	s.Require().NoError(err)

	balances, err := s.role.Balances(s.ctx, holder)
	s.Require().NoError(err)
	s.Equal([]models.Balance{{TypeID: typeLicense, Quantity: 1}}, balances)

	balances, err = s.role.Balances(s.ctx, stranger)
	s.Require().NoError(err)
	s.Empty(balances)
}

func (s *ServiceSuite) TestNonceStartsAtZero() {
	s.Equal(uint64(0), s.nonce(holder))
}
