package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sigil/internal/accesscontrol/models"
	acservice "sigil/internal/accesscontrol/service"
	acstore "sigil/internal/accesscontrol/store"
	"sigil/internal/registry/store"
	id "sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
)

const (
	owner    = id.Address("0x1111111111111111111111111111111111111111")
	stranger = id.Address("0x2222222222222222222222222222222222222222")
)

type ServiceSuite struct {
	suite.Suite
	service *Service
	access  *acservice.Service
	ctx     context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.access = acservice.New(acstore.NewMemory(models.State{Owner: owner}))
	s.service = New(store.NewMemory(), s.access)
	s.ctx = context.Background()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) TestCreateAssignsDenseSequentialIDs() {
	for i := uint64(0); i < 3; i++ {
		ct, err := s.service.Create(s.ctx, owner, "Degree", "", 0, 0, 0)
		s.Require().NoError(err)
		s.Equal(id.CredentialTypeID(i), ct.ID, "IDs are dense from zero")
	}

	next, err := s.service.NextID(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(3), next)
}

func (s *ServiceSuite) TestCreateRequiresOwner() {
	_, err := s.service.Create(s.ctx, stranger, "Degree", "", 0, 0, 0)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestCreatePauseGated() {
	s.Require().NoError(s.access.Pause(s.ctx, owner))

	_, err := s.service.Create(s.ctx, owner, "Degree", "", 0, 0, 0)
	s.True(dErrors.HasCode(err, dErrors.CodeStatePaused))
}

func (s *ServiceSuite) TestCreateValidatesInput() {
	_, err := s.service.Create(s.ctx, owner, "  ", "", 0, 0, 0)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Create(s.ctx, owner, "Degree", "", 100, 50, 0)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestGetAndList() {
	created, err := s.service.Create(s.ctx, owner, "Degree", "BSc", 10, 20, 5)
	s.Require().NoError(err)

	got, err := s.service.Get(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("Degree", got.Name)
	s.Equal(int64(10), got.StartTime)
	s.Equal(int64(20), got.EndTime)
	s.Equal(uint64(5), got.Price)

	all, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *ServiceSuite) TestGetUnknownType() {
	_, err := s.service.Get(s.ctx, 42)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestIsCreated() {
	created, err := s.service.IsCreated(s.ctx, 0)
	s.Require().NoError(err)
	s.False(created)

	_, err = s.service.Create(s.ctx, owner, "Degree", "", 0, 0, 0)
	s.Require().NoError(err)

	created, err = s.service.IsCreated(s.ctx, 0)
	s.Require().NoError(err)
	s.True(created)

	created, err = s.service.IsCreated(s.ctx, 1)
	s.Require().NoError(err)
	s.False(created)
}

func (s *ServiceSuite) TestMetadataURI() {
	_, err := s.service.Create(s.ctx, owner, "Degree", "", 0, 0, 0)
	s.Require().NoError(err)

	// No base URI configured: the URI is empty but not an error.
	uri, err := s.service.MetadataURI(s.ctx, 0)
	s.Require().NoError(err)
	s.Equal("", uri)

	s.Require().NoError(s.access.SetBaseURI(s.ctx, owner, "https://meta.example/types/"))

	uri, err = s.service.MetadataURI(s.ctx, 0)
	s.Require().NoError(err)
	s.Equal("https://meta.example/types/0", uri)

	_, err = s.service.MetadataURI(s.ctx, 7)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestClockInjection() {
	registeredAt := time.Unix(1_700_000_000, 0)
	svc := New(store.NewMemory(), s.access, WithClock(func() time.Time { return registeredAt }))

	ct, err := svc.Create(s.ctx, owner, "Degree", "", 0, 0, 0)
	s.Require().NoError(err)
	s.Equal(registeredAt, ct.RegisteredAt)
}
