//go:build integration

package worker_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"sigil/internal/platform/kafka/producer"
	"sigil/pkg/platform/audit/outbox"
	"sigil/pkg/platform/audit/outbox/worker"
	"sigil/pkg/testutil/containers"
)

const testTopic = "sigil.audit.test"

type WorkerSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	kafka    *containers.KafkaContainer
	store    *outbox.PostgresStore
	producer *producer.Producer
	logger   *slog.Logger
}

func TestWorkerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(WorkerSuite))
}

func (s *WorkerSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.kafka = mgr.GetKafka(s.T())
	s.store = outbox.NewPostgres(s.postgres.DB)
	s.logger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	prod, err := producer.New(producer.DefaultConfig(s.kafka.Brokers), s.logger)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *WorkerSuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close()
	}
}

func (s *WorkerSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "outbox")
	s.Require().NoError(err)
}

// TestPublishesPendingEntries runs the full relay: spool an entry into the
// postgres outbox, let the worker pick it up, and verify it arrives on the
// broker with its headers and gets marked processed.
func (s *WorkerSuite) TestPublishesPendingEntries() {
	ctx := context.Background()

	entry := outbox.NewEntry("credential", "0xabc", "credential.minted", []byte(`{"quantity":1}`))
	s.Require().NoError(s.store.Append(ctx, entry))

	w := worker.New(s.store, s.producer,
		worker.WithTopic(testTopic),
		worker.WithPollInterval(50*time.Millisecond),
		worker.WithLogger(s.logger),
	)
	w.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Require().NoError(w.Stop(stopCtx))
	}()

	consumer, err := s.kafka.NewConsumer(ctx, "worker-suite", testTopic)
	s.Require().NoError(err)
	defer consumer.Close()

	record := s.kafka.WaitForMessage(ctx, consumer, 30*time.Second, func(r *kgo.Record) bool {
		return string(r.Key) == entry.ID.String()
	})
	s.Require().NotNil(record, "entry never reached the broker")
	s.Equal([]byte(`{"quantity":1}`), record.Value)

	headers := make(map[string]string, len(record.Headers))
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	s.Equal("credential", headers["aggregate_type"])
	s.Equal("0xabc", headers["aggregate_id"])
	s.Equal("credential.minted", headers["event_type"])

	// The relayed entry is no longer pending.
	s.Require().Eventually(func() bool {
		count, err := s.store.CountPending(ctx)
		return err == nil && count == 0
	}, 10*time.Second, 100*time.Millisecond)
}

// TestStopDrainsBacklog verifies shutdown publishes whatever is still
// spooled instead of abandoning it.
func (s *WorkerSuite) TestStopDrainsBacklog() {
	ctx := context.Background()

	entry := outbox.NewEntry("credential", "0xdef", "credential.burned", []byte(`{}`))
	s.Require().NoError(s.store.Append(ctx, entry))

	// A long poll interval so the regular loop never fires; only the drain
	// on Stop can publish the entry.
	w := worker.New(s.store, s.producer,
		worker.WithTopic(testTopic),
		worker.WithPollInterval(time.Hour),
		worker.WithLogger(s.logger),
	)
	w.Start()

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.Require().NoError(w.Stop(stopCtx))

	count, err := s.store.CountPending(ctx)
	s.Require().NoError(err)
	s.Equal(int64(0), count)
}
