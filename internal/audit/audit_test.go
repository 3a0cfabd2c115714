package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type AuditSuite struct {
	suite.Suite
}

func TestAuditSuite(t *testing.T) {
	suite.Run(t, new(AuditSuite))
}

func (s *AuditSuite) TestCategoryOf() {
	s.Equal(CategorySecurity, CategoryOf(ActionLogin))
	s.Equal(CategorySecurity, CategoryOf(ActionAuthFailed))
	s.Equal(CategoryCompliance, CategoryOf(ActionAssetPurged))
	s.Equal(CategoryOperations, CategoryOf(ActionHistoryAppended))
	s.Equal(CategoryOperations, CategoryOf(Action("unknown_action")))
}

func (s *AuditSuite) TestPublisherEmit() {
	s.Run("stamps timestamp and category", func() {
		p := NewPublisher(4)
		s.True(p.Emit(Event{Action: string(ActionLogin), Subject: "jane@example.com"}))

		event := <-p.Inbox()
		s.Equal(CategorySecurity, event.Category)
		s.False(event.Timestamp.IsZero())
	})

	s.Run("drops instead of blocking when full", func() {
		p := NewPublisher(1)
		s.True(p.Emit(Event{Action: string(ActionLogin)}))
		s.False(p.Emit(Event{Action: string(ActionLogin)}))
	})
}

func (s *AuditSuite) TestWorkerDrainsToStore() {
	store := NewInMemoryStore(16)
	p := NewPublisher(16)
	worker := NewWorker(store, p.Inbox(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	p.Emit(Event{Action: string(ActionAssetCreated), Subject: "asset-1"})
	p.Emit(Event{Action: string(ActionAssetUpdated), Subject: "asset-1"})

	s.Eventually(func() bool {
		events, err := store.ListRecent(context.Background(), 10)
		return err == nil && len(events) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func (s *AuditSuite) TestInMemoryStoreCap() {
	store := NewInMemoryStore(2)
	for i := 0; i < 5; i++ {
		s.Require().NoError(store.Append(context.Background(), Event{Action: string(ActionLogin)}))
	}
	events, err := store.ListRecent(context.Background(), 10)
	s.Require().NoError(err)
	s.Len(events, 2)
}
