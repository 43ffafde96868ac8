package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-statebox/pkg/activity"
	"github.com/goliatone/go-statebox/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsStateEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildStateEvent(activity.StateEventInput{
		Op:         "set",
		Paths:      []string{"user.profile.name"},
		HistoryLen: 2,
		Version:    1,
		ActorID:    actorID.String(),
		OccurredAt: now,
	})
	event.TenantID = tenantID.String()
	event.Channel = "state"
	event.DefinitionCode = "state:set"
	event.Recipients = []string{"ops@example.com"}

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID {
		t.Fatalf("expected actor %s got %s", actorID, record.ActorID)
	}
	if record.UserID != uuid.Nil {
		t.Fatalf("expected nil user id, got %s", record.UserID)
	}
	if record.TenantID != tenantID {
		t.Fatalf("expected tenant %s got %s", tenantID, record.TenantID)
	}
	if record.Verb != "state.set" || record.ObjectType != "state" || record.ObjectID != "user.profile.name" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "state" {
		t.Fatalf("expected channel state got %q", record.Channel)
	}
	if !record.OccurredAt.Equal(now) {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["definition_code"] != "state:set" {
		t.Fatalf("expected definition_code metadata got %v", record.Data["definition_code"])
	}
	if record.Data["history_len"] != 2 {
		t.Fatalf("expected history_len passthrough got %v", record.Data["history_len"])
	}
	recipients, ok := record.Data["recipients"].([]string)
	if !ok || len(recipients) != 1 || recipients[0] != "ops@example.com" {
		t.Fatalf("expected recipients metadata got %v", record.Data["recipients"])
	}
}

func TestHookNotifySkipsIncompleteEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{Verb: "state.set"})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for incomplete event, got %d", len(sink.records))
	}
}

func TestHookNotifyPropagatesSinkError(t *testing.T) {
	boom := errors.New("sink down")
	sink := &recordingSink{err: boom}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{Verb: "state.undo", ObjectType: "state", ObjectID: "*"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
}

func TestHookNilSinkIsNoop(t *testing.T) {
	hook := usersink.Hook{}
	if err := hook.Notify(context.Background(), activity.Event{Verb: "state.reset", ObjectType: "state", ObjectID: "*"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
