package redis

import (
	"context"
	"testing"
	"time"

	"english-mcq-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
)

type sinkFunc func(domain.DashboardUpdate)

func (f sinkFunc) Deliver(update domain.DashboardUpdate) { f(update) }

func TestDashboardRelayRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	relay := NewDashboardRelay(client, "dashboard:", nil)

	got := make(chan domain.DashboardUpdate, 1)
	stop, err := relay.Start(context.Background(), sinkFunc(func(u domain.DashboardUpdate) { got <- u }))
	if err != nil {
		t.Fatalf("start relay: %v", err)
	}
	defer stop()

	update := domain.DashboardUpdate{
		UserID: "user-1",
		Data: domain.DashboardData{
			TotalPoints:           30,
			PreviousSessionPoints: 10,
			PointsHistory:         []domain.PointsEntry{{Timestamp: time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC), Points: 30, TopicID: "topic_travel"}},
		},
	}
	if err := relay.Publish(context.Background(), update); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case u := <-got:
		if u.UserID != "user-1" || u.Data.TotalPoints != 30 || u.Data.UserID != "user-1" || len(u.Data.PointsHistory) != 1 || u.Data.PointsHistory[0].TopicID != "topic_travel" {
			t.Fatalf("unexpected relayed update %+v", u)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected relayed update")
	}
}

func TestDashboardRelayIgnoresMalformedPayloads(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	relay := NewDashboardRelay(client, "dashboard:", nil)

	got := make(chan domain.DashboardUpdate, 2)
	stop, err := relay.Start(context.Background(), sinkFunc(func(u domain.DashboardUpdate) { got <- u }))
	if err != nil {
		t.Fatalf("start relay: %v", err)
	}

	client.Publish(context.Background(), "dashboard:user-1", "not json")
	_ = relay.Publish(context.Background(), domain.DashboardUpdate{UserID: "user-1"})

	select {
	case u := <-got:
		if u.UserID != "user-1" || u.Data.PointsHistory == nil {
			t.Fatalf("unexpected update %+v", u)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the valid update to arrive")
	}

	stop()
	stop()
}
