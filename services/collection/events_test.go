package collection_test

import (
	"context"
	"strings"
	"testing"

	"watchlog/models"
	"watchlog/services/collection"
)

func TestEventPayloadsPerOperation(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	var events []collection.Event
	unsubscribe := svc.Subscribe(func(e collection.Event) {
		events = append(events, e)
	})
	defer unsubscribe()

	item, err := svc.AddItem(ctx, movie(42, "Inception"), models.StatusWillWatch)
	if err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	if _, err := svc.UpdateItemRating(ctx, item.ID, 9); err != nil {
		t.Fatalf("rating returned error: %v", err)
	}
	if err := svc.RemoveItem(ctx, item.ID); err != nil {
		t.Fatalf("remove returned error: %v", err)
	}
	if err := svc.ClearCollection(ctx, models.StatusWatched); err != nil {
		t.Fatalf("clear returned error: %v", err)
	}
	if _, err := svc.CreateProfile(ctx, "Casey", 30, []int{18}); err != nil {
		t.Fatalf("create profile returned error: %v", err)
	}

	want := []collection.EventType{
		collection.EventItemAdded,
		collection.EventItemUpdated,
		collection.EventItemRemoved,
		collection.EventCollectionCleared,
		collection.EventProfileUpdated,
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, typ := range want {
		if events[i].Type != typ {
			t.Fatalf("event %d: expected %s, got %s", i, typ, events[i].Type)
		}
	}

	if events[0].Item == nil || events[0].Item.ID != item.ID {
		t.Fatalf("ITEM_ADDED must carry the item")
	}
	if events[1].Item == nil || events[1].Item.UserRating == nil {
		t.Fatalf("ITEM_UPDATED must carry the updated item")
	}
	if events[2].ItemID != item.ID {
		t.Fatalf("ITEM_REMOVED must carry the item id")
	}
	if events[3].Status != models.StatusWatched {
		t.Fatalf("COLLECTION_CLEARED must carry the status")
	}
	if events[4].Profile == nil || events[4].Profile.Name != "Casey" {
		t.Fatalf("PROFILE_UPDATED must carry the profile")
	}
}

func TestNotifyHappensAfterPersist(t *testing.T) {
	svc, backend := newFixture(t)
	ctx := context.Background()

	durable := false
	unsubscribe := svc.Subscribe(func(e collection.Event) {
		if e.Type != collection.EventItemAdded {
			return
		}
		raw, ok, err := backend.Read(ctx, "collections")
		if err != nil || !ok {
			return
		}
		durable = strings.Contains(raw, `"Inception"`)
	})
	defer unsubscribe()

	if _, err := svc.AddItem(ctx, movie(42, "Inception"), models.StatusWatched); err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	if !durable {
		t.Fatalf("listener observed the event before the write was durable")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	calls := 0
	unsubscribe := svc.Subscribe(func(collection.Event) { calls++ })

	if _, err := svc.AddItem(ctx, movie(1, "A"), models.StatusWatched); err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	unsubscribe()
	if _, err := svc.AddItem(ctx, movie(2, "B"), models.StatusWatched); err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected one delivery before unsubscribe, got %d", calls)
	}
}

func TestPanickingListenerDoesNotAbortOperation(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	secondCalled := false
	defer svc.Subscribe(func(collection.Event) { panic("listener bug") })()
	defer svc.Subscribe(func(collection.Event) { secondCalled = true })()

	item, err := svc.AddItem(ctx, movie(3, "C"), models.StatusWatching)
	if err != nil {
		t.Fatalf("operation must survive a panicking listener, got %v", err)
	}
	if item == nil {
		t.Fatalf("expected item despite listener panic")
	}
	if !secondCalled {
		t.Fatalf("other listeners must still be notified")
	}
}
