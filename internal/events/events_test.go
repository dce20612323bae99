package events

import (
	"testing"
	"time"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventFolderOpened)

	testEvent := &FolderOpenedEvent{
		BaseEvent:   Now(EventFolderOpened),
		Path:        "/T-100/Bid",
		Source:      "template",
		FolderCount: 2,
	}

	bus.Publish(testEvent)

	select {
	case received := <-ch:
		opened, ok := received.(*FolderOpenedEvent)
		if !ok {
			t.Fatal("Expected FolderOpenedEvent")
		}
		if opened.Path != "/T-100/Bid" {
			t.Errorf("Expected path '/T-100/Bid', got '%s'", opened.Path)
		}
		if opened.Source != "template" {
			t.Errorf("Expected source 'template', got '%s'", opened.Source)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event")
	}
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.SubscribeAll()

	bus.Publish(&FolderOpenedEvent{BaseEvent: Now(EventFolderOpened), Path: "/a"})
	bus.Publish(&PrefetchCompletedEvent{BaseEvent: Now(EventPrefetchCompleted), Parent: "/a", Fetched: 3})

	types := make([]EventType, 0, 2)
	for i := 0; i < 2; i++ {
		select {
		case ev := <-ch:
			types = append(types, ev.Type())
		case <-time.After(time.Second):
			t.Fatal("Timeout waiting for events")
		}
	}

	if types[0] != EventFolderOpened || types[1] != EventPrefetchCompleted {
		t.Errorf("Unexpected event order: %v", types)
	}
}

func TestEventBus_TypeFiltering(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventUploadCompleted)

	// Events of other types must not reach this subscriber
	bus.Publish(&FolderOpenedEvent{BaseEvent: Now(EventFolderOpened), Path: "/x"})

	select {
	case ev := <-ch:
		t.Fatalf("Received unexpected event type %s", ev.Type())
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBus_DropsWhenFull(t *testing.T) {
	bus := NewEventBus(1)
	defer bus.Close()

	_ = bus.Subscribe(EventLog)

	// Buffer of 1: second publish must be dropped, not block
	bus.Publish(&LogEvent{BaseEvent: Now(EventLog), Message: "one"})
	bus.Publish(&LogEvent{BaseEvent: Now(EventLog), Message: "two"})

	if got := bus.DroppedEvents(); got != 1 {
		t.Errorf("Expected 1 dropped event, got %d", got)
	}
}

func TestEventBus_PublishAfterClose(t *testing.T) {
	bus := NewEventBus(10)
	ch := bus.Subscribe(EventError)
	bus.Close()

	// Must not panic
	bus.Publish(&ErrorEvent{BaseEvent: Now(EventError)})

	if _, ok := <-ch; ok {
		t.Error("Expected subscriber channel to be closed")
	}
}
