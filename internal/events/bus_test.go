package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan PhaseChangedEvent, 1)

	unsub := bus.Subscribe(func(e PhaseChangedEvent) {
		received <- e
	})
	defer unsub()

	bus.Publish(PhaseChangedEvent{From: "stopped", To: "running", Resolution: "640x480"})

	select {
	case got := <-received:
		if got.To != "running" {
			t.Errorf("To = %q, want running", got.To)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := New()
	received1 := make(chan ControlServicedEvent, 1)
	received2 := make(chan ControlServicedEvent, 1)

	defer bus.Subscribe(func(e ControlServicedEvent) { received1 <- e })()
	defer bus.Subscribe(func(e ControlServicedEvent) { received2 <- e })()

	bus.Publish(ControlServicedEvent{Request: "get_exposure", Success: true})

	for i, ch := range []chan ControlServicedEvent{received1, received2} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d not notified", i+1)
		}
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan CaptureFailedEvent, 1)

	unsub := bus.Subscribe(func(e CaptureFailedEvent) {
		received <- e
	})

	bus.Publish(CaptureFailedEvent{Stage: "capture"})
	<-received

	unsub()

	bus.Publish(CaptureFailedEvent{Stage: "configure"})
	select {
	case <-received:
		t.Fatal("received event after unsubscribe")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()
	phase := make(chan bool, 1)
	settings := make(chan bool, 1)

	defer bus.Subscribe(func(PhaseChangedEvent) { phase <- true })()
	defer bus.Subscribe(func(SettingsChangedEvent) { settings <- true })()

	bus.Publish(PhaseChangedEvent{To: "running"})
	<-phase

	select {
	case <-settings:
		t.Fatal("settings subscriber received a phase event")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBus_UnknownHandlerIsNoop(_ *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}

func TestBus_NilPublishDiscards(_ *testing.T) {
	var bus *Bus
	bus.Publish(PhaseChangedEvent{})
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 1)

	unsub := SubscribeToChannel[SettingsChangedEvent](bus, ch)
	defer unsub()

	bus.Publish(SettingsChangedEvent{Exposure: 20, Resolution: "1280x720"})

	select {
	case ev := <-ch:
		got, ok := ev.(SettingsChangedEvent)
		if !ok || got.Exposure != 20 {
			t.Errorf("unexpected event %#v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("event not forwarded to channel")
	}
}

func TestEventJSON(t *testing.T) {
	data, err := json.Marshal(SettingsChangedEvent{Exposure: 0, Resolution: "640x480", Timestamp: "t"})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"exposure_ms":0,"resolution":"640x480","timestamp":"t"}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}
