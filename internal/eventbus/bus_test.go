package eventbus

import "testing"

type progress struct {
	Epoch int
	Loss  float64
}

func TestBusPublishSubscribe(t *testing.T) {
	bus := New[progress](4)
	ch := bus.Subscribe()
	bus.Publish(progress{Epoch: 1, Loss: 0.5})
	v := <-ch
	if v.Epoch != 1 || v.Loss != 0.5 {
		t.Fatalf("unexpected event %+v", v)
	}
	bus.Unsubscribe(ch)
	if bus.Len() != 0 {
		t.Fatalf("expected no subscribers, got %d", bus.Len())
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := New[int](1)
	ch := bus.Subscribe()
	bus.Publish(1)
	bus.Publish(2)
	if v := <-ch; v != 1 {
		t.Fatalf("expected first event, got %d", v)
	}
	select {
	case v := <-ch:
		t.Fatalf("expected dropped event, got %d", v)
	default:
	}
}

func TestBusClose(t *testing.T) {
	bus := New[int](0)
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
	bus.Publish(3)
	if _, ok := <-bus.Subscribe(); ok {
		t.Fatalf("expected subscribe after close to return closed channel")
	}
}

func TestBusUnsubscribeAfterClose(t *testing.T) {
	bus := New[int](0)
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}

func TestFuncPublisher(t *testing.T) {
	var got []int
	var p Publisher[int] = Func[int](func(v int) { got = append(got, v) })
	p.Publish(7)
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("unexpected %v", got)
	}
}
