package event

import (
	"testing"

	"go.uber.org/zap"
)

func TestPublishDeliversSynchronouslyInOrder(t *testing.T) {
	b := NewBus(zap.NewNop())
	var got []int
	Subscribe(b, func(e DayPassed) { got = append(got, e.Day) })
	Subscribe(b, func(e DayPassed) { got = append(got, e.Day*10) })
	Subscribe(b, func(SoulsChanged) { t.Fatal("wrong type delivered") })

	Publish(b, DayPassed{Day: 3})

	if len(got) != 2 || got[0] != 3 || got[1] != 30 {
		t.Fatalf("got %v, want [3 30]", got)
	}
}

func TestPublishRecoversHandlerPanic(t *testing.T) {
	b := NewBus(zap.NewNop())
	delivered := false
	Subscribe(b, func(ResidentDied) { panic("boom") })
	Subscribe(b, func(ResidentDied) { delivered = true })

	Publish(b, ResidentDied{Age: 70})

	if !delivered {
		t.Fatal("handler after the panicking one was not called")
	}
}

func TestPublishOnNilBus(t *testing.T) {
	var b *Bus
	Publish(b, MapUpdated{}) // must not panic
}

func TestEmitMatchesDynamicType(t *testing.T) {
	b := NewBus(zap.NewNop())
	var got []int64
	Subscribe(b, func(e SoulsChanged) { got = append(got, e.Delta) })
	Subscribe(b, func(e ResidentBorn) { t.Errorf("unexpected ResidentBorn %+v", e) })

	var ev any = SoulsChanged{Delta: -30, Balance: 170}
	b.Emit(ev)
	b.Emit(nil)

	if len(got) != 1 || got[0] != -30 {
		t.Fatalf("got %v, want [-30]", got)
	}
}
