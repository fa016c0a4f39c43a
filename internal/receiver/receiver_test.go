package receiver

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/marvin21/MBP/internal/domain"
	"github.com/marvin21/MBP/internal/noise"
	"github.com/marvin21/MBP/internal/ports"
)

type fakeObs struct {
	mu       sync.Mutex
	counters map[string]float64
}

func newFakeObs() *fakeObs {
	return &fakeObs{counters: make(map[string]float64)}
}

func (f *fakeObs) LogInfo(msg string, fields ...ports.Field)                {}
func (f *fakeObs) LogError(msg string, err error, fields ...ports.Field)    {}
func (f *fakeObs) LogCritical(msg string, err error, fields ...ports.Field) {}
func (f *fakeObs) SetGauge(name string, v float64)                          {}
func (f *fakeObs) ObserveLatency(name string, seconds float64)              {}

func (f *fakeObs) IncCounter(name string, v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters[name] += v
}

func (f *fakeObs) counter(name string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counters[name]
}

type recordingObserver struct {
	mu   sync.Mutex
	logs []*domain.ValueLog
}

func (o *recordingObserver) OnValueReceived(v *domain.ValueLog) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.logs = append(o.logs, v)
}

func (o *recordingObserver) received() []*domain.ValueLog {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*domain.ValueLog(nil), o.logs...)
}

type panickyObserver struct{}

func (panickyObserver) OnValueReceived(*domain.ValueLog) { panic("boom") }

func TestRegisterObserverRejectsNil(t *testing.T) {
	r := NewReceiver(noise.DefaultPolicy(), newFakeObs())

	if err := r.RegisterObserver(nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if err := r.UnregisterObserver(nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRegisterObserverSetSemantics(t *testing.T) {
	r := NewReceiver(noise.DefaultPolicy(), newFakeObs())
	obs := &recordingObserver{}

	if err := r.RegisterObserver(obs); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.RegisterObserver(obs); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	payload := []byte(`{"component":"sensor","id":"S1","value":3.5,"noisyData":false}`)
	if err := r.HandleMessage("sensor/S1", payload, 1); err != nil {
		t.Fatalf("handle message: %v", err)
	}

	if got := obs.received(); len(got) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(got))
	}

	if err := r.UnregisterObserver(obs); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if err := r.UnregisterObserver(obs); err != nil {
		t.Fatalf("unregister absent observer should be a no-op, got %v", err)
	}

	if err := r.HandleMessage("sensor/S1", payload, 1); err != nil {
		t.Fatalf("handle message: %v", err)
	}
	if got := obs.received(); len(got) != 1 {
		t.Fatalf("expected no further notifications, got %d", len(got))
	}
}

func TestHandleMessageBuildsValueLog(t *testing.T) {
	r := NewReceiver(noise.DefaultPolicy(), newFakeObs())
	fixed := time.Date(2024, 5, 12, 10, 30, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	obs := &recordingObserver{}
	if err := r.RegisterObserver(obs); err != nil {
		t.Fatalf("register: %v", err)
	}

	payload := []byte(`{"component":"sensor","id":"S1","value":21.5,"noisyData":false}`)
	if err := r.HandleMessage("sensor/S1/values", payload, 2); err != nil {
		t.Fatalf("handle message: %v", err)
	}

	logs := obs.received()
	if len(logs) != 1 {
		t.Fatalf("expected one value log, got %d", len(logs))
	}
	v := logs[0]
	if v.Topic != "sensor/S1/values" || v.QoS != 2 || !v.Time.Equal(fixed) {
		t.Fatalf("unexpected envelope fields: %+v", v)
	}
	if v.ComponentKind != "sensor" || v.ComponentID != "S1" || v.Value != 21.5 {
		t.Fatalf("unexpected parsed fields: %+v", v)
	}
	if v.OriginalValue != nil {
		t.Fatalf("original value should be unset for clean data")
	}
	if v.Message != string(payload) {
		t.Fatalf("raw message body not preserved")
	}
}

func TestHandleMessageAnonymizesNoisyData(t *testing.T) {
	pol, err := noise.NewPolicy(10, 10, 25)
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	r := NewReceiver(pol, newFakeObs())
	obs := &recordingObserver{}
	if err := r.RegisterObserver(obs); err != nil {
		t.Fatalf("register: %v", err)
	}

	payload := []byte(`{"component":"sensor","id":"S1","value":50,"noisyData":true}`)
	if err := r.HandleMessage("sensor/S1", payload, 0); err != nil {
		t.Fatalf("handle message: %v", err)
	}

	logs := obs.received()
	if len(logs) != 1 {
		t.Fatalf("expected one value log, got %d", len(logs))
	}
	v := logs[0]
	if v.OriginalValue == nil || *v.OriginalValue != 50 {
		t.Fatalf("original value not captured: %+v", v)
	}
	delta := v.Value - 50
	if delta < pol.DistanceMin || delta >= pol.DistanceMax {
		t.Fatalf("perturbation %v outside [%v, %v)", delta, pol.DistanceMin, pol.DistanceMax)
	}
}

func TestHandleMessageMalformedPayloadIsDropped(t *testing.T) {
	fo := newFakeObs()
	r := NewReceiver(noise.DefaultPolicy(), fo)
	obs := &recordingObserver{}
	if err := r.RegisterObserver(obs); err != nil {
		t.Fatalf("register: %v", err)
	}

	cases := [][]byte{
		[]byte(`not json at all`),
		[]byte(`{"component":"sensor","id":"S1","value":3.5}`),
		[]byte(`{"component":"sensor","id":"S1","value":"high","noisyData":false}`),
		[]byte(`{"component":"sensor","id":"","value":3.5,"noisyData":false}`),
	}
	for _, payload := range cases {
		if err := r.HandleMessage("sensor/S1", payload, 0); !errors.Is(err, domain.ErrMalformedPayload) {
			t.Fatalf("payload %s: expected ErrMalformedPayload, got %v", payload, err)
		}
	}

	if got := obs.received(); len(got) != 0 {
		t.Fatalf("malformed payloads must not reach observers, got %d logs", len(got))
	}
	if fo.counter("mbp_payload_malformed_total") != float64(len(cases)) {
		t.Fatalf("malformed counter = %v, want %d", fo.counter("mbp_payload_malformed_total"), len(cases))
	}

	// The pipeline keeps working after bad input.
	good := []byte(`{"component":"sensor","id":"S1","value":1,"noisyData":false}`)
	if err := r.HandleMessage("sensor/S1", good, 0); err != nil {
		t.Fatalf("handle message after malformed input: %v", err)
	}
	if got := obs.received(); len(got) != 1 {
		t.Fatalf("expected the pipeline to continue, got %d logs", len(got))
	}
}

func TestDispatchIsolatesPanickingObserver(t *testing.T) {
	fo := newFakeObs()
	r := NewReceiver(noise.DefaultPolicy(), fo)

	healthy := &recordingObserver{}
	if err := r.RegisterObserver(panickyObserver{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.RegisterObserver(healthy); err != nil {
		t.Fatalf("register: %v", err)
	}

	payload := []byte(`{"component":"sensor","id":"S1","value":1,"noisyData":false}`)
	if err := r.HandleMessage("sensor/S1", payload, 0); err != nil {
		t.Fatalf("handle message: %v", err)
	}

	if got := healthy.received(); len(got) != 1 {
		t.Fatalf("healthy observer starved by panicking peer, got %d logs", len(got))
	}
	if fo.counter("mbp_observer_panics_total") != 1 {
		t.Fatalf("panic counter = %v, want 1", fo.counter("mbp_observer_panics_total"))
	}
}

func TestHandleConnectionLostKeepsPipelineAlive(t *testing.T) {
	fo := newFakeObs()
	r := NewReceiver(noise.DefaultPolicy(), fo)
	obs := &recordingObserver{}
	if err := r.RegisterObserver(obs); err != nil {
		t.Fatalf("register: %v", err)
	}

	r.HandleConnectionLost(errors.New("broker went away"))
	if fo.counter("mbp_connection_lost_total") != 1 {
		t.Fatalf("connection lost counter = %v, want 1", fo.counter("mbp_connection_lost_total"))
	}

	payload := []byte(`{"component":"sensor","id":"S1","value":1,"noisyData":false}`)
	if err := r.HandleMessage("sensor/S1", payload, 0); err != nil {
		t.Fatalf("handle message after connection loss: %v", err)
	}
	if got := obs.received(); len(got) != 1 {
		t.Fatalf("pipeline should keep delivering after connection loss")
	}
}
