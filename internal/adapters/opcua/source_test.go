package opcua

import (
	"testing"
	"time"

	"github.com/gopcua/opcua/ua"

	"github.com/marvin21/MBP/internal/domain"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{
		Endpoint: "opc.tcp://localhost:4840",
		Nodes:    []NodeConfig{{NodeID: "ns=2;s=Temp"}},
	}
	cfg.ApplyDefaults()

	if cfg.SecurityMode != "None" || cfg.SecurityPolicy != "None" {
		t.Fatalf("security defaults not applied: %+v", cfg)
	}
	if cfg.PublishInterval != 250*time.Millisecond {
		t.Fatalf("publish interval default not applied: %v", cfg.PublishInterval)
	}
	if cfg.Nodes[0].ComponentKind != "sensor" || cfg.Nodes[0].ComponentID != "ns=2;s=Temp" {
		t.Fatalf("node defaults not applied: %+v", cfg.Nodes[0])
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (&Config{}).Validate(); err == nil {
		t.Fatalf("expected error for missing endpoint")
	}
	if err := (&Config{Endpoint: "opc.tcp://x:4840"}).Validate(); err == nil {
		t.Fatalf("expected error for empty node list")
	}
}

func TestProcessNotificationEmitsValueLogs(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := &Source{
		handleMap: map[uint32]NodeConfig{
			1: {NodeID: "ns=2;s=Temp", ComponentKind: "sensor", ComponentID: "S1"},
		},
		now: func() time.Time { return fixed },
	}

	var got []*domain.ValueLog
	s.processNotification(&ua.DataChangeNotification{
		MonitoredItems: []*ua.MonitoredItemNotification{
			{ClientHandle: 1, Value: &ua.DataValue{Value: ua.MustVariant(42.5)}},
			{ClientHandle: 99, Value: &ua.DataValue{Value: ua.MustVariant(1.0)}},
			{ClientHandle: 1, Value: &ua.DataValue{Value: ua.MustVariant("not a number")}},
		},
	}, func(v *domain.ValueLog) { got = append(got, v) })

	if len(got) != 1 {
		t.Fatalf("expected one value log, got %d", len(got))
	}
	v := got[0]
	if v.ComponentKind != "sensor" || v.ComponentID != "S1" || v.Value != 42.5 {
		t.Fatalf("unexpected value log: %+v", v)
	}
	if v.Topic != "opcua/ns=2;s=Temp" {
		t.Fatalf("unexpected topic: %s", v.Topic)
	}
	if !v.Time.Equal(fixed) {
		t.Fatalf("expected fallback timestamp %v, got %v", fixed, v.Time)
	}
}

func TestVariantToFloatIntegers(t *testing.T) {
	v := ua.MustVariant(int32(7))
	f, ok := variantToFloat(v)
	if !ok || f != 7 {
		t.Fatalf("expected 7, got %f ok=%v", f, ok)
	}
	if _, ok := variantToFloat(nil); ok {
		t.Fatalf("nil variant must not convert")
	}
}
