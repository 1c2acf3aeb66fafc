package motion

import "testing"

func TestSimLevel(t *testing.T) {
	s := NewSim()
	if s.Sample() {
		t.Error("new sim reports motion")
	}
	s.Set(true)
	if !s.Sample() {
		t.Error("Sample() = false after Set(true)")
	}
	// Level holds until driven low; the sensor keeps no history.
	if !s.Sample() {
		t.Error("level did not hold")
	}
	s.Set(false)
	if s.Sample() {
		t.Error("Sample() = true after Set(false)")
	}
}

func TestNewSim(t *testing.T) {
	m, err := New(Config{Type: "sim"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()
	if _, ok := m.(*Sim); !ok {
		t.Errorf("New(sim) = %T, want *Sim", m)
	}
}

func TestNewUnknownType(t *testing.T) {
	if _, err := New(Config{Type: "sonar"}); err == nil {
		t.Error("New accepted an unknown monitor type")
	}
}
