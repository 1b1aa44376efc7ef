package pipeline

import (
	"testing"
	"time"
)

func TestBootGate_InclusiveLowerBound(t *testing.T) {
	gate := NewBootGate(bootAt(1700000000))

	if gate.AdmitTime(1699999999) {
		t.Error("timestamp one second before boot should be rejected")
	}
	if !gate.AdmitTime(1700000000) {
		t.Error("timestamp exactly at boot should be admitted")
	}
	if !gate.AdmitTime(1700000001) {
		t.Error("timestamp after boot should be admitted")
	}
}

func TestBootGate_SeqConversion(t *testing.T) {
	// seq 1700000000000000 encodes second 1700000000.
	gate := NewBootGate(bootAt(1699999999))
	if !gate.AdmitSeq(1700000000000000) {
		t.Error("seq one second after boot should be admitted")
	}

	gate = NewBootGate(bootAt(1700000000))
	if !gate.AdmitSeq(1700000000000000) {
		t.Error("seq exactly at boot should be admitted")
	}

	gate = NewBootGate(bootAt(1700000001))
	if gate.AdmitSeq(1700000000000000) {
		t.Error("seq one second before boot should be rejected")
	}
}

func TestBootGate_ZeroStartMeansNow(t *testing.T) {
	before := time.Now().Unix()
	gate := NewBootGate(time.Time{})
	after := time.Now().Unix()

	if gate.BootTime() < before || gate.BootTime() > after {
		t.Errorf("boot time %d outside [%d, %d]", gate.BootTime(), before, after)
	}
}
