// ABOUTME: Tests for the backend registry and buffer packets
// ABOUTME: Tests registration, lookup and packet advancing
package decode

import (
	"errors"
	"testing"

	"github.com/Resonate-Protocol/rawdemux/pkg/media"
)

func TestRegisterAndLookup(t *testing.T) {
	errOpen := errors.New("opened")
	Register("registry-test", BackendFunc(func(path string) (Demuxer, error) {
		return nil, errOpen
	}))

	b, err := Lookup("registry-test")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}

	if _, err := b.Open("x"); !errors.Is(err, errOpen) {
		t.Errorf("expected backend func to be called, got %v", err)
	}

	found := false
	for _, name := range Names() {
		if name == "registry-test" {
			found = true
		}
	}
	if !found {
		t.Error("expected registry-test in Names()")
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("does-not-exist")
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestRegister_Duplicate(t *testing.T) {
	b := BackendFunc(func(string) (Demuxer, error) { return nil, nil })
	Register("dup-test", b)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	Register("dup-test", b)
}

func TestBufferPacketAdvance(t *testing.T) {
	pkt := NewBufferPacket(3, []byte{1, 2, 3, 4}, 90)

	if pkt.StreamIndex() != 3 {
		t.Errorf("expected stream 3, got %d", pkt.StreamIndex())
	}

	pkt.Advance(3)
	if pkt.Size() != 1 {
		t.Errorf("expected 1 byte left, got %d", pkt.Size())
	}
	if pkt.Data()[0] != 4 {
		t.Errorf("expected remaining byte 4, got %d", pkt.Data()[0])
	}
	if pkt.PTS() != media.NoPTS {
		t.Errorf("expected pts to be cleared after advancing, got %d", pkt.PTS())
	}

	pkt.Advance(10)
	if pkt.Size() != 0 {
		t.Errorf("expected empty packet, got %d bytes", pkt.Size())
	}

	pkt.Release()
	if pkt.Data() != nil {
		t.Error("expected data to be released")
	}
}
