//go:build linux

package wayland

import (
	"bytes"
	"testing"
)

func TestStringArgRoundTrip(t *testing.T) {
	tests := []string{"", "a", "abc", "text/uri-list", "x-special/gnome-copied-files"}

	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			encoded := stringArg(s)
			if len(encoded)%4 != 0 {
				t.Fatalf("stringArg(%q) length %d not 4-byte aligned", s, len(encoded))
			}
			if got := int(le.Uint32(encoded[:4])); got != len(s)+1 {
				t.Errorf("length field = %d, want %d", got, len(s)+1)
			}
			decoded, rest, err := decodeString(append(encoded, 0xAA))
			if err != nil {
				t.Fatalf("decodeString() error = %v", err)
			}
			if decoded != s {
				t.Errorf("decodeString() = %q, want %q", decoded, s)
			}
			if !bytes.Equal(rest, []byte{0xAA}) {
				t.Errorf("rest = %v, want trailing byte preserved", rest)
			}
		})
	}
}

func TestDecodeStringShort(t *testing.T) {
	if _, _, err := decodeString([]byte{1, 0}); err == nil {
		t.Error("decodeString(short header) expected error")
	}
	if _, _, err := decodeString([]byte{9, 0, 0, 0, 'a'}); err == nil {
		t.Error("decodeString(short body) expected error")
	}
}

func TestConnPop(t *testing.T) {
	var frame bytes.Buffer
	frame.Write(uint32Arg(idSource))
	header := uint32(evSourceSend) | uint32(8+len(stringArg("text/plain")))<<16
	frame.Write(uint32Arg(header))
	frame.Write(stringArg("text/plain"))

	c := &conn{inBuf: append(frame.Bytes(), 0x01, 0x02), pendingFds: []int{42}}
	msg, ok := c.pop()
	if !ok {
		t.Fatal("pop() = false, want a complete message")
	}
	if msg.object != idSource || msg.opcode != evSourceSend || msg.fd != 42 {
		t.Errorf("pop() = %+v", msg)
	}
	if mime, _, _ := decodeString(msg.payload); mime != "text/plain" {
		t.Errorf("payload mime = %q", mime)
	}
	if len(c.inBuf) != 2 {
		t.Errorf("remaining buffer = %d bytes, want 2", len(c.inBuf))
	}
	if _, ok := c.pop(); ok {
		t.Error("pop() on partial frame should report false")
	}
}
