package binary

import (
	"bytes"
	"errors"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteU32LE(0x6D736100)
	w.WriteU32(624485)
	w.WriteName("print_module")
	w.Byte(0x7e)

	if !bytes.Equal(w.Bytes()[4:7], []byte{0xe5, 0x8e, 0x26}) {
		t.Errorf("LEB128 of 624485 = % x", w.Bytes()[4:7])
	}

	r := NewReader(bytes.NewReader(w.Bytes()))
	if v, err := r.ReadU32LE(); err != nil || v != 0x6D736100 {
		t.Errorf("ReadU32LE = %#x, %v", v, err)
	}
	if v, err := r.ReadU32(); err != nil || v != 624485 {
		t.Errorf("ReadU32 = %d, %v", v, err)
	}
	if s, err := r.ReadName(); err != nil || s != "print_module" {
		t.Errorf("ReadName = %q, %v", s, err)
	}
	rest, err := r.ReadRemaining()
	if err != nil || !bytes.Equal(rest, []byte{0x7e}) {
		t.Errorf("ReadRemaining = % x, %v", rest, err)
	}
	if r.Position() != w.Len() {
		t.Errorf("Position = %d, want %d", r.Position(), w.Len())
	}
}

func TestReaderErrors(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0x01}))
	if _, err := r.ReadU32(); !errors.Is(err, ErrOverflow) {
		t.Errorf("ReadU32 overflow error = %v", err)
	}

	r = NewReader(bytes.NewReader([]byte{2, 0xc3, 0x28}))
	if _, err := r.ReadName(); err == nil {
		t.Error("expected invalid UTF-8 error")
	}

	r = NewReader(bytes.NewReader([]byte{1, 2}))
	if _, err := r.ReadBytes(3); err == nil {
		t.Error("expected short read error")
	}

	perr := r.WrapError("code section", ErrOverflow)
	var pe *ParseError
	if !errors.As(perr, &pe) || pe.Section != "code section" || !errors.Is(perr, ErrOverflow) {
		t.Errorf("WrapError = %v", perr)
	}
}
