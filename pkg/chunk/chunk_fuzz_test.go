//go:build fuzz
// +build fuzz

package chunk

import (
	"bytes"
	"testing"
)

// FuzzDecodeBinary_Invariants checks that an accepted buffer is tiled exactly
// by its records and subrecords, and that it survives a text round trip.
func FuzzDecodeBinary_Invariants(f *testing.F) {
	f.Add(record("TES3", [8]byte{}))
	f.Add(append(record("TES3", [8]byte{}, subrecord("HEDR", []byte{1, 2, 3})), record("NPC_", [8]byte{7})...))
	f.Add([]byte("TES3\xff\xff\xff\xff"))

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 1<<20 {
			t.Skip("Input too large for fuzz test")
		}
		file, err := DecodeBinary(data)
		if err != nil {
			return
		}

		var offset uint32
		for _, rec := range file.Records() {
			if rec.Start != offset {
				t.Fatalf("record at %d, want %d", rec.Start, offset)
			}
			body := uint32(16)
			for _, sub := range rec.Subrecords {
				if sub.Start != body {
					t.Fatalf("subrecord at %d, want %d", sub.Start, body)
				}
				body = sub.End()
			}
			if body != rec.Len() {
				t.Fatalf("subrecords end at %d, record length %d", body, rec.Len())
			}
			offset = rec.End()
		}
		if int(offset) != len(data) {
			t.Fatalf("records end at %d, buffer length %d", offset, len(data))
		}

		text, err := file.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText failed: %v", err)
		}
		back, err := DecodeText(text)
		if err != nil {
			t.Fatalf("DecodeText failed: %v", err)
		}
		if !bytes.Equal(back.Bytes(), data) {
			t.Fatalf("round trip mismatch: got %X want %X", back.Bytes(), data)
		}
	})
}
