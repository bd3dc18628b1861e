//go:build bench
// +build bench

package chunk

import (
	"bytes"
	"io"
	"testing"

	"github.com/ssargent/chim/pkg/codec"
)

func benchContainer(records, payload int) []byte {
	var data []byte
	for i := 0; i < records; i++ {
		data = append(data, record("NPC_", [8]byte{},
			subrecord("NAME", []byte("fargoth\x00")),
			subrecord("NPDT", bytes.Repeat([]byte{0x5A}, payload)),
		)...)
	}
	return data
}

func BenchmarkDecodeBinary(b *testing.B) {
	benchmarks := []struct {
		name    string
		records int
		payload int
	}{
		{name: "small", records: 10, payload: 16},
		{name: "medium", records: 1000, payload: 52},
		{name: "large", records: 100, payload: 64 << 10},
	}

	for _, bm := range benchmarks {
		data := benchContainer(bm.records, bm.payload)
		b.Run(bm.name, func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := DecodeBinary(data); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkWriteText(b *testing.B) {
	f, err := DecodeBinary(benchContainer(1000, 52))
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(f.Len()))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := f.WriteText(io.Discard, codec.DefaultHexLayout); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeText(b *testing.B) {
	f, err := DecodeBinary(benchContainer(1000, 52))
	if err != nil {
		b.Fatal(err)
	}
	text, err := f.MarshalText()
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(text)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DecodeText(text); err != nil {
			b.Fatal(err)
		}
	}
}
