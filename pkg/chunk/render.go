package chunk

import (
	"bufio"
	"bytes"
	"io"

	"github.com/ssargent/chim/pkg/codec"
	"github.com/ssargent/chim/pkg/markup"
)

// WriteText renders every record, in buffer order, as one XML document
func (f *File) WriteText(w io.Writer, layout codec.HexLayout) error {
	bw := bufio.NewWriter(w)

	bw.WriteString(markup.RootStart(RootElement))
	bw.WriteByte('\n')
	for _, rec := range f.records {
		rec.writeText(bw, f.data, layout)
	}
	bw.WriteString("</" + RootElement + ">\n")

	return bw.Flush()
}

// MarshalText renders the container with the default hex layout
func (f *File) MarshalText() ([]byte, error) {
	var buf bytes.Buffer
	if err := f.WriteText(&buf, codec.DefaultHexLayout); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
