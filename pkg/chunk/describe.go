package chunk

import "github.com/ssargent/chim/pkg/codec"

// RecordInfo summarizes one record for listings
type RecordInfo struct {
	Index      int             `json:"index"`
	Tag        string          `json:"tag"`
	Offset     uint32          `json:"offset"`
	Size       uint32          `json:"size"`
	Flags      string          `json:"flags,omitempty"`
	Subrecords []SubrecordInfo `json:"subrecords"`
}

// SubrecordInfo summarizes one subrecord for listings
type SubrecordInfo struct {
	Tag    string `json:"tag"`
	Offset uint32 `json:"offset"`
	Size   uint32 `json:"size"`
}

// Summary holds container totals
type Summary struct {
	Format     string `json:"format"`
	Bytes      int    `json:"bytes"`
	Records    int    `json:"records"`
	Subrecords int    `json:"subrecords"`
}

// Describe lists every record with its subrecords
func (f *File) Describe() []RecordInfo {
	infos := make([]RecordInfo, 0, len(f.records))
	for i, rec := range f.records {
		window := rec.Window(f.data)
		info := RecordInfo{
			Index:      i,
			Tag:        rec.Tag(f.data).String(),
			Offset:     rec.Start,
			Size:       rec.Size,
			Subrecords: make([]SubrecordInfo, 0, len(rec.Subrecords)),
		}
		if rec.HasFlags(f.data) {
			flags := rec.Flags(f.data)
			info.Flags = codec.EncodeHex(flags[:], codec.FlatHexLayout)
		}
		for _, sub := range rec.Subrecords {
			info.Subrecords = append(info.Subrecords, SubrecordInfo{
				Tag:    sub.Tag(window).String(),
				Offset: sub.Start,
				Size:   sub.Size,
			})
		}
		infos = append(infos, info)
	}
	return infos
}

// Summary returns container totals
func (f *File) Summary() Summary {
	s := Summary{
		Format:  f.format.String(),
		Bytes:   len(f.data),
		Records: len(f.records),
	}
	for _, rec := range f.records {
		s.Subrecords += len(rec.Subrecords)
	}
	return s
}
