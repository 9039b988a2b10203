// ABOUTME: Sample format table and raw output name lookup
// ABOUTME: Maps decoder sample formats to planar/packed info and raw file names
package media

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// SampleFormat names a decoded audio sample layout using FFmpeg's names
type SampleFormat string

const (
	SampleFormatU8   SampleFormat = "u8"
	SampleFormatS16  SampleFormat = "s16"
	SampleFormatS32  SampleFormat = "s32"
	SampleFormatFLT  SampleFormat = "flt"
	SampleFormatDBL  SampleFormat = "dbl"
	SampleFormatS64  SampleFormat = "s64"
	SampleFormatU8P  SampleFormat = "u8p"
	SampleFormatS16P SampleFormat = "s16p"
	SampleFormatS32P SampleFormat = "s32p"
	SampleFormatFLTP SampleFormat = "fltp"
	SampleFormatDBLP SampleFormat = "dblp"
	SampleFormatS64P SampleFormat = "s64p"
)

var bytesPerSample = map[SampleFormat]int{
	SampleFormatU8:  1,
	SampleFormatS16: 2,
	SampleFormatS32: 4,
	SampleFormatFLT: 4,
	SampleFormatDBL: 8,
	SampleFormatS64: 8,
}

// IsPlanar reports whether each channel lives in its own plane
func (f SampleFormat) IsPlanar() bool {
	return strings.HasSuffix(string(f), "p") && f.Packed() != f
}

// Packed returns the interleaved equivalent of a planar format
func (f SampleFormat) Packed() SampleFormat {
	packed := SampleFormat(strings.TrimSuffix(string(f), "p"))
	if _, ok := bytesPerSample[packed]; ok {
		return packed
	}
	return f
}

// BytesPerSample returns the size of one sample of one channel, or 0 if unknown
func (f SampleFormat) BytesPerSample() int {
	return bytesPerSample[f.Packed()]
}

// Valid reports whether the format is one of the known sample formats
func (f SampleFormat) Valid() bool {
	return f.BytesPerSample() > 0
}

func (f SampleFormat) String() string {
	if f == "" {
		return "?"
	}
	return string(f)
}

type rawFormatEntry struct {
	format    SampleFormat
	bigEndian string
	little    string
}

var rawFormatEntries = []rawFormatEntry{
	{SampleFormatU8, "u8", "u8"},
	{SampleFormatS16, "s16be", "s16le"},
	{SampleFormatS32, "s32be", "s32le"},
	{SampleFormatFLT, "f32be", "f32le"},
	{SampleFormatDBL, "f64be", "f64le"},
}

// RawFormatName returns the raw demuxer name (as understood by ffplay -f)
// for a packed sample format written in the given byte order.
func RawFormatName(f SampleFormat, order binary.ByteOrder) (string, error) {
	for _, entry := range rawFormatEntries {
		if entry.format != f {
			continue
		}
		if order == binary.ByteOrder(binary.BigEndian) {
			return entry.bigEndian, nil
		}
		return entry.little, nil
	}
	return "", fmt.Errorf("sample format %s is not supported as output format", f)
}

// HostByteOrder returns the byte order decoders write samples in
func HostByteOrder() binary.ByteOrder {
	if binary.NativeEndian.Uint16([]byte{0x01, 0x00}) == 0x0001 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}
