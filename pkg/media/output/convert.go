// ABOUTME: Sample conversion for oto playback
// ABOUTME: Maps raw sample formats to oto formats and converts on the fly
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/Resonate-Protocol/rawdemux/pkg/media"
	"github.com/ebitengine/oto/v3"
)

// Format describes a raw PCM file
type Format struct {
	SampleFormat media.SampleFormat
	SampleRate   int
	Channels     int
	Order        binary.ByteOrder
}

// samples converted per read
const convertChunk = 4096

// NewSource wraps r so that it yields samples oto can play and returns
// the matching oto format. Planar formats are read as their packed twin.
func NewSource(r io.Reader, f Format) (io.Reader, oto.Format, error) {
	order := f.Order
	if order == nil {
		order = binary.LittleEndian
	}
	little := order.Uint16([]byte{1, 0}) == 1

	switch f.SampleFormat.Packed() {
	case media.SampleFormatU8:
		return r, oto.FormatUnsignedInt8, nil

	case media.SampleFormatS16:
		if little {
			return r, oto.FormatSignedInt16LE, nil
		}
		return newConvertReader(r, 2, 2, func(dst, src []byte) {
			binary.LittleEndian.PutUint16(dst, order.Uint16(src))
		}), oto.FormatSignedInt16LE, nil

	case media.SampleFormatFLT:
		if little {
			return r, oto.FormatFloat32LE, nil
		}
		return newConvertReader(r, 4, 4, func(dst, src []byte) {
			binary.LittleEndian.PutUint32(dst, order.Uint32(src))
		}), oto.FormatFloat32LE, nil

	case media.SampleFormatS32:
		// Keep the high 16 bits
		return newConvertReader(r, 4, 2, func(dst, src []byte) {
			v := int32(order.Uint32(src))
			binary.LittleEndian.PutUint16(dst, uint16(v>>16))
		}), oto.FormatSignedInt16LE, nil

	case media.SampleFormatDBL:
		return newConvertReader(r, 8, 4, func(dst, src []byte) {
			v := math.Float64frombits(order.Uint64(src))
			binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
		}), oto.FormatFloat32LE, nil

	default:
		return nil, 0, fmt.Errorf("sample format %s cannot be played", f.SampleFormat)
	}
}

// convertReader converts fixed-size samples from src. A trailing partial
// sample is dropped.
type convertReader struct {
	src     io.Reader
	in      int
	out     int
	conv    func(dst, src []byte)
	inBuf   []byte
	outBuf  []byte
	pending []byte
	err     error
}

func newConvertReader(src io.Reader, in, out int, conv func(dst, src []byte)) *convertReader {
	return &convertReader{
		src:    src,
		in:     in,
		out:    out,
		conv:   conv,
		inBuf:  make([]byte, in*convertChunk),
		outBuf: make([]byte, out*convertChunk),
	}
}

func (r *convertReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		if r.err != nil {
			return 0, r.err
		}

		n, err := io.ReadFull(r.src, r.inBuf)
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		r.err = err

		samples := n / r.in
		for i := 0; i < samples; i++ {
			r.conv(r.outBuf[i*r.out:], r.inBuf[i*r.in:])
		}
		r.pending = r.outBuf[:samples*r.out]
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}
