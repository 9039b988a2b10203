// ABOUTME: Sample packing helpers for native sources
// ABOUTME: Writes decoded integer samples as host-order PCM bytes
package native

import (
	"encoding/binary"

	"github.com/Resonate-Protocol/rawdemux/pkg/media"
)

var hostOrder = media.HostByteOrder().(binary.AppendByteOrder)

// appendPlanar writes each channel's first n samples, plane after plane,
// left-justified from bitDepth into 16 or 32-bit containers.
func appendPlanar(dst []byte, planes [][]int32, n, bitDepth int, format media.SampleFormat) []byte {
	width := format.BytesPerSample()
	shift := uint(width*8 - bitDepth)

	for _, plane := range planes {
		for i := 0; i < n; i++ {
			sample := plane[i] << shift
			switch width {
			case 2:
				dst = hostOrder.AppendUint16(dst, uint16(int16(sample)))
			case 4:
				dst = hostOrder.AppendUint32(dst, uint32(sample))
			}
		}
	}
	return dst
}

// appendInt16 writes interleaved 16-bit samples
func appendInt16(dst []byte, samples []int16) []byte {
	for _, s := range samples {
		dst = hostOrder.AppendUint16(dst, uint16(s))
	}
	return dst
}

// littleToHost16 rewrites little-endian 16-bit samples in host order
func littleToHost16(buf []byte) {
	if hostOrder == binary.AppendByteOrder(binary.LittleEndian) {
		return
	}
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i], buf[i+1] = buf[i+1], buf[i]
	}
}
