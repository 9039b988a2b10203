// ABOUTME: Media type definitions shared by all backends
// ABOUTME: Defines media types, stream formats and decoded frames
package media

import (
	"fmt"
	"math"
	"strconv"
)

// MediaType identifies the kind of elementary stream
type MediaType int

const (
	Video MediaType = iota
	Audio
	Other
)

func (t MediaType) String() string {
	switch t {
	case Video:
		return "video"
	case Audio:
		return "audio"
	case Other:
		return "other"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// NoPTS marks a frame or packet without a presentation timestamp
const NoPTS int64 = math.MinInt64

// Rational is a time base expressed as Num/Den seconds
type Rational struct {
	Num int
	Den int
}

// FormatTimestamp renders pts in seconds using the given time base
func FormatTimestamp(pts int64, tb Rational) string {
	if pts == NoPTS || tb.Den == 0 {
		return "NOPTS"
	}
	seconds := float64(pts) * float64(tb.Num) / float64(tb.Den)
	return strconv.FormatFloat(seconds, 'g', 6, 64)
}

// VideoFormat describes the geometry of decoded video
type VideoFormat struct {
	PixelFormat string
	Width       int
	Height      int
}

func (f VideoFormat) String() string {
	return fmt.Sprintf("%s %dx%d", f.PixelFormat, f.Width, f.Height)
}

// AudioFormat describes the shape of decoded audio
type AudioFormat struct {
	Codec        string
	SampleFormat SampleFormat
	SampleRate   int
	Channels     int
}

func (f AudioFormat) String() string {
	return fmt.Sprintf("%s %dHz %dch", f.SampleFormat, f.SampleRate, f.Channels)
}

// StreamInfo describes one elementary stream of an opened input
type StreamInfo struct {
	Index      int
	Type       MediaType
	Codec      string
	Default    bool
	BitRate    int64
	HasDecoder bool
	TimeBase   Rational
	Video      VideoFormat
	Audio      AudioFormat
}

// Frame is a decoded unit borrowed from a decoder. It is only valid for
// the duration of the callback it was handed to.
type Frame interface {
	MediaType() MediaType
	PTS() int64

	// Video
	Width() int
	Height() int
	PixelFormat() string
	// ImageSize returns the byte size of the image with rows packed tightly
	ImageSize() (int, error)
	// CopyImage copies the image into dst without row padding
	CopyImage(dst []byte) (int, error)

	// Audio
	NbSamples() int
	SampleFormat() SampleFormat
	SampleRate() int
	Channels() int
	// CopySamples copies all planes into dst, one plane after the other,
	// without padding. Packed formats have a single plane.
	CopySamples(dst []byte) (int, error)

	// Release drops the frame's references to decoder-owned buffers
	Release()
}
