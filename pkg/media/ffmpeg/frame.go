// ABOUTME: media.Frame view over an astiav frame
// ABOUTME: Copies images and samples out without libav padding
package ffmpeg

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/rawdemux/pkg/media"
	"github.com/asticode/go-astiav"
)

// Tightly packed, no row or plane padding
const copyAlign = 1

// libav writes through the first element of the destination
var errEmptyBuffer = errors.New("empty destination buffer")

type frame struct {
	f         *astiav.Frame
	mediaType media.MediaType
}

func (fr *frame) MediaType() media.MediaType { return fr.mediaType }
func (fr *frame) PTS() int64                 { return fr.f.Pts() }

func (fr *frame) Width() int          { return fr.f.Width() }
func (fr *frame) Height() int         { return fr.f.Height() }
func (fr *frame) PixelFormat() string { return fr.f.PixelFormat().String() }

func (fr *frame) ImageSize() (int, error) {
	return fr.f.ImageBufferSize(copyAlign)
}

func (fr *frame) CopyImage(dst []byte) (int, error) {
	if len(dst) == 0 {
		return 0, errEmptyBuffer
	}
	n, err := fr.f.ImageCopyToBuffer(dst, copyAlign)
	if err != nil {
		return 0, fmt.Errorf("could not copy image: %w", err)
	}
	return n, nil
}

func (fr *frame) NbSamples() int { return fr.f.NbSamples() }

func (fr *frame) SampleFormat() media.SampleFormat {
	return media.SampleFormat(fr.f.SampleFormat().String())
}

func (fr *frame) SampleRate() int { return fr.f.SampleRate() }
func (fr *frame) Channels() int   { return fr.f.ChannelLayout().Channels() }

func (fr *frame) CopySamples(dst []byte) (int, error) {
	if len(dst) == 0 {
		return 0, errEmptyBuffer
	}
	n, err := fr.f.SamplesCopyToBuffer(dst, copyAlign)
	if err != nil {
		return 0, fmt.Errorf("could not copy samples: %w", err)
	}
	return n, nil
}

func (fr *frame) Release() {
	fr.f.Unref()
}
