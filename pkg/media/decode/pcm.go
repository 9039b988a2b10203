// ABOUTME: PCM audio decoder
// ABOUTME: Frames raw packed or planar PCM packets into audio frames
package decode

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/rawdemux/pkg/media"
)

// PCMDecoder turns packets of raw samples into frames. Planar packets
// carry their planes one after the other.
type PCMDecoder struct {
	stream     media.StreamInfo
	format     media.AudioFormat
	blockAlign int
	frame      pcmFrame
}

// NewPCM creates a new PCM decoder
func NewPCM(format media.AudioFormat) (Decoder, error) {
	return NewPCMStream(media.StreamInfo{Type: media.Audio, Codec: format.Codec, HasDecoder: true, Audio: format})
}

// NewPCMStream creates a PCM decoder for a stream
func NewPCMStream(stream media.StreamInfo) (Decoder, error) {
	format := stream.Audio
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if !format.SampleFormat.Valid() {
		return nil, fmt.Errorf("unsupported sample format: %s", format.SampleFormat)
	}

	if format.Channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", format.Channels)
	}

	return &PCMDecoder{
		stream:     stream,
		format:     format,
		blockAlign: format.SampleFormat.BytesPerSample() * format.Channels,
	}, nil
}

// Decode emits one frame holding every whole sample in pkt
func (d *PCMDecoder) Decode(pkt Packet, emit func(media.Frame) error) (int, error) {
	if pkt == nil {
		// Nothing is ever buffered
		return 0, nil
	}

	dp, ok := pkt.(DataPacket)
	if !ok {
		return 0, errors.New("pcm decoder needs packets with readable data")
	}

	data := dp.Data()
	nbSamples := len(data) / d.blockAlign
	if nbSamples == 0 {
		// A trailing partial sample cannot be decoded; drop it
		return len(data), nil
	}

	d.frame = pcmFrame{
		format:    d.format,
		data:      data[:nbSamples*d.blockAlign],
		nbSamples: nbSamples,
		pts:       dp.PTS(),
	}
	if err := emit(&d.frame); err != nil {
		return 0, err
	}

	return len(data), nil
}

// Stream describes the decoded stream
func (d *PCMDecoder) Stream() media.StreamInfo {
	return d.stream
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	d.frame = pcmFrame{}
	return nil
}

type pcmFrame struct {
	format    media.AudioFormat
	data      []byte
	nbSamples int
	pts       int64
}

func (f *pcmFrame) MediaType() media.MediaType { return media.Audio }
func (f *pcmFrame) PTS() int64                 { return f.pts }

func (f *pcmFrame) Width() int          { return 0 }
func (f *pcmFrame) Height() int         { return 0 }
func (f *pcmFrame) PixelFormat() string { return "" }

func (f *pcmFrame) ImageSize() (int, error) {
	return 0, errors.New("audio frame has no image")
}

func (f *pcmFrame) CopyImage(dst []byte) (int, error) {
	return 0, errors.New("audio frame has no image")
}

func (f *pcmFrame) NbSamples() int                   { return f.nbSamples }
func (f *pcmFrame) SampleFormat() media.SampleFormat { return f.format.SampleFormat }
func (f *pcmFrame) SampleRate() int                  { return f.format.SampleRate }
func (f *pcmFrame) Channels() int                    { return f.format.Channels }

func (f *pcmFrame) CopySamples(dst []byte) (int, error) {
	if len(dst) < len(f.data) {
		return 0, fmt.Errorf("sample buffer too small: %d < %d", len(dst), len(f.data))
	}
	return copy(dst, f.data), nil
}

func (f *pcmFrame) Release() {
	f.data = nil
}
