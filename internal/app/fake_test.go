// ABOUTME: In-memory backend used by the driver tests
// ABOUTME: Fake demuxer, decoder, packets and frames
package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/rawdemux/pkg/media"
	"github.com/Resonate-Protocol/rawdemux/pkg/media/decode"
)

const fakeBackend = "fake"

// nextDemuxer is handed out by the fake backend on the next Open
var nextDemuxer decode.Demuxer

func init() {
	decode.Register(fakeBackend, decode.BackendFunc(func(path string) (decode.Demuxer, error) {
		if nextDemuxer == nil {
			return nil, fmt.Errorf("could not open source file %s", path)
		}
		d := nextDemuxer
		nextDemuxer = nil
		return d, nil
	}))
}

type fakePacket struct {
	index    int
	size     int
	released bool
}

func (p *fakePacket) StreamIndex() int { return p.index }
func (p *fakePacket) Size() int        { return p.size }
func (p *fakePacket) Advance(n int)    { p.size -= n }
func (p *fakePacket) Release()         { p.released = true }

type fakeDemuxer struct {
	streams  []media.StreamInfo
	best     map[media.MediaType]int
	packets  []*fakePacket
	decoders map[int]*fakeDecoder
	readErr  error
	closed   bool
}

func (d *fakeDemuxer) Streams() []media.StreamInfo { return d.streams }

// BestStream returns the stream pinned in best, else ranks with SelectBest
func (d *fakeDemuxer) BestStream(t media.MediaType) (media.StreamInfo, error) {
	if i, ok := d.best[t]; ok {
		return d.streams[i], nil
	}
	return media.SelectBest(d.streams, t)
}

func (d *fakeDemuxer) ReadPacket() (decode.Packet, error) {
	if len(d.packets) == 0 {
		if d.readErr != nil {
			return nil, d.readErr
		}
		return nil, io.EOF
	}
	p := d.packets[0]
	d.packets = d.packets[1:]
	return p, nil
}

func (d *fakeDemuxer) OpenDecoder(stream media.StreamInfo) (decode.Decoder, error) {
	dec, ok := d.decoders[stream.Index]
	if !ok {
		return nil, fmt.Errorf("failed to open %s codec", stream.Type)
	}
	return dec, nil
}

func (d *fakeDemuxer) Close() error {
	d.closed = true
	return nil
}

type fakeDecoder struct {
	stream  media.StreamInfo
	frames  []*fakeFrame
	next    int
	delay   int
	perCall int
	stall   bool
	err     error
	pending []*fakeFrame
	closed  bool
}

func (d *fakeDecoder) Stream() media.StreamInfo { return d.stream }

func (d *fakeDecoder) Decode(pkt decode.Packet, emit func(media.Frame) error) (int, error) {
	if d.err != nil {
		return 0, d.err
	}

	if pkt == nil {
		if len(d.pending) == 0 {
			return 0, nil
		}
		f := d.pending[0]
		d.pending = d.pending[1:]
		return 0, emit(f)
	}

	if d.stall {
		return 0, nil
	}

	n := pkt.Size()
	if d.perCall > 0 && d.perCall < n {
		n = d.perCall
	}

	if d.next < len(d.frames) {
		d.pending = append(d.pending, d.frames[d.next])
		d.next++
	}
	for len(d.pending) > d.delay {
		f := d.pending[0]
		d.pending = d.pending[1:]
		if err := emit(f); err != nil {
			return 0, err
		}
	}
	return n, nil
}

func (d *fakeDecoder) Close() error {
	d.closed = true
	return nil
}

type fakeFrame struct {
	typ       media.MediaType
	pts       int64
	video     media.VideoFormat
	fill      byte
	audio     media.AudioFormat
	nbSamples int
	copies    int
	released  int
}

func (f *fakeFrame) MediaType() media.MediaType { return f.typ }
func (f *fakeFrame) PTS() int64                 { return f.pts }
func (f *fakeFrame) Width() int                 { return f.video.Width }
func (f *fakeFrame) Height() int                { return f.video.Height }
func (f *fakeFrame) PixelFormat() string        { return f.video.PixelFormat }

// One byte per pixel
func (f *fakeFrame) ImageSize() (int, error) {
	if f.typ != media.Video {
		return 0, errors.New("no image")
	}
	return f.video.Width * f.video.Height, nil
}

func (f *fakeFrame) CopyImage(dst []byte) (int, error) {
	size, err := f.ImageSize()
	if err != nil {
		return 0, err
	}
	if len(dst) < size {
		return 0, errors.New("image buffer too small")
	}
	for i := 0; i < size; i++ {
		dst[i] = f.fill
	}
	return size, nil
}

func (f *fakeFrame) NbSamples() int                   { return f.nbSamples }
func (f *fakeFrame) SampleFormat() media.SampleFormat { return f.audio.SampleFormat }
func (f *fakeFrame) SampleRate() int                  { return f.audio.SampleRate }
func (f *fakeFrame) Channels() int                    { return f.audio.Channels }

// Channel c is filled with byte c+1, in planes or interleaved. Like
// libav's copy it needs a non-empty destination.
func (f *fakeFrame) CopySamples(dst []byte) (int, error) {
	f.copies++
	if len(dst) == 0 {
		return 0, errors.New("empty sample buffer")
	}

	bps := f.audio.SampleFormat.BytesPerSample()
	channels := f.audio.Channels
	total := f.nbSamples * bps * channels
	if len(dst) < total {
		return 0, errors.New("sample buffer too small")
	}

	for i := 0; i < total; i++ {
		var channel int
		if f.audio.SampleFormat.IsPlanar() {
			channel = i / (f.nbSamples * bps)
		} else {
			channel = (i / bps) % channels
		}
		dst[i] = byte(channel + 1)
	}
	return total, nil
}

func (f *fakeFrame) Release() { f.released++ }

// dumpingDemuxer prints its own input description
type dumpingDemuxer struct {
	*fakeDemuxer
	dumped int
}

func (d *dumpingDemuxer) DumpFormat() { d.dumped++ }

func videoFrames(n int, format media.VideoFormat) []*fakeFrame {
	frames := make([]*fakeFrame, n)
	for i := range frames {
		frames[i] = &fakeFrame{typ: media.Video, pts: int64(i), video: format, fill: byte(i + 1)}
	}
	return frames
}

func audioFrames(n, nbSamples int, format media.AudioFormat) []*fakeFrame {
	frames := make([]*fakeFrame, n)
	for i := range frames {
		frames[i] = &fakeFrame{
			typ:       media.Audio,
			pts:       int64(i * nbSamples),
			audio:     format,
			nbSamples: nbSamples,
		}
	}
	return frames
}
