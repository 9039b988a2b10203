// ABOUTME: FFmpeg demuxer built on go-astiav
// ABOUTME: Opens inputs, probes streams and reads packets in container order
package ffmpeg

import (
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/rawdemux/pkg/media"
	"github.com/Resonate-Protocol/rawdemux/pkg/media/decode"
	"github.com/asticode/go-astiav"
)

// BackendName is the name this backend registers under
const BackendName = "ffmpeg"

func init() {
	decode.Register(BackendName, decode.BackendFunc(Open))
}

// Demuxer reads packets through libavformat
type Demuxer struct {
	path      string
	fc        *astiav.FormatContext
	avStreams []*astiav.Stream
	streams   []media.StreamInfo
	pkt       *astiav.Packet
	current   packet
}

// Open opens the input and reads its stream information
func Open(path string) (decode.Demuxer, error) {
	fc := astiav.AllocFormatContext()
	if fc == nil {
		return nil, errors.New("could not allocate format context")
	}

	if err := fc.OpenInput(path, nil, nil); err != nil {
		fc.Free()
		return nil, fmt.Errorf("could not open source file %s: %w", path, err)
	}

	if err := fc.FindStreamInfo(nil); err != nil {
		fc.CloseInput()
		fc.Free()
		return nil, fmt.Errorf("could not find stream information: %w", err)
	}

	pkt := astiav.AllocPacket()
	if pkt == nil {
		fc.CloseInput()
		fc.Free()
		return nil, errors.New("could not allocate packet")
	}

	d := &Demuxer{
		path: path,
		fc:   fc,
		pkt:  pkt,
	}
	for _, s := range fc.Streams() {
		d.avStreams = append(d.avStreams, s)
		d.streams = append(d.streams, streamInfo(s))
	}

	return d, nil
}

// Streams lists every stream of the input
func (d *Demuxer) Streams() []media.StreamInfo {
	return d.streams
}

// ReadPacket returns the next packet. The packet stays valid until it is
// released or the next call.
func (d *Demuxer) ReadPacket() (decode.Packet, error) {
	d.pkt.Unref()

	if err := d.fc.ReadFrame(d.pkt); err != nil {
		if errors.Is(err, astiav.ErrEof) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("could not read packet from %s: %w", d.path, err)
	}

	d.current = packet{pkt: d.pkt, remaining: d.pkt.Size()}
	return &d.current, nil
}

// BestStream asks libavformat for the stream of type t it would decode
func (d *Demuxer) BestStream(t media.MediaType) (media.StreamInfo, error) {
	var mt astiav.MediaType
	switch t {
	case media.Video:
		mt = astiav.MediaTypeVideo
	case media.Audio:
		mt = astiav.MediaTypeAudio
	default:
		return media.StreamInfo{}, media.ErrStreamNotFound
	}

	s, _, err := d.fc.FindBestStream(mt, -1, -1)
	switch {
	case errors.Is(err, astiav.ErrStreamNotFound):
		return media.StreamInfo{}, media.ErrStreamNotFound
	case errors.Is(err, astiav.ErrDecoderNotFound):
		return media.StreamInfo{}, media.ErrDecoderNotFound
	case err != nil:
		return media.StreamInfo{}, fmt.Errorf("could not find %s stream: %w", t, err)
	}

	if s.Index() < 0 || s.Index() >= len(d.streams) {
		return media.StreamInfo{}, fmt.Errorf("stream index %d out of range", s.Index())
	}
	return d.streams[s.Index()], nil
}

// DumpFormat logs the input layout through av_dump_format
func (d *Demuxer) DumpFormat() {
	d.fc.Dump(0, d.path, false)
}

// OpenDecoder finds and opens the decoder registered for the stream's codec
func (d *Demuxer) OpenDecoder(stream media.StreamInfo) (decode.Decoder, error) {
	if stream.Index < 0 || stream.Index >= len(d.avStreams) {
		return nil, fmt.Errorf("stream index %d out of range", stream.Index)
	}

	cp := d.avStreams[stream.Index].CodecParameters()

	codec := astiav.FindDecoder(cp.CodecID())
	if codec == nil {
		return nil, fmt.Errorf("failed to find %s codec", stream.Type)
	}

	cc := astiav.AllocCodecContext(codec)
	if cc == nil {
		return nil, fmt.Errorf("failed to allocate the %s codec context", stream.Type)
	}

	if err := cp.ToCodecContext(cc); err != nil {
		cc.Free()
		return nil, fmt.Errorf("failed to copy %s codec parameters to decoder context: %w", stream.Type, err)
	}

	if err := cc.Open(codec, nil); err != nil {
		cc.Free()
		return nil, fmt.Errorf("failed to open %s codec: %w", stream.Type, err)
	}

	dec, err := newDecoder(cc, stream)
	if err != nil {
		return nil, err
	}
	return dec, nil
}

// Close releases the packet and the input
func (d *Demuxer) Close() error {
	if d.pkt != nil {
		d.pkt.Free()
		d.pkt = nil
	}
	if d.fc != nil {
		d.fc.CloseInput()
		d.fc.Free()
		d.fc = nil
	}
	return nil
}

func streamInfo(s *astiav.Stream) media.StreamInfo {
	cp := s.CodecParameters()
	tb := s.TimeBase()

	info := media.StreamInfo{
		Index:      s.Index(),
		Type:       media.Other,
		Codec:      cp.CodecID().String(),
		BitRate:    cp.BitRate(),
		HasDecoder: astiav.FindDecoder(cp.CodecID()) != nil,
		TimeBase:   media.Rational{Num: tb.Num(), Den: tb.Den()},
	}

	switch cp.MediaType() {
	case astiav.MediaTypeVideo:
		info.Type = media.Video
		info.Video = media.VideoFormat{
			PixelFormat: cp.PixelFormat().String(),
			Width:       cp.Width(),
			Height:      cp.Height(),
		}
	case astiav.MediaTypeAudio:
		info.Type = media.Audio
		info.Audio = media.AudioFormat{
			Codec:        info.Codec,
			SampleFormat: media.SampleFormat(cp.SampleFormat().String()),
			SampleRate:   cp.SampleRate(),
			Channels:     cp.ChannelLayout().Channels(),
		}
	}

	return info
}

// packet tracks how much of the current libav packet decoders consumed
type packet struct {
	pkt       *astiav.Packet
	remaining int
}

func (p *packet) StreamIndex() int { return p.pkt.StreamIndex() }
func (p *packet) Size() int        { return p.remaining }

func (p *packet) Advance(n int) {
	p.remaining -= n
	if p.remaining < 0 {
		p.remaining = 0
	}
}

func (p *packet) Release() {
	p.pkt.Unref()
	p.remaining = 0
}
