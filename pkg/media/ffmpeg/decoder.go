// ABOUTME: FFmpeg decoder built on go-astiav
// ABOUTME: Drives the send/receive API and hands out one reusable frame
package ffmpeg

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/rawdemux/pkg/media"
	"github.com/Resonate-Protocol/rawdemux/pkg/media/decode"
	"github.com/asticode/go-astiav"
)

// Decoder decodes one stream through libavcodec
type Decoder struct {
	cc      *astiav.CodecContext
	stream  media.StreamInfo
	frame   frame
	drained bool
}

func newDecoder(cc *astiav.CodecContext, stream media.StreamInfo) (*Decoder, error) {
	f := astiav.AllocFrame()
	if f == nil {
		cc.Free()
		return nil, errors.New("could not allocate frame")
	}

	return &Decoder{
		cc:     cc,
		stream: stream,
		frame:  frame{f: f, mediaType: stream.Type},
	}, nil
}

// Stream describes the stream with the output format the decoder
// announced after opening
func (d *Decoder) Stream() media.StreamInfo {
	info := d.stream
	switch info.Type {
	case media.Video:
		info.Video = media.VideoFormat{
			PixelFormat: d.cc.PixelFormat().String(),
			Width:       d.cc.Width(),
			Height:      d.cc.Height(),
		}
	case media.Audio:
		info.Audio = media.AudioFormat{
			Codec:        info.Codec,
			SampleFormat: media.SampleFormat(d.cc.SampleFormat().String()),
			SampleRate:   d.cc.SampleRate(),
			Channels:     d.cc.ChannelLayout().Channels(),
		}
	}
	return info
}

// Decode sends the whole packet to the decoder and emits every frame that
// comes out of it. A nil packet switches the decoder to draining mode.
func (d *Decoder) Decode(pkt decode.Packet, emit func(media.Frame) error) (int, error) {
	var avpkt *astiav.Packet
	size := 0
	if pkt != nil {
		p, ok := pkt.(*packet)
		if !ok {
			return 0, fmt.Errorf("%s decoder got a packet from another backend", d.stream.Type)
		}
		avpkt = p.pkt
		size = p.Size()
	}

	if d.drained {
		return size, nil
	}

	for {
		err := d.cc.SendPacket(avpkt)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, astiav.ErrEagain):
			// Output queue is full; empty it before resending
			if err := d.receive(emit); err != nil {
				return 0, err
			}
			if d.drained {
				return size, nil
			}
		case errors.Is(err, astiav.ErrEof):
			d.drained = true
			return size, nil
		default:
			return 0, fmt.Errorf("error decoding %s frame: %w", d.stream.Type, err)
		}
	}

	if err := d.receive(emit); err != nil {
		return 0, err
	}
	return size, nil
}

func (d *Decoder) receive(emit func(media.Frame) error) error {
	for {
		if err := d.cc.ReceiveFrame(d.frame.f); err != nil {
			switch {
			case errors.Is(err, astiav.ErrEagain):
				return nil
			case errors.Is(err, astiav.ErrEof):
				d.drained = true
				return nil
			default:
				return fmt.Errorf("error decoding %s frame: %w", d.stream.Type, err)
			}
		}

		err := emit(&d.frame)
		d.frame.f.Unref()
		if err != nil {
			return err
		}
	}
}

// Close releases the frame and the codec context
func (d *Decoder) Close() error {
	if d.frame.f != nil {
		d.frame.f.Free()
		d.frame.f = nil
	}
	if d.cc != nil {
		d.cc.Free()
		d.cc = nil
	}
	return nil
}
