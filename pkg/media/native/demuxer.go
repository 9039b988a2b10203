// ABOUTME: Pure-Go audio backend for elementary audio files
// ABOUTME: Picks a decoding source by file extension and packetizes its PCM
package native

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/rawdemux/pkg/media"
	"github.com/Resonate-Protocol/rawdemux/pkg/media/decode"
)

// BackendName is the name this backend registers under
const BackendName = "native"

func init() {
	decode.Register(BackendName, decode.BackendFunc(Open))
}

// source parses and decodes an audio file in one step
type source interface {
	// Format describes the PCM returned by ReadChunk
	Format() media.AudioFormat
	// ReadChunk returns the next block of whole samples, or io.EOF
	ReadChunk() ([]byte, error)
	Close() error
}

// Demuxer exposes a single audio stream whose packets carry decoded PCM
type Demuxer struct {
	path   string
	codec  string
	src    source
	stream media.StreamInfo
	block  int
	pts    int64
}

// Open creates a demuxer for an .mp3, .flac, .opus or .ogg file
func Open(path string) (decode.Demuxer, error) {
	// Check file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", path)
	}

	var src source
	var codec string
	var err error

	// Determine file type by extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		codec = "mp3"
		src, err = newMP3Source(path)
	case ".flac":
		codec = "flac"
		src, err = newFLACSource(path)
	case ".opus", ".ogg":
		codec = "opus"
		src, err = newOpusSource(path)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .flac, .opus, .ogg)", ext)
	}
	if err != nil {
		return nil, err
	}

	return newDemuxer(path, codec, src), nil
}

func newDemuxer(path, codec string, src source) *Demuxer {
	format := src.Format()
	format.Codec = codec

	return &Demuxer{
		path:  path,
		codec: codec,
		src:   src,
		stream: media.StreamInfo{
			Index:      0,
			Type:       media.Audio,
			Codec:      codec,
			Default:    true,
			HasDecoder: true,
			TimeBase:   media.Rational{Num: 1, Den: format.SampleRate},
			Audio:      format,
		},
		block: format.SampleFormat.BytesPerSample() * format.Channels,
	}
}

// Streams returns the single audio stream
func (d *Demuxer) Streams() []media.StreamInfo {
	return []media.StreamInfo{d.stream}
}

// BestStream returns the single audio stream
func (d *Demuxer) BestStream(t media.MediaType) (media.StreamInfo, error) {
	return media.SelectBest(d.Streams(), t)
}

// ReadPacket returns the next chunk of decoded samples
func (d *Demuxer) ReadPacket() (decode.Packet, error) {
	chunk, err := d.src.ReadChunk()
	if err != nil {
		return nil, err
	}

	pkt := decode.NewBufferPacket(d.stream.Index, chunk, d.pts)
	if d.block > 0 {
		d.pts += int64(len(chunk) / d.block)
	}
	return pkt, nil
}

// OpenDecoder returns the PCM framer for the audio stream
func (d *Demuxer) OpenDecoder(stream media.StreamInfo) (decode.Decoder, error) {
	if stream.Index != d.stream.Index {
		return nil, fmt.Errorf("stream index %d out of range", stream.Index)
	}

	pcm := d.stream
	pcm.Audio.Codec = "pcm"
	return decode.NewPCMStream(pcm)
}

// Close closes the underlying file
func (d *Demuxer) Close() error {
	return d.src.Close()
}
