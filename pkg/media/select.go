// ABOUTME: Best stream selection for a requested media type
// ABOUTME: Ranks candidate streams by decoder availability, disposition and bit rate
package media

import "errors"

var (
	// ErrStreamNotFound is returned when the input has no stream of the requested type
	ErrStreamNotFound = errors.New("stream not found")
	// ErrDecoderNotFound is returned when streams exist but none can be decoded
	ErrDecoderNotFound = errors.New("decoder not found")
)

// SelectBest picks the stream to decode for the given media type, for
// demuxers without a library ranking of their own. Streams without a
// decoder and audio streams with no sample rate or channels are skipped.
// The default disposition wins, then the higher bit rate. Ties keep
// container order.
func SelectBest(streams []StreamInfo, t MediaType) (StreamInfo, error) {
	var best *StreamInfo
	found := false
	for i := range streams {
		s := &streams[i]
		if s.Type != t {
			continue
		}
		found = true
		if !s.HasDecoder || !probed(s) {
			continue
		}
		if best == nil || better(s, best) {
			best = s
		}
	}

	switch {
	case best != nil:
		return *best, nil
	case found:
		return StreamInfo{}, ErrDecoderNotFound
	default:
		return StreamInfo{}, ErrStreamNotFound
	}
}

func better(a, b *StreamInfo) bool {
	if a.Default != b.Default {
		return a.Default
	}
	return a.BitRate > b.BitRate
}

func probed(s *StreamInfo) bool {
	if s.Type != Audio {
		return true
	}
	return s.Audio.SampleRate > 0 && s.Audio.Channels > 0
}
