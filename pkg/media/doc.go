// ABOUTME: Media fundamentals package providing core types and utilities
// ABOUTME: Defines stream descriptions, decoded frames and sample formats
// Package media provides the library-neutral types shared by the demuxing
// backends and the raw output driver.
//
// This package defines:
//   - StreamInfo: one elementary stream of an opened input
//   - Frame: a decoded video picture or block of audio samples
//   - SampleFormat: FFmpeg-named sample layouts (packed and planar)
//
// It also provides a best-stream fallback for backends whose library has
// no ranking of its own, and the lookup from sample formats to
// raw demuxer names used in playback instructions.
//
// Example:
//
//	stream, err := media.SelectBest(demuxer.Streams(), media.Audio)
//	name, err := media.RawFormatName(media.SampleFormatS16, media.HostByteOrder())
//	// name == "s16le" on little-endian hosts
package media
