// ABOUTME: Raw audio preview package
// ABOUTME: Plays raw PCM output files through oto
// Package output plays raw PCM files written by the demuxer.
//
// oto accepts unsigned 8-bit, signed 16-bit and 32-bit float samples in
// little-endian order. Other sample formats and big-endian files are
// converted while reading.
//
// Example:
//
//	f := output.Format{SampleFormat: media.SampleFormatS16, SampleRate: 48000, Channels: 2, Order: binary.LittleEndian}
//	err := output.PlayFile(ctx, "audio.raw", f, logger)
package output
