// Package ffmpeg is the default demuxing backend. It binds libavformat and
// libavcodec through go-astiav and registers itself as "ffmpeg" with the
// decode package.
//
// Building it requires the FFmpeg development libraries (pkg-config must
// find libavformat, libavcodec and libavutil).
package ffmpeg
