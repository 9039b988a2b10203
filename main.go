// ABOUTME: Entry point for the raw demuxer
// ABOUTME: Parses CLI flags, runs the driver and writes the optional report
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Resonate-Protocol/rawdemux/internal/app"
	"github.com/Resonate-Protocol/rawdemux/internal/report"
	"github.com/Resonate-Protocol/rawdemux/internal/ui"
	"github.com/Resonate-Protocol/rawdemux/internal/version"
	"github.com/Resonate-Protocol/rawdemux/pkg/media"
	"github.com/Resonate-Protocol/rawdemux/pkg/media/decode"
	"github.com/Resonate-Protocol/rawdemux/pkg/media/ffmpeg"
	_ "github.com/Resonate-Protocol/rawdemux/pkg/media/native"
	"github.com/Resonate-Protocol/rawdemux/pkg/media/output"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var errAborted = errors.New("interrupted by user")

var (
	refcount    = flag.Bool("refcount", false, "Accepted for compatibility; frames are always released after writing")
	backend     = flag.String("backend", ffmpeg.BackendName, "Decoding backend ("+strings.Join(decode.Names(), ", ")+")")
	noVideo     = flag.Bool("no-video", false, "Do not extract video")
	noAudio     = flag.Bool("no-audio", false, "Do not extract audio")
	useTUI      = flag.Bool("tui", false, "Show a progress view instead of per-frame lines")
	play        = flag.Bool("play", false, "Play the raw audio output when done")
	reportPath  = flag.String("report", "", "Write a run report (YAML for .yaml/.yml, JSON otherwise)")
	logFile     = flag.String("log-file", "", "Log file path")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "usage: %s [options] input_file video_output_file audio_output_file\n"+
		"Read frames from an input file, decode them, and write decoded\n"+
		"video frames to a rawvideo file named video_output_file, and decoded\n"+
		"audio frames to a rawaudio file named audio_output_file.\n\n", os.Args[0])
	fmt.Fprintf(out, "The -refcount option is kept for compatibility. Decoded frames are\n"+
		"always released once they have been written, so it does not change\n"+
		"the output.\n\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (%s)\n", version.Product, version.Version, version.Manufacturer)
		return
	}

	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(1)
	}

	logger, closeLog, err := setupLogging(*logFile, *debug, *useTUI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	ffmpeg.ForwardLogs(logger)

	config := app.Config{
		Input:       flag.Arg(0),
		VideoOutput: flag.Arg(1),
		AudioOutput: flag.Arg(2),
		Backend:     *backend,
		Refcount:    *refcount,
		Video:       !*noVideo,
		Audio:       !*noAudio,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var observers app.Observers

	var recorder *report.Recorder
	if *reportPath != "" {
		recorder = report.NewRecorder(config.Input, config.Backend)
		observers = append(observers, recorder)
	}

	var progress *ui.Progress
	if *useTUI {
		progress = ui.NewProgress(config.Input, config.Backend, nil)
		observers = append(observers, progress)
	} else {
		observers = append(observers, app.NewConsoleObserver(os.Stdout))
	}

	demux, err := app.New(config, logger, observers)
	if err != nil {
		fail(logger, err)
	}

	summary, err := run(ctx, demux, progress)

	if recorder != nil {
		if werr := report.Write(*reportPath, recorder.Report()); werr != nil {
			logger.WithError(werr).Error("Failed to write report")
			err = errors.Join(err, werr)
		} else {
			logger.WithField("path", *reportPath).Info("Report written")
		}
	}

	if err != nil {
		fail(logger, err)
	}

	if *play {
		if err := playAudio(ctx, summary, logger); err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info("Playback stopped")
				return
			}
			fail(logger, err)
		}
	}
}

// run drives the demuxer. With the progress view the driver runs on its
// own goroutine while the view owns the terminal.
func run(ctx context.Context, demux *app.Demux, progress *ui.Progress) (*app.Summary, error) {
	if progress == nil {
		return demux.Run(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)

	var summary *app.Summary
	g.Go(func() error {
		var err error
		summary, err = demux.Run(gctx)
		return err
	})

	g.Go(func() error {
		aborted, err := progress.Run()
		if err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		if aborted {
			return errAborted
		}
		return nil
	})

	err := g.Wait()
	return summary, err
}

func playAudio(ctx context.Context, summary *app.Summary, logger *logrus.Logger) error {
	a := summary.Audio
	if a == nil {
		logger.Warn("No audio output to play")
		return nil
	}

	f := output.Format{
		SampleFormat: a.Format.SampleFormat.Packed(),
		SampleRate:   a.Format.SampleRate,
		Channels:     a.RawChannels,
		Order:        media.HostByteOrder(),
	}
	return output.PlayFile(ctx, a.Output, f, logger)
}

// setupLogging logs to stderr, the log file, or both. The progress view
// owns the terminal, so it only gets the file.
func setupLogging(path string, debug, tui bool) (*logrus.Logger, func(), error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	var out io.Writer = os.Stderr
	if tui {
		out = io.Discard
	}

	closeLog := func() {}
	if path != "" {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, nil, err
		}
		closeLog = func() { _ = f.Close() }

		if tui {
			out = f
		} else {
			out = io.MultiWriter(os.Stderr, f)
		}
	}

	logger.SetOutput(out)
	return logger, closeLog, nil
}

func fail(logger *logrus.Logger, err error) {
	if *useTUI {
		fmt.Fprintln(os.Stderr, err)
	}
	logger.Fatal(err)
}
