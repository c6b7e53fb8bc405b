//go:build profiling
// +build profiling

// Command profile drives squeeze encoders over a synthetic payload while
// capturing CPU, fgprof or trace profiles, or streaming them to Pyroscope.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/felixge/fgprof"
	"github.com/grafana/pyroscope-go"

	"github.com/meigma/squeeze"
)

type profileKind string

const (
	profileCPU   profileKind = "cpu"
	profileFG    profileKind = "fgprof"
	profileTrace profileKind = "trace"
	profileNone  profileKind = "none"
)

func main() {
	var (
		format       = flag.String("format", "gzip", "compression format: gzip or zstd")
		level        = flag.Int("level", 0, "compression level (0 for the format default)")
		size         = flag.String("size", "256MiB", "synthetic payload size")
		blockSize    = flag.String("block-size", "1MiB", "uncompressed block size")
		streamBlocks = flag.Int("stream-blocks", 0, "blocks per stream (0 for a single stream)")
		observers    = flag.Int("observers", 1, "number of no-op observers to register")
		entropy      = flag.Float64("entropy", 0.5, "fraction of random bytes in the payload (0-1)")
		profile      = flag.String("profile", "cpu", "profile type: cpu, fgprof, trace, none")
		outDir       = flag.String("out", "profiles", "output directory for profiles")
		label        = flag.String("label", "", "label suffix for profile files")
		repeat       = flag.Int("repeat", 1, "number of iterations")
		logLevel     = flag.String("log-level", "", "log level: debug, info, warn, error")
		pyroAddr     = flag.String("pyroscope", "", "Pyroscope server URL (enables streaming, disables local profiles)")
	)
	flag.Parse()

	runID := time.Now().UTC().Format("20060102T150405Z")

	profileKindValue := profileKind(strings.ToLower(*profile))
	if !isValidProfile(profileKindValue) {
		log.Fatalf("invalid profile %q (expected cpu, fgprof, trace, none)", *profile)
	}

	formatValue, err := squeeze.ParseFormat(*format)
	if err != nil {
		log.Fatalf("parse format: %v", err)
	}
	compression, err := squeeze.CompressionFor(formatValue, *level)
	if err != nil {
		log.Fatalf("compression: %v", err)
	}
	payloadSize, err := humanize.ParseBytes(*size)
	if err != nil {
		log.Fatalf("parse size: %v", err)
	}
	blockBytes, err := humanize.ParseBytes(*blockSize)
	if err != nil {
		log.Fatalf("parse block size: %v", err)
	}
	if *repeat < 1 {
		log.Fatalf("repeat must be >= 1")
	}

	// When Pyroscope is enabled, stream profiles instead of writing locally
	var pyroProfiler *pyroscope.Profiler
	if *pyroAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "squeeze-profile",
			ServerAddress:   *pyroAddr,
			// Grafana Cloud requires BasicAuth (AuthToken is deprecated)
			BasicAuthUser:     os.Getenv("PYROSCOPE_BASIC_AUTH_USER"),
			BasicAuthPassword: os.Getenv("PYROSCOPE_BASIC_AUTH_PASSWORD"),
			UploadRate:        5 * time.Second,
			Logger:            pyroscope.StandardLogger,
			Tags: map[string]string{
				"format":  string(formatValue),
				"git_sha": os.Getenv("GITHUB_SHA"),
				"run_id":  runID,
			},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("start pyroscope: %v", err)
		}
		pyroProfiler = profiler
		log.Printf("streaming profiles to %s", *pyroAddr)
	} else if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("create profile output dir: %v", err)
	}

	labelParts := []string{string(formatValue)}
	if *label != "" {
		labelParts = append(labelParts, sanitizeLabel(*label))
	}
	labelParts = append(labelParts, runID)
	labelValue := strings.Join(labelParts, "_")

	// Only start local profiling when not streaming to Pyroscope
	var stopProfile func() error
	if pyroProfiler == nil {
		stopProfile, err = startProfile(profileKindValue, *outDir, labelValue)
		if err != nil {
			log.Fatalf("start profile: %v", err)
		}
	}

	sinkOpts := []squeeze.SinkOption{}
	if *logLevel != "" {
		lvl, err := parseLogLevel(*logLevel)
		if err != nil {
			log.Fatalf("parse log level: %v", err)
		}
		sinkOpts = append(sinkOpts, squeeze.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))))
	}

	payload := newPayload(int64(payloadSize), *entropy) //nolint:gosec // G115: payload size fits in int64

	for i := range *repeat {
		if *repeat > 1 {
			log.Printf("iteration %d/%d", i+1, *repeat)
		}
		opts := []squeeze.WriterOption{
			squeeze.WithCompression(compression),
			squeeze.WithBlockSize(int(blockBytes)), //nolint:gosec // G115: block size is bounded by the flag
			squeeze.WithStreamBlocks(*streamBlocks),
			squeeze.WithSinkOptions(sinkOpts...),
		}
		for range *observers {
			opts = append(opts, squeeze.WithObserver(squeeze.ObserverFunc(func(squeeze.ProgressEvent) error { return nil })))
		}

		w, err := squeeze.NewWriter(io.Discard, opts...)
		if err != nil {
			log.Fatalf("create writer: %v", err)
		}
		start := time.Now()
		if _, err := io.Copy(w, payload.reader()); err != nil {
			log.Fatalf("compress: %v", err)
		}
		if err := w.Close(); err != nil {
			log.Fatalf("close: %v", err)
		}
		elapsed := time.Since(start)
		log.Printf("compressed %s -> %s in %s (%s/s)",
			humanize.IBytes(payloadSize),
			humanize.IBytes(uint64(w.TotalBytesWritten())), //nolint:gosec // G115: counts are non-negative
			elapsed,
			humanize.IBytes(uint64(float64(payloadSize)/elapsed.Seconds())))
	}

	// Stop profiling - either Pyroscope or local
	if pyroProfiler != nil {
		if err := pyroProfiler.Stop(); err != nil {
			log.Fatalf("stop pyroscope: %v", err)
		}
		log.Printf("pyroscope profiling stopped")
		return
	}
	if stopErr := stopProfile(); stopErr != nil {
		log.Fatalf("stop profile: %v", stopErr)
	}
	if err := writeHeapProfile(*outDir, labelValue); err != nil {
		log.Fatalf("write heap profile: %v", err)
	}
	if err := writeAllocsProfile(*outDir, labelValue); err != nil {
		log.Fatalf("write allocs profile: %v", err)
	}
}

// payload is a reusable synthetic input mixing random and repetitive bytes.
type payload struct {
	chunk []byte
	size  int64
}

func newPayload(size int64, entropy float64) *payload {
	const chunkSize = 1 << 20
	chunk := make([]byte, chunkSize)
	randomBytes := int(float64(chunkSize) * min(max(entropy, 0), 1))
	rng := rand.New(rand.NewSource(1)) //nolint:gosec // G404: deterministic test data
	rng.Read(chunk[:randomBytes])
	for i := randomBytes; i < chunkSize; i++ {
		chunk[i] = byte('a' + i%26)
	}
	return &payload{chunk: chunk, size: size}
}

func (p *payload) reader() io.Reader {
	readers := make([]io.Reader, 0, p.size/int64(len(p.chunk))+1)
	for remaining := p.size; remaining > 0; remaining -= int64(len(p.chunk)) {
		n := min(remaining, int64(len(p.chunk)))
		readers = append(readers, io.NewSectionReader(bytes.NewReader(p.chunk), 0, n))
	}
	return io.MultiReader(readers...)
}

func isValidProfile(kind profileKind) bool {
	switch kind {
	case profileCPU, profileFG, profileTrace, profileNone:
		return true
	default:
		return false
	}
}

func startProfile(kind profileKind, outDir, label string) (func() error, error) {
	switch kind {
	case profileCPU:
		f, err := os.Create(filepath.Join(outDir, "cpu_"+label+".pprof"))
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, err
		}
		return func() error {
			pprof.StopCPUProfile()
			return f.Close()
		}, nil
	case profileFG:
		f, err := os.Create(filepath.Join(outDir, "fgprof_"+label+".pprof"))
		if err != nil {
			return nil, err
		}
		stop := fgprof.Start(f, fgprof.FormatPprof)
		return func() error {
			return errors.Join(stop(), f.Close())
		}, nil
	case profileTrace:
		f, err := os.Create(filepath.Join(outDir, "trace_"+label+".out"))
		if err != nil {
			return nil, err
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			return nil, err
		}
		return func() error {
			trace.Stop()
			return f.Close()
		}, nil
	case profileNone:
		return func() error { return nil }, nil
	default:
		return nil, fmt.Errorf("unknown profile type: %s", kind)
	}
}

func writeHeapProfile(outDir, label string) error {
	f, err := os.Create(filepath.Join(outDir, "heap_"+label+".pprof"))
	if err != nil {
		return err
	}
	defer f.Close()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}

func writeAllocsProfile(outDir, label string) error {
	f, err := os.Create(filepath.Join(outDir, "allocs_"+label+".pprof"))
	if err != nil {
		return err
	}
	defer f.Close()
	return pprof.Lookup("allocs").WriteTo(f, 0)
}

func sanitizeLabel(value string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, value)
}

func parseLogLevel(value string) (slog.Leveler, error) {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return nil, fmt.Errorf("unknown level %q", value)
	}
}
