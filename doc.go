// Package squeeze provides streaming compressors that report their progress
// to a dynamic set of observers.
//
// Every squeeze encoder is built on a Sink: a byte counter plus an observer
// registry. The encoder records how many compressed bytes it has committed to
// its destination and decides when to report progress. Observers can come and
// go at any time without disturbing a report already in flight, and a failing
// observer never affects the encoder or the other observers.
//
// # Basic Usage
//
// Compress a stream and watch each block go out:
//
//	w, err := squeeze.NewWriter(dst,
//	    squeeze.WithCompression(squeeze.ZstdCompression()),
//	    squeeze.WithBlockSize(4<<20),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cancel := w.Subscribe(squeeze.ObserverFunc(func(e squeeze.ProgressEvent) error {
//	    fmt.Printf("stream %d block %d: %d bytes (total %d)\n",
//	        e.StreamIndex, e.BlockIndex, e.CompressedBytesInCurrentUnit, e.TotalBytesWritten)
//	    return nil
//	}))
//	defer cancel()
//
//	if _, err := io.Copy(w, src); err != nil {
//	    log.Fatal(err)
//	}
//	if err := w.Close(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Custom Encoders
//
// Other encoders embed or hold a *Sink and call RecordWritten after each
// write to their destination and ReportProgress when a unit of work is done.
//
// # Observer Failures
//
// An observer fails by returning an error or panicking. Failures are logged
// through the logger given with WithLogger and passed to the handler given
// with WithObserverErrorHandler. They are never returned to the encoder.
package squeeze
