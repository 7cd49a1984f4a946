// Package logtail reads the tail of the console's own log file for the in-app
// log viewer.
//
// The file is the JSON output of internal/logging. Tail scans it once with a
// ring buffer of n lines and decodes each line into an Entry; AtLeast narrows the
// result to a minimum level. Lines that are not JSON (a crash dump, a hand edit)
// are kept verbatim in Entry.Raw.
//
//	entries, err := logtail.Tail(cfg.LogFile, 500)
//	if err != nil {
//		return err
//	}
//	warnings := logtail.AtLeast(entries, zapcore.WarnLevel)
//
// A missing file is not an error: logging may be disabled.
package logtail
