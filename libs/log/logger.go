package log

import (
	"io"
	"sync"

	tmlog "github.com/tendermint/tendermint/libs/log"
)

const (
	// LogFormatPlain defines a logging format used for human-readable text-based
	// logging that is not structured. Typically, this format is used for development
	// and testing purposes.
	LogFormatPlain string = "plain"

	// LogFormatText defines a logging format used for human-readable text-based
	// logging that is not structured. Typically, this format is used for development
	// and testing purposes.
	LogFormatText string = "text"

	// LogFormatJSON defines a logging format for structured JSON-based logging
	// that is typically used in production environments, which can be sent to
	// logging facilities that support complex log parsing.
	LogFormatJSON string = "json"

	// Supported loging levels
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Logger is the Tendermint logging interface. Loggers built here can be handed
// straight to the ABCI server and any other Tendermint library.
type Logger = tmlog.Logger

// syncWriter serializes writes to the underlying writer so one logger can be
// shared by the consensus, query and mempool connections.
type syncWriter struct {
	mtx sync.Mutex
	w   io.Writer
}

func newSyncWriter(w io.Writer) io.Writer {
	return &syncWriter{w: w}
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	return w.w.Write(p)
}
