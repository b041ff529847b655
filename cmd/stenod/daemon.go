package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/writerslogic/stenod/internal/chord"
	"github.com/writerslogic/stenod/internal/config"
	"github.com/writerslogic/stenod/internal/dictionary"
	"github.com/writerslogic/stenod/internal/dictjson"
	"github.com/writerslogic/stenod/internal/geminipr"
	"github.com/writerslogic/stenod/internal/logging"
	"github.com/writerslogic/stenod/internal/output"
	"github.com/writerslogic/stenod/internal/sessionlog"
	"github.com/writerslogic/stenod/internal/stenura"
	"github.com/writerslogic/stenod/internal/translator"
)

// inputSource is satisfied by both stenura.Session and geminipr.Reader.
type inputSource interface {
	Read(ctx context.Context) (chord.Chord, error)
}

// sessionCloser is the subset of session lifecycle the daemon needs to tear
// down on shutdown. It owns closing the underlying serial fd: stenura.Session
// closes it itself (the only way to unblock its reader goroutine);
// geminipr.Reader has no handshake or background goroutines of its own, so
// it gets a fileCloser that just closes the fd directly.
type sessionCloser interface {
	Close(ctx context.Context) error
}

// fileCloser closes a serial fd that no session object already owns.
type fileCloser struct{ f *os.File }

func (c fileCloser) Close(context.Context) error { return c.f.Close() }

type daemon struct {
	cfg     *config.Config
	log     *logging.Logger
	source  inputSource
	closer  sessionCloser
	session *stenura.Session // non-nil only when cfg.Protocol == "stenura"; lets ApplyConfig retune it live
	writer  *translator.Writer
	sink    output.Sink
	sessionLog *sessionlog.Store
	count  atomic.Uint64
}

func newDaemon(cfg *config.Config, log *logging.Logger) (*daemon, error) {
	dict, err := loadDictionary(cfg.DictionaryPath, log)
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}

	var sessionStore *sessionlog.Store
	if cfg.SessionLogPath != "" {
		sessionStore, err = sessionlog.Open(cfg.SessionLogPath)
		if err != nil {
			return nil, fmt.Errorf("open session log: %w", err)
		}
	}

	d := &daemon{
		cfg:        cfg,
		log:        log,
		writer:     translator.NewWriter(translator.New(dict)),
		sink:       output.NewStdoutSink(os.Stdout),
		sessionLog: sessionStore,
	}
	return d, nil
}

func loadDictionary(path string, log *logging.Logger) (*dictionary.Dictionary, error) {
	if path == "" {
		return dictionary.New(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dictjson.Load(f, log)
}

// Start opens the configured input source and begins the translate loop in
// a background goroutine.
func (d *daemon) Start(ctx context.Context) error {
	f, err := stenura.OpenSerial(d.cfg.Device)
	if err != nil {
		return fmt.Errorf("open %s: %w", d.cfg.Device, err)
	}

	switch d.cfg.Protocol {
	case "geminipr":
		d.source = geminipr.NewReader(f)
		d.closer = fileCloser{f: f}
	default:
		session := stenura.NewSession(f, d.log.WithComponent("stenura"), tuningFromConfig(d.cfg))
		if err := session.Open(ctx); err != nil {
			f.Close()
			return fmt.Errorf("open stenura session: %w", err)
		}
		d.source = session
		d.closer = session
		d.session = session
	}

	go d.run(ctx)
	return nil
}

func (d *daemon) run(ctx context.Context) {
	for {
		c, err := d.source.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.log.Warn("read error", "error", err)
			continue
		}

		out := d.writer.Stroke(c)
		if out != "" {
			if _, err := d.sink.Write([]byte(out)); err != nil {
				d.log.Warn("write error", "error", err)
			}
		}
		d.count.Add(1)

		if d.sessionLog != nil {
			if err := d.sessionLog.Append(sessionlog.Entry{
				TimestampNs:  time.Now().UnixNano(),
				Chord:        c.String(),
				Wrote:        out,
				RetractCount: strings.Count(out, string(rune(output.RetractByte))),
				WasUndo:      d.writer.LastWasUndo(),
			}); err != nil {
				d.log.Warn("session log append failed", "error", err)
			}
		}
	}
}

// tuningFromConfig carries cfg's retry/poll/queue tunables into the
// stenura.Tuning shape NewSession expects.
func tuningFromConfig(cfg *config.Config) stenura.Tuning {
	return stenura.Tuning{
		RetryInterval: cfg.RetryInterval(),
		MaxTries:      cfg.MaxTries,
		PollInterval:  cfg.PollInterval(),
		QueueCapacity: cfg.QueueCapacity,
	}
}

// ApplyConfig retunes the live session from a reloaded configuration,
// letting an operator adjust retry/poll intervals without restarting the
// daemon. It is the config.Loader's OnChange callback. Fields other than
// the stenura tunables (device, protocol, dictionary path, ...) require a
// restart to take effect, since they're baked into already-open resources.
func (d *daemon) ApplyConfig(cfg *config.Config) {
	d.cfg = cfg
	if d.session != nil {
		d.session.SetTuning(tuningFromConfig(cfg))
	}
}

// StrokeCount returns the number of strokes translated so far.
func (d *daemon) StrokeCount() uint64 { return d.count.Load() }

// Stop closes the input source (and, through it, the serial fd) and the
// session log.
func (d *daemon) Stop(ctx context.Context) error {
	var firstErr error
	if d.closer != nil {
		if err := d.closer.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if d.sessionLog != nil {
		if err := d.sessionLog.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
