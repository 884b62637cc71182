package logsink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/appendblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

type appender interface {
	AppendBlock(ctx context.Context, body io.ReadSeekCloser, o *appendblob.AppendBlockOptions) (appendblob.AppendBlockResponse, error)
}

// BlobHandler is a slog.Handler that batches JSON lines into an Azure append blob.
type BlobHandler struct {
	level  slog.Leveler
	ab     appender
	ch     chan []byte
	done   chan struct{}
	ctx    context.Context
	wg     sync.WaitGroup
	ticker *time.Ticker
	once   sync.Once
}

var ErrClosed = errors.New("log sink closed")

func NewBlobHandler(ctx context.Context, cfg Config) (*BlobHandler, error) {
	if cfg.AccountName == "" || cfg.Container == "" {
		return nil, errors.New("AccountName and Container are required")
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "ninjachef"
	}

	// the blob name contains slashes, only the container is escaped
	blobURL := fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s", cfg.AccountName, url.PathEscape(cfg.Container), BlobName(time.Now(), host))
	ab, err := newAppendClient(cfg, blobURL)
	if err != nil {
		return nil, err
	}
	if _, err := ab.Create(ctx, nil); err != nil && !bloberror.HasCode(err, bloberror.BlobAlreadyExists) {
		return nil, fmt.Errorf("failed to create log blob: %w", err)
	}
	return newBlobHandler(ctx, ab, cfg.Level, cfg.FlushEvery), nil
}

// newAppendClient uses the shared account key when one is given and the
// default Azure credential chain otherwise, like the blob cache.
func newAppendClient(cfg Config, blobURL string) (*appendblob.Client, error) {
	if cfg.AccountKey != "" {
		cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if err != nil {
			return nil, err
		}
		return appendblob.NewClientWithSharedKeyCredential(blobURL, cred, nil)
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create default azure credential: %w", err)
	}
	return appendblob.NewClient(blobURL, cred, nil)
}

func newBlobHandler(ctx context.Context, ab appender, level slog.Leveler, flushEvery time.Duration) *BlobHandler {
	if flushEvery <= 0 {
		flushEvery = 2 * time.Second
	}
	h := &BlobHandler{
		level:  level,
		ab:     ab,
		ch:     make(chan []byte, 1024),
		done:   make(chan struct{}),
		ctx:    context.WithoutCancel(ctx),
		ticker: time.NewTicker(flushEvery),
	}
	h.wg.Add(1)
	go h.loop()
	return h
}

// Close flushes what is buffered and stops the background writer.
func (h *BlobHandler) Close(context.Context) error {
	h.once.Do(func() {
		close(h.done)
		h.wg.Wait()
		h.ticker.Stop()
	})
	return nil
}

func (h *BlobHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *BlobHandler) Handle(_ context.Context, r slog.Record) error {
	ev := make(map[string]any, r.NumAttrs()+3)
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	ev["ts"] = ts.UTC().Format(time.RFC3339Nano)
	ev["level"] = r.Level.String()
	ev["msg"] = r.Message

	r.Attrs(func(a slog.Attr) bool {
		ev[a.Key] = attrValue(a.Value)
		return true
	})

	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return err
	}

	select {
	case <-h.done:
		return ErrClosed
	default:
	}
	select {
	case h.ch <- b.Bytes():
		return nil
	case <-h.done:
		return ErrClosed
	}
}

func attrValue(v slog.Value) any {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		m := map[string]any{}
		for _, a := range v.Group() {
			m[a.Key] = attrValue(a.Value)
		}
		return m
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
	}
	return v.Any()
}

func (h *BlobHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &withAttrs{Handler: h, attrs: attrs}
}

// groups are flattened
func (h *BlobHandler) WithGroup(string) slog.Handler { return h }

func (h *BlobHandler) loop() {
	defer h.wg.Done()
	var buf []byte
	flush := func() {
		if len(buf) == 0 {
			return
		}
		if _, err := h.ab.AppendBlock(h.ctx, readSeekNopCloser{bytes.NewReader(buf)}, nil); err != nil {
			// slog would loop back into this handler
			fmt.Fprintf(os.Stderr, "logsink: append failed: %v\n", err)
		}
		buf = buf[:0]
	}

	for {
		select {
		case line := <-h.ch:
			buf = append(buf, line...)
		case <-h.done:
			for {
				select {
				case line := <-h.ch:
					buf = append(buf, line...)
				default:
					flush()
					return
				}
			}
		case <-h.ticker.C:
			flush()
		}
	}
}

type withAttrs struct {
	slog.Handler
	attrs []slog.Attr
}

func (w *withAttrs) Handle(ctx context.Context, r slog.Record) error {
	r2 := r.Clone()
	r2.AddAttrs(w.attrs...)
	return w.Handler.Handle(ctx, r2)
}

func (w *withAttrs) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &withAttrs{Handler: w.Handler, attrs: append(append([]slog.Attr{}, w.attrs...), attrs...)}
}

type readSeekNopCloser struct{ io.ReadSeeker }

func (r readSeekNopCloser) Close() error { return nil }
