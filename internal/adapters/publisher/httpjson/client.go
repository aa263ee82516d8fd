// Package httpjson publishes metric batches to an HTTP collector as gzipped JSON.
package httpjson

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/vshulcz/resquewatch/internal/domain"
	"github.com/vshulcz/resquewatch/internal/misc"
	"github.com/vshulcz/resquewatch/internal/ports"
)

// MetricsPath is the collector route receiving batches.
const MetricsPath = "/metrics"

const maxPooledBuffer = 1 << 20

// Client posts one request per batch. It never retries; a failed request is
// reported to the caller as is.
type Client struct {
	base *url.URL
	hc   *http.Client
	key  string
}

var _ ports.Publisher = (*Client)(nil)

// payload is the request body understood by the collector.
type payload struct {
	Namespace  string             `json:"namespace"`
	MetricData []domain.DataPoint `json:"metric_data"`
}

var (
	gzipWriterPool = sync.Pool{
		New: func() any {
			return gzip.NewWriter(io.Discard)
		},
	}
	bufferPool = newBufferPool()
)

func newBufferPool() *misc.Pool[*bytes.Buffer] {
	p := misc.NewPool(func() *bytes.Buffer { return new(bytes.Buffer) })
	return p.WithKeep(func(b *bytes.Buffer) bool { return b.Cap() <= maxPooledBuffer })
}

// New normalizes the base address, configures the HTTP client, and returns a Client instance.
func New(endpoint string, hc *http.Client, key string) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("httpjson: empty endpoint")
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	u, err := url.Parse(normalizeBase(endpoint))
	if err != nil {
		return nil, err
	}
	return &Client{base: u, hc: hc, key: strings.TrimSpace(key)}, nil
}

func normalizeBase(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return strings.TrimRight(s, "/")
	}
	return "http://" + strings.TrimRight(s, "/")
}

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

// PutMetricData sends one batch under the given backend namespace.
func (c *Client) PutMetricData(ctx context.Context, namespace string, data []domain.DataPoint) (retErr error) {
	if len(data) == 0 {
		return nil
	}
	plain, err := json.Marshal(payload{Namespace: namespace, MetricData: data})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	body := bufferPool.Get()
	defer bufferPool.Put(body)
	if err := gzipInto(body, plain); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(MetricsPath), bytes.NewReader(body.Bytes()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept-Encoding", "gzip")
	if c.key != "" {
		req.Header.Set("HashSHA256", misc.SumSHA256(plain, c.key))
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close response body: %w", cerr)
		}
	}()

	if err := drainAndDiscard(resp); err != nil {
		return err
	}
	return checkHTTPStatus(resp)
}

func gzipInto(dst *bytes.Buffer, src []byte) error {
	zw, ok := gzipWriterPool.Get().(*gzip.Writer)
	if !ok {
		zw = gzip.NewWriter(io.Discard)
	}
	defer gzipWriterPool.Put(zw)
	zw.Reset(dst)
	if _, err := zw.Write(src); err != nil {
		_ = zw.Close()
		return fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("gzip close: %w", err)
	}
	return nil
}

func drainAndDiscard(resp *http.Response) error {
	var r io.Reader = resp.Body
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Encoding")), "gzip") {
		gr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("bad gzip: %w", err)
		}
		defer func() {
			_ = gr.Close()
		}()
		r = gr
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return fmt.Errorf("drain body: %w", err)
	}
	return nil
}

// StatusError reports a non-200 answer from the collector.
type StatusError struct {
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return "collector status: " + e.Status
}

func checkHTTPStatus(resp *http.Response) error {
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return nil
}
