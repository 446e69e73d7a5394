package awskit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/zalando/awskit/config"
	"github.com/zalando/awskit/credentials"
	"github.com/zalando/awskit/metrics"
	"github.com/zalando/awskit/middleware"
	awsnet "github.com/zalando/awskit/net"
	"github.com/zalando/awskit/protocol"
	"github.com/zalando/awskit/retry"
	"github.com/zalando/awskit/signer"
)

const defaultUserAgent = "awskit/1.0"

// ErrAlreadyShutdown is returned by calls on a client that was shut
// down.
var ErrAlreadyShutdown = errors.New("client already shut down")

// TransportError wraps an I/O level failure of the HTTP exchange.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// Options configure a Client. The zero value of every field selects a
// working default.
type Options struct {
	// Config describes the service to talk to.
	Config config.ServiceConfig

	// CredentialProvider overrides the default chain. The client
	// wraps it in a singleflight cache unless it already is one.
	CredentialProvider credentials.Provider

	// CredentialExpiryGuard is how long before expiry cached
	// credentials are refreshed.
	CredentialExpiryGuard time.Duration

	// RetryPolicy overrides the default jittered exponential backoff.
	RetryPolicy retry.Policy

	// Transport, when set, is used instead of a client-owned pooled
	// transport and its lifecycle stays with the caller.
	Transport http.RoundTripper

	// TransportOptions configure the client-owned transport. Ignored
	// when Transport is set.
	TransportOptions awsnet.Options

	// MetricsRegisterer receives the request metrics collectors.
	// Metrics are disabled when DisableMetrics is set.
	MetricsRegisterer prometheus.Registerer
	DisableMetrics    bool

	// UserAgent overrides the User-Agent header.
	UserAgent string
}

// Client executes operations against one AWS service.
type Client struct {
	cfg         config.ServiceConfig
	signer      *signer.Signer
	creds       credentials.Provider
	policy      retry.Policy
	transport   http.RoundTripper
	ownedTr     *awsnet.Transport
	quit        chan struct{}
	middlewares middleware.Chain
	metrics     *metrics.Metrics
	userAgent   string

	requestID atomic.Uint64
	down      atomic.Bool
}

// New creates a Client for the configured service.
func New(o Options) (*Client, error) {
	cfg := o.Config.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	creds := o.CredentialProvider
	if creds == nil {
		creds = credentials.DefaultChain()
	}
	if _, cached := creds.(*credentials.Cache); !cached {
		creds = credentials.NewCache(creds, o.CredentialExpiryGuard)
	}

	policy := o.RetryPolicy
	if policy == nil {
		policy = retry.Default()
	}

	c := &Client{
		cfg:         cfg,
		signer:      signer.New(cfg.Region, cfg.ServiceName, cfg.SigningName),
		creds:       creds,
		policy:      policy,
		middlewares: middleware.Chain(cfg.Middlewares),
		userAgent:   o.UserAgent,
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if !o.DisableMetrics {
		c.metrics = metrics.New(o.MetricsRegisterer)
	}

	if o.Transport != nil {
		c.transport = o.Transport
	} else {
		c.quit = make(chan struct{})
		topts := o.TransportOptions
		if topts.Timeout == 0 {
			topts.Timeout = 30 * time.Second
		}
		c.ownedTr = awsnet.NewTransport(topts, c.quit)
		c.transport = c.ownedTr

		// dropping an owned client without Shutdown leaks the
		// transport reaper
		runtime.SetFinalizer(c, func(c *Client) {
			if !c.down.Load() {
				log.WithField("aws-service", c.cfg.ServiceName).
					Error("awskit client garbage collected without Shutdown")
			}
		})
	}
	return c, nil
}

// Shutdown releases client-owned resources. Injected transports stay
// untouched. A second call returns ErrAlreadyShutdown.
func (c *Client) Shutdown() error {
	if c.down.Swap(true) {
		return ErrAlreadyShutdown
	}
	if c.ownedTr != nil {
		close(c.quit)
		c.ownedTr.CloseIdleConnections()
	}
	return nil
}

// httpStatusError carries a non-2xx status through retry
// classification without decoding the body yet.
type httpStatusError int

func (e httpStatusError) Error() string       { return fmt.Sprintf("http status %d", int(e)) }
func (e httpStatusError) HTTPStatusCode() int { return int(e) }

// Execute runs one operation: build, middlewares, sign, dispatch with
// retries, decode into output. A nil output skips body decoding.
func (c *Client) Execute(ctx context.Context, op *protocol.Operation, input, output any) error {
	if c.down.Load() {
		return ErrAlreadyShutdown
	}

	reqID := c.requestID.Add(1)
	mctx := &middleware.Context{
		RequestID: reqID,
		Service:   c.cfg.ServiceName,
		Operation: op.Name,
	}
	logger := log.WithFields(log.Fields{
		"aws-service":    c.cfg.ServiceName,
		"aws-operation":  op.Name,
		"aws-request-id": reqID,
	})

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	defer c.metrics.MeasureRequest(c.cfg.ServiceName, op.Name, start)

	err := c.execute(ctx, op, input, output, mctx, logger)
	if err != nil {
		c.metrics.IncRequestError(c.cfg.ServiceName, op.Name)
		logger.WithField("error", err.Error()).Error("request failed")
	}
	return err
}

func (c *Client) execute(ctx context.Context, op *protocol.Operation, input, output any, mctx *middleware.Context, logger *log.Entry) error {
	creds, err := c.creds.Fetch(ctx)
	if err != nil {
		return err
	}

	base, body, err := protocol.BuildRequest(&c.cfg, op, input)
	if err != nil {
		return err
	}
	base.Header.Set("User-Agent", c.userAgent)
	base.Header.Set("Amz-Sdk-Invocation-Id", uuid.NewString())

	if err := c.middlewares.Request(base, mctx); err != nil {
		return err
	}

	rsp, err := c.dispatch(ctx, base, body, creds, logger)

	if merr := c.middlewares.Response(rsp, mctx); merr != nil {
		if rsp != nil {
			drain(rsp)
		}
		return merr
	}
	if err != nil {
		return err
	}
	return protocol.DecodeResponse(&c.cfg, op, rsp, output)
}

// dispatch runs the attempt loop: sign, send, classify, wait. It
// returns the first 2xx response, or the response of the final
// attempt for error decoding, or a transport error.
func (c *Client) dispatch(ctx context.Context, base *http.Request, body []byte, creds credentials.Credentials, logger *log.Entry) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		req := base.Clone(ctx)
		req.Body = io.NopCloser(bytes.NewReader(body))
		c.signer.SignHeaders(req, body, creds, time.Now())

		rsp, err := c.transport.RoundTrip(req)

		var attemptErr error
		switch {
		case err != nil:
			attemptErr = &TransportError{Err: err}
		case rsp.StatusCode >= 200 && rsp.StatusCode <= 299:
			return rsp, nil
		default:
			attemptErr = httpStatusError(rsp.StatusCode)
		}

		delay, again := c.policy.WaitTime(attemptErr, attempt)
		if !again {
			if err != nil {
				return nil, attemptErr
			}
			return rsp, nil
		}
		if rsp != nil {
			drain(rsp)
		}

		logger.WithFields(log.Fields{
			"attempt": attempt,
			"delay":   delay.String(),
			"reason":  attemptErr.Error(),
		}).Info("retrying request")

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

// drain releases the connection of a response whose body is not read.
func drain(rsp *http.Response) {
	if rsp.Body == nil {
		return
	}
	io.Copy(io.Discard, io.LimitReader(rsp.Body, 1<<16))
	rsp.Body.Close()
}

// PresignURL returns a presigned URL for method and rawURL, valid for the
// expires duration.
func (c *Client) PresignURL(ctx context.Context, method, rawURL string, expires time.Duration) (string, error) {
	if c.down.Load() {
		return "", ErrAlreadyShutdown
	}
	creds, err := c.creds.Fetch(ctx)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &config.ConfigurationError{Message: "invalid URL " + rawURL}
	}
	return c.signer.PresignURL(method, u, nil, creds, expires, time.Now()), nil
}
