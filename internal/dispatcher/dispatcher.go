// Package dispatcher invokes registered endpoints by identifier with a
// service-wide timeout, layered headers and classified failures.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Alwanly/service-endpoint-dispatch/internal/models"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/failure"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/logger"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/metrics"
)

// DefaultTimeout applies when Config.Timeout is not set.
const DefaultTimeout = 10 * time.Second

// HeaderRequestID carries the per-call correlation id.
const HeaderRequestID = "X-Request-ID"

// Transport performs the network call. *http.Client satisfies it.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// EndpointSource resolves endpoint identifiers. *registry.Registry satisfies it.
type EndpointSource interface {
	Get(id string) (models.Endpoint, bool)
}

type Config struct {
	// Timeout bounds every call, including reading the response body.
	Timeout time.Duration
}

type Option func(*Dispatcher)

// WithMetrics records invocations on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(d *Dispatcher) {
		d.metrics = c
	}
}

// WithRequestIDFunc replaces the generator used when neither the caller nor the
// context carries a request id.
func WithRequestIDFunc(fn func() string) Option {
	return func(d *Dispatcher) {
		d.newRequestID = fn
	}
}

// CallOptions override the registered descriptor for one call.
type CallOptions struct {
	// Method replaces the endpoint's method when set.
	Method string
	// Headers are layered over the endpoint's headers; caller values win.
	Headers map[string]string
	// Body is sent as is.
	Body io.Reader

	// defaults sit between the endpoint's headers and Headers
	defaults map[string]string
}

type Dispatcher struct {
	endpoints    EndpointSource
	transport    Transport
	log          logger.Logger
	timeout      time.Duration
	metrics      *metrics.Collector
	newRequestID func() string
}

func New(endpoints EndpointSource, transport Transport, log logger.Logger, cfg Config, opts ...Option) *Dispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if transport == nil {
		transport = http.DefaultClient
	}

	d := &Dispatcher{
		endpoints: endpoints,
		transport: transport,
		log:       log,
		timeout:   timeout,
		newRequestID: func() string {
			return uuid.Must(uuid.NewV7()).String()
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Timeout returns the per-call deadline.
func (d *Dispatcher) Timeout() time.Duration {
	return d.timeout
}

// Invoke calls the endpoint registered under endpointID and decodes a JSON
// success body into out. out may be nil to discard the body.
//
// Failures are *failure.APIError (unknown endpoint or non-2xx response),
// *failure.NetworkError (transport failure or timeout) and *failure.ParseError
// (2xx body that is not valid JSON for out). Every failure is logged at error
// level before it is returned.
func (d *Dispatcher) Invoke(ctx context.Context, endpointID string, opts CallOptions, out any) error {
	ep, ok := d.endpoints.Get(endpointID)
	if !ok {
		apiErr := failure.NewAPIError(fmt.Sprintf("Endpoint %s not found", endpointID), http.StatusNotFound, "")
		d.metrics.Failure(endpointID, apiErr.Kind().String())
		d.log.Error(apiErr.Error(),
			logger.String(logger.FieldEndpointID, endpointID),
			logger.Int(logger.FieldStatus, apiErr.Status),
		)
		return apiErr
	}

	method := ep.Method
	if opts.Method != "" {
		method = strings.ToUpper(opts.Method)
	}

	header := mergeHeaders(ep.Headers, opts.defaults, opts.Headers)
	requestID := header.Get(HeaderRequestID)
	if requestID == "" {
		// inbound request id first, so one id follows the call end to end
		requestID = logger.GetCorrelationID(ctx)
		if requestID == "" {
			requestID = d.newRequestID()
		}
		header.Set(HeaderRequestID, requestID)
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, ep.URL, opts.Body)
	if err != nil {
		return d.fail(ep, failure.NewNetworkError(fmt.Sprintf("Failed to build request for %s", ep.Name), err.Error(), err))
	}
	req.Header = header

	d.log.Debug("dispatching endpoint request",
		logger.String(logger.FieldEndpoint, ep.Name),
		logger.String(logger.FieldMethod, method),
		logger.String(logger.FieldTargetURL, ep.URL),
		logger.String(logger.FieldRequestID, requestID),
	)

	start := time.Now()
	d.metrics.RequestStarted(ep.Name)
	resp, err := d.transport.Do(req)
	if err != nil {
		d.metrics.RequestFinished(ep.Name, method, 0, time.Since(start))
		return d.fail(ep, d.classifyTransportError(ctx, callCtx, ep, err))
	}
	defer resp.Body.Close()

	if id := resp.Header.Get(HeaderRequestID); id != "" {
		requestID = id
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.metrics.RequestFinished(ep.Name, method, resp.StatusCode, time.Since(start))
		// the response id is only known when the upstream echoes it
		apiErr := failure.NewAPIError("API request failed: "+statusText(resp), resp.StatusCode, resp.Header.Get(HeaderRequestID))
		return d.fail(ep, apiErr, logger.Int(logger.FieldStatus, resp.StatusCode))
	}

	if err := decodeBody(resp.Body, out); err != nil {
		d.metrics.RequestFinished(ep.Name, method, resp.StatusCode, time.Since(start))
		if callCtx.Err() != nil {
			return d.fail(ep, d.classifyTransportError(ctx, callCtx, ep, err))
		}
		return d.fail(ep, failure.NewParseError(fmt.Sprintf("Invalid JSON response: %v", err), ep.Name, err))
	}
	d.metrics.RequestFinished(ep.Name, method, resp.StatusCode, time.Since(start))

	d.log.Info("endpoint request succeeded",
		logger.String(logger.FieldEndpoint, ep.Name),
		logger.String(logger.FieldEndpointID, ep.ID),
		logger.Int(logger.FieldStatus, resp.StatusCode),
		logger.String(logger.FieldRequestID, requestID),
		logger.Int64(logger.FieldDuration, time.Since(start).Milliseconds()),
	)
	return nil
}

// Get invokes the endpoint with GET.
func (d *Dispatcher) Get(ctx context.Context, endpointID string, out any, opts CallOptions) error {
	opts.Method = http.MethodGet
	return d.Invoke(ctx, endpointID, opts, out)
}

// Delete invokes the endpoint with DELETE.
func (d *Dispatcher) Delete(ctx context.Context, endpointID string, out any, opts CallOptions) error {
	opts.Method = http.MethodDelete
	return d.Invoke(ctx, endpointID, opts, out)
}

// Post sends payload as JSON with POST. A Content-Type in opts.Headers wins
// over the default application/json.
func (d *Dispatcher) Post(ctx context.Context, endpointID string, payload, out any, opts CallOptions) error {
	return d.sendJSON(ctx, http.MethodPost, endpointID, payload, out, opts)
}

// Put sends payload as JSON with PUT.
func (d *Dispatcher) Put(ctx context.Context, endpointID string, payload, out any, opts CallOptions) error {
	return d.sendJSON(ctx, http.MethodPut, endpointID, payload, out, opts)
}

func (d *Dispatcher) sendJSON(ctx context.Context, method, endpointID string, payload, out any, opts CallOptions) error {
	body, err := json.Marshal(payload)
	if err != nil {
		perr := failure.NewParseError(fmt.Sprintf("Failed to encode request body: %v", err), "request body", err)
		d.metrics.Failure(endpointID, perr.Kind().String())
		d.log.Error(perr.Error(), logger.String(logger.FieldEndpointID, endpointID))
		return perr
	}

	opts.Method = method
	opts.Body = strings.NewReader(string(body))
	opts.defaults = map[string]string{"Content-Type": "application/json"}
	return d.Invoke(ctx, endpointID, opts, out)
}

// InvokeJSON is Invoke returning the decoded payload.
func InvokeJSON[T any](ctx context.Context, d *Dispatcher, endpointID string, opts CallOptions) (T, error) {
	var out T
	err := d.Invoke(ctx, endpointID, opts, &out)
	return out, err
}

// classifyTransportError reports a timeout only when the per-call deadline
// fired while the caller's context was still live.
func (d *Dispatcher) classifyTransportError(ctx, callCtx context.Context, ep models.Endpoint, err error) failure.Failure {
	if cerr := ctx.Err(); cerr != nil {
		return failure.NewNetworkError(fmt.Sprintf("Request to %s failed", ep.Name), cerr.Error(), err)
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return failure.NewNetworkError(
			fmt.Sprintf("Request to %s exceeded %dms", ep.Name, d.timeout.Milliseconds()),
			failure.TimeoutDetail,
			err,
		)
	}

	detail := err.Error()
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		detail = uerr.Err.Error()
	}
	return failure.NewNetworkError(fmt.Sprintf("Request to %s failed", ep.Name), detail, err)
}

func (d *Dispatcher) fail(ep models.Endpoint, f failure.Failure, fields ...zap.Field) error {
	d.metrics.Failure(ep.Name, f.Kind().String())
	fields = append(fields, logger.String(logger.FieldEndpoint, ep.Name), logger.String(logger.FieldEndpointID, ep.ID))
	d.log.Error(f.Error(), fields...)
	return f
}

// mergeHeaders layers header maps in order; later layers win. Keys are
// canonicalised so differently cased names collide.
func mergeHeaders(layers ...map[string]string) http.Header {
	h := make(http.Header)
	for _, layer := range layers {
		for k, v := range layer {
			h.Set(k, v)
		}
	}
	return h
}

func decodeBody(body io.Reader, out any) error {
	if out == nil {
		_, err := io.Copy(io.Discard, body)
		return err
	}
	dec := json.NewDecoder(body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			// empty body, nothing to decode
			return nil
		}
		return err
	}
	// the body must hold exactly one JSON value
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after JSON value")
		}
		return err
	}
	return nil
}

func statusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
