package dispatcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Alwanly/service-endpoint-dispatch/internal/models"
	"github.com/Alwanly/service-endpoint-dispatch/internal/registry"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/failure"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/logger"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/metrics"
)

type transportFunc func(*http.Request) (*http.Response, error)

func (f transportFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func setup(t *testing.T, ep models.Endpoint, transport Transport, timeout time.Duration, opts ...Option) (*Dispatcher, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.New(zap.New(core))

	reg := registry.New(logger.NewNop())
	if ep.ID != "" {
		if err := reg.Add(ep); err != nil {
			t.Fatalf("failed to register endpoint: %v", err)
		}
	}
	return New(reg, transport, log, Config{Timeout: timeout}, opts...), logs
}

func usersEndpoint(url string) models.Endpoint {
	return models.Endpoint{
		ID:      "users",
		Name:    "Users API",
		URL:     url,
		Method:  http.MethodGet,
		Headers: map[string]string{"Accept": "application/json", "X-Api-Key": "descriptor"},
	}
}

func TestInvokeUnknownEndpointSkipsTransport(t *testing.T) {
	var calls int32
	transport := transportFunc(func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return jsonResponse(http.StatusOK, `{}`), nil
	})
	d, logs := setup(t, models.Endpoint{}, transport, time.Second)

	err := d.Invoke(context.Background(), "missing", CallOptions{}, nil)

	var apiErr *failure.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T %v", err, err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", apiErr.Status)
	}
	if got := err.Error(); got != "API Error 404: Endpoint missing not found" {
		t.Fatalf("unexpected rendering: %q", got)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected no transport call, got %d", calls)
	}
	if n := logs.FilterLevelExact(zapcore.ErrorLevel).FilterMessage(err.Error()).Len(); n != 1 {
		t.Fatalf("expected one error log, got %d", n)
	}
}

func TestInvokeSuccessDecodesPayload(t *testing.T) {
	var gotHeader http.Header
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":"x"}`))
	}))
	defer srv.Close()

	d, logs := setup(t, usersEndpoint(srv.URL), srv.Client(), time.Second,
		WithRequestIDFunc(func() string { return "req-1" }))

	var out struct {
		Data string `json:"data"`
	}
	if err := d.Invoke(context.Background(), "users", CallOptions{}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Data != "x" {
		t.Fatalf("expected payload x, got %q", out.Data)
	}
	if gotMethod != http.MethodGet {
		t.Fatalf("expected GET, got %s", gotMethod)
	}
	if gotHeader.Get("X-Api-Key") != "descriptor" || gotHeader.Get("Accept") != "application/json" {
		t.Fatalf("descriptor headers not sent: %v", gotHeader)
	}
	if gotHeader.Get(HeaderRequestID) != "req-1" {
		t.Fatalf("expected generated request id, got %q", gotHeader.Get(HeaderRequestID))
	}

	succeeded := logs.FilterMessage("endpoint request succeeded").All()
	if len(succeeded) != 1 {
		t.Fatalf("expected exactly one success log, got %d", len(succeeded))
	}
	if succeeded[0].ContextMap()[logger.FieldEndpoint] != "Users API" {
		t.Fatalf("expected success log to name the endpoint, got %v", succeeded[0].ContextMap())
	}
	if n := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); n != 0 {
		t.Fatalf("expected no error logs, got %d", n)
	}
}

func TestInvokePropagatesInboundRequestID(t *testing.T) {
	var got string
	transport := transportFunc(func(req *http.Request) (*http.Response, error) {
		got = req.Header.Get(HeaderRequestID)
		return jsonResponse(http.StatusOK, `{}`), nil
	})
	d, _ := setup(t, usersEndpoint("http://users.local"), transport, time.Second,
		WithRequestIDFunc(func() string { return "generated" }))

	ctx := logger.WithCorrelationID(context.Background(), "inbound-7")
	if err := d.Invoke(ctx, "users", CallOptions{}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "inbound-7" {
		t.Fatalf("expected inbound request id, got %q", got)
	}

	if err := d.Invoke(ctx, "users", CallOptions{Headers: map[string]string{HeaderRequestID: "caller"}}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "caller" {
		t.Fatalf("expected caller request id to win, got %q", got)
	}
}

func TestInvokeJSONReturnsTypedPayload(t *testing.T) {
	transport := transportFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"data":"x"}`), nil
	})
	d, _ := setup(t, usersEndpoint("http://users.example.com"), transport, time.Second)

	out, err := InvokeJSON[map[string]string](context.Background(), d, "users", CallOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["data"] != "x" {
		t.Fatalf("unexpected payload: %v", out)
	}
}

func TestInvokeNon2xxReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	d, logs := setup(t, usersEndpoint(srv.URL), srv.Client(), time.Second)

	err := d.Invoke(context.Background(), "users", CallOptions{}, nil)

	var apiErr *failure.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected APIError 404, got %v", err)
	}
	if got := failure.Render(apiErr); got != "API Error 404: API request failed: Not Found" {
		t.Fatalf("unexpected rendering: %q", got)
	}

	entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	if len(entries) != 1 {
		t.Fatalf("expected one error log, got %d", len(entries))
	}
	if entries[0].Message != "API Error 404: API request failed: Not Found" {
		t.Fatalf("unexpected log message: %q", entries[0].Message)
	}
	if entries[0].ContextMap()[logger.FieldStatus] != int64(http.StatusNotFound) {
		t.Fatalf("expected status metadata, got %v", entries[0].ContextMap())
	}
}

func TestInvokeNon2xxKeepsUpstreamRequestID(t *testing.T) {
	transport := transportFunc(func(*http.Request) (*http.Response, error) {
		resp := jsonResponse(http.StatusBadGateway, `{}`)
		resp.Status = "502 Bad Gateway"
		resp.Header.Set(HeaderRequestID, "upstream-7")
		return resp, nil
	})
	d, _ := setup(t, usersEndpoint("http://users.example.com"), transport, time.Second)

	err := d.Invoke(context.Background(), "users", CallOptions{}, nil)
	if got := err.Error(); got != "API Error 502: API request failed: Bad Gateway (Request ID: upstream-7)" {
		t.Fatalf("unexpected rendering: %q", got)
	}
	if !failure.IsTransient(err) {
		t.Fatalf("expected 502 to be transient")
	}
}

func TestInvokeTransportErrorReturnsNetworkError(t *testing.T) {
	transport := transportFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection reset by peer")
	})
	d, logs := setup(t, usersEndpoint("http://users.example.com"), transport, time.Second)

	err := d.Invoke(context.Background(), "users", CallOptions{}, nil)

	var netErr *failure.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %T %v", err, err)
	}
	if netErr.Detail != "connection reset by peer" {
		t.Fatalf("expected transport message as detail, got %q", netErr.Detail)
	}
	if netErr.Timeout() {
		t.Fatalf("generic transport failure classified as timeout")
	}

	entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	if len(entries) != 1 || entries[0].ContextMap()[logger.FieldEndpoint] != "Users API" {
		t.Fatalf("expected one error log naming the endpoint, got %v", entries)
	}
}

func TestInvokeUnwrapsURLErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	d, _ := setup(t, usersEndpoint(url), http.DefaultClient, time.Second)

	err := d.Invoke(context.Background(), "users", CallOptions{}, nil)

	var netErr *failure.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if strings.HasPrefix(netErr.Detail, "Get ") {
		t.Fatalf("expected url.Error to be unwrapped, got %q", netErr.Detail)
	}
}

func TestInvokeTimeout(t *testing.T) {
	transport := transportFunc(func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})
	d, logs := setup(t, usersEndpoint("http://users.example.com"), transport, 20*time.Millisecond)

	start := time.Now()
	err := d.Invoke(context.Background(), "users", CallOptions{}, nil)

	if !failure.IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
	var netErr *failure.NetworkError
	if !errors.As(err, &netErr) || netErr.Detail != failure.TimeoutDetail {
		t.Fatalf("expected timeout detail, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("timeout took too long: %v", elapsed)
	}
	if n := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); n != 1 {
		t.Fatalf("expected one error log, got %d", n)
	}
}

func TestInvokeCallerCancelIsNotTimeout(t *testing.T) {
	transport := transportFunc(func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})
	d, _ := setup(t, usersEndpoint("http://users.example.com"), transport, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Invoke(ctx, "users", CallOptions{}, nil)
	if failure.KindOf(err) != failure.KindNetwork {
		t.Fatalf("expected network failure, got %v", err)
	}
	if failure.IsTimeout(err) {
		t.Fatalf("caller cancellation classified as timeout")
	}
}

func TestInvokeCallerDeadlineIsNotTimeout(t *testing.T) {
	transport := transportFunc(func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})
	d, _ := setup(t, usersEndpoint("http://users.example.com"), transport, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := d.Invoke(ctx, "users", CallOptions{}, nil)

	var nerr *failure.NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected network failure, got %v", err)
	}
	if failure.IsTimeout(err) || nerr.Detail == failure.TimeoutDetail {
		t.Fatalf("caller deadline classified as the dispatcher timeout: %v", err)
	}
	if nerr.Detail != context.DeadlineExceeded.Error() {
		t.Fatalf("expected caller context error as detail, got %q", nerr.Detail)
	}
	if failure.HTTPStatus(err) == http.StatusGatewayTimeout {
		t.Fatalf("caller deadline must not map to 504")
	}
}

func TestInvokeReleasesDeadlineOnReturn(t *testing.T) {
	var reqCtx context.Context
	transport := transportFunc(func(req *http.Request) (*http.Response, error) {
		reqCtx = req.Context()
		return jsonResponse(http.StatusOK, `{}`), nil
	})
	d, _ := setup(t, usersEndpoint("http://users.example.com"), transport, time.Minute)

	if err := d.Invoke(context.Background(), "users", CallOptions{}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(reqCtx.Err(), context.Canceled) {
		t.Fatalf("expected per-call deadline to be released, got %v", reqCtx.Err())
	}
}

func TestInvokeInvalidJSONReturnsParseError(t *testing.T) {
	transport := transportFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `not json`), nil
	})
	d, logs := setup(t, usersEndpoint("http://users.example.com"), transport, time.Second)

	var out map[string]any
	err := d.Invoke(context.Background(), "users", CallOptions{}, &out)

	var perr *failure.ParseError
	if !errors.As(err, &perr) || perr.Source != "Users API" {
		t.Fatalf("expected ParseError from Users API, got %v", err)
	}
	if n := logs.FilterMessage("endpoint request succeeded").Len(); n != 0 {
		t.Fatalf("expected no success log, got %d", n)
	}
}

func TestInvokeTrailingDataReturnsParseError(t *testing.T) {
	transport := transportFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"data":"x"} not json`), nil
	})
	d, logs := setup(t, usersEndpoint("http://users.example.com"), transport, time.Second)

	var out map[string]any
	err := d.Invoke(context.Background(), "users", CallOptions{}, &out)

	var perr *failure.ParseError
	if !errors.As(err, &perr) || perr.Source != "Users API" {
		t.Fatalf("expected ParseError from Users API, got %v", err)
	}
	if n := logs.FilterMessage("endpoint request succeeded").Len(); n != 0 {
		t.Fatalf("expected no success log, got %d", n)
	}

	transport = transportFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, "{\"data\":\"x\"}\n"), nil
	})
	d, _ = setup(t, usersEndpoint("http://users.example.com"), transport, time.Second)
	if err := d.Invoke(context.Background(), "users", CallOptions{}, &out); err != nil {
		t.Fatalf("trailing whitespace must be accepted: %v", err)
	}
}

func TestInvokeEmptyBodyDecodesNothing(t *testing.T) {
	transport := transportFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNoContent, ``), nil
	})
	d, _ := setup(t, usersEndpoint("http://users.example.com"), transport, time.Second)

	var out map[string]any
	if err := d.Invoke(context.Background(), "users", CallOptions{}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nothing decoded, got %v", out)
	}
}

func TestInvokeCallerOverrides(t *testing.T) {
	var got *http.Request
	transport := transportFunc(func(req *http.Request) (*http.Response, error) {
		got = req
		return jsonResponse(http.StatusOK, `{}`), nil
	})
	d, _ := setup(t, usersEndpoint("http://users.example.com"), transport, time.Second)

	err := d.Invoke(context.Background(), "users", CallOptions{
		Method:  "patch",
		Headers: map[string]string{"x-api-key": "caller", HeaderRequestID: "caller-id"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Method != http.MethodPatch {
		t.Fatalf("expected PATCH, got %s", got.Method)
	}
	if v := got.Header.Values("X-Api-Key"); len(v) != 1 || v[0] != "caller" {
		t.Fatalf("expected caller header to win, got %v", v)
	}
	if got.Header.Get(HeaderRequestID) != "caller-id" {
		t.Fatalf("expected caller request id to be kept, got %q", got.Header.Get(HeaderRequestID))
	}
}

func TestPostInjectsJSONContentType(t *testing.T) {
	var gotMethod, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	ep := usersEndpoint(srv.URL)
	ep.Headers["Content-Type"] = "text/plain"
	d, _ := setup(t, ep, srv.Client(), time.Second)

	if err := d.Post(context.Background(), "users", map[string]string{"name": "alice"}, nil, CallOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("expected POST, got %s", gotMethod)
	}
	if gotType != "application/json" {
		t.Fatalf("expected JSON content type over descriptor value, got %q", gotType)
	}
	if gotBody != `{"name":"alice"}` {
		t.Fatalf("unexpected body: %q", gotBody)
	}
}

func TestPutCallerContentTypeWins(t *testing.T) {
	var got *http.Request
	transport := transportFunc(func(req *http.Request) (*http.Response, error) {
		got = req
		return jsonResponse(http.StatusOK, `{}`), nil
	})
	d, _ := setup(t, usersEndpoint("http://users.example.com"), transport, time.Second)

	err := d.Put(context.Background(), "users", map[string]int{"n": 1}, nil, CallOptions{
		Headers: map[string]string{"content-type": "application/merge-patch+json"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Method != http.MethodPut {
		t.Fatalf("expected PUT, got %s", got.Method)
	}
	if v := got.Header.Values("Content-Type"); len(v) != 1 || v[0] != "application/merge-patch+json" {
		t.Fatalf("expected caller content type to win, got %v", v)
	}
}

func TestPostUnencodablePayloadReturnsParseError(t *testing.T) {
	var calls int32
	transport := transportFunc(func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return jsonResponse(http.StatusOK, `{}`), nil
	})
	d, _ := setup(t, usersEndpoint("http://users.example.com"), transport, time.Second)

	err := d.Post(context.Background(), "users", make(chan int), nil, CallOptions{})
	if failure.KindOf(err) != failure.KindParse {
		t.Fatalf("expected parse failure, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no transport call")
	}
}

func TestGetAndDeleteFixMethod(t *testing.T) {
	var methods []string
	transport := transportFunc(func(req *http.Request) (*http.Response, error) {
		methods = append(methods, req.Method)
		return jsonResponse(http.StatusOK, `{}`), nil
	})
	ep := usersEndpoint("http://users.example.com")
	ep.Method = http.MethodPost
	d, _ := setup(t, ep, transport, time.Second)

	_ = d.Get(context.Background(), "users", nil, CallOptions{Method: http.MethodPut})
	_ = d.Delete(context.Background(), "users", nil, CallOptions{})

	if len(methods) != 2 || methods[0] != http.MethodGet || methods[1] != http.MethodDelete {
		t.Fatalf("unexpected methods: %v", methods)
	}
}

func TestInvokeRecordsMetrics(t *testing.T) {
	transport := transportFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusInternalServerError, `{}`), nil
	})
	reg := prometheus.NewRegistry()
	d, _ := setup(t, usersEndpoint("http://users.example.com"), transport, time.Second,
		WithMetrics(metrics.NewCollector(reg)))

	_ = d.Invoke(context.Background(), "users", CallOptions{}, nil)

	n, err := testutil.GatherAndCount(reg, "dispatch_failures_total", "dispatch_requests_total")
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected one failure series and one request series, got %d", n)
	}
}

func TestNewAppliesDefaultTimeout(t *testing.T) {
	d := New(registry.New(logger.NewNop()), nil, logger.NewNop(), Config{})
	if d.Timeout() != DefaultTimeout {
		t.Fatalf("expected default timeout, got %v", d.Timeout())
	}
}
