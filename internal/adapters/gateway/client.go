// Package gateway is the HTTP adapter for the external customs portal
// (CEISA). It exposes a narrow client interface so services can be tested
// against mocks, mirroring how evidence clients are modelled elsewhere in
// the codebase.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
)

// FetchFilter carries the caller-supplied filter parameters for one fetch.
// TaxpayerID and OfficeCode are mandatory; SubmissionNo narrows the result.
type FetchFilter struct {
	SubmissionNo string
	TaxpayerID   string
	OfficeCode   string
}

// Document is one declaration payload returned by the portal.
type Document struct {
	NomorAju       string                 `json:"nomorAju"`
	RegistrationNo string                 `json:"nomorPendaftaran"`
	DocumentType   domain.DocumentType    `json:"jenisDokumen"`
	Status         domain.MessageStatus   `json:"status"`
	Errors         []domain.ResponseError `json:"errors,omitempty"`
	RawPayload     string                 `json:"rawPayload"`
}

// TransmitResult is the portal's answer to one outbound transmission.
type TransmitResult struct {
	Accepted   bool                   `json:"accepted"`
	NomorAju   string                 `json:"nomorAju"`
	Errors     []domain.ResponseError `json:"errors,omitempty"`
	RawPayload string                 `json:"rawPayload"`
}

// Error is the portal error envelope: HTTP status plus a portal error code.
type Error struct {
	HTTPStatus int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway error %s (http %d): %s", e.Code, e.HTTPStatus, e.Message)
}

// Trace captures one raw exchange with the portal for diagnostics. Purely
// observational; recording a trace never affects control flow.
type Trace struct {
	Endpoint    string        `json:"endpoint"`
	HTTPStatus  int           `json:"httpStatus"`
	Elapsed     time.Duration `json:"elapsed"`
	Params      url.Values    `json:"params"`
	RawResponse string        `json:"rawResponse"`
	At          time.Time     `json:"at"`
}

// TraceRecorder receives traces of portal exchanges when diagnostics are on.
type TraceRecorder interface {
	RecordTrace(docType domain.DocumentType, trace Trace)
}

// Client is the interface the sync layer talks to the portal through.
type Client interface {
	// FetchDocuments queries the portal for declarations matching the
	// filter. An empty result is not an error.
	FetchDocuments(ctx context.Context, docType domain.DocumentType, filter FetchFilter) ([]Document, error)
	// Transmit sends one declaration XML payload to the portal.
	Transmit(ctx context.Context, docType domain.DocumentType, payload string) (*TransmitResult, error)
	// Ping probes portal connectivity.
	Ping(ctx context.Context) error
}

// HTTPClient is the production Client backed by net/http.
type HTTPClient struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	recorder TraceRecorder // nil disables trace capture
}

// NewHTTPClient creates a portal client. The timeout bounds every call
// (default contract: 30s, configured by the caller).
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, recorder TraceRecorder) *HTTPClient {
	return &HTTPClient{
		baseURL:  baseURL,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		recorder: recorder,
	}
}

var _ Client = (*HTTPClient)(nil)

// SetTraceRecorder late-binds the diagnostics recorder. The sync layer owns
// the recorder but is constructed after the client.
func (c *HTTPClient) SetTraceRecorder(recorder TraceRecorder) {
	c.recorder = recorder
}

type fetchEnvelope struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	Code    string     `json:"code"`
	Data    []Document `json:"data"`
}

// FetchDocuments calls GET /api/v1/documents/{type} with the filter as query
// parameters and decodes the portal envelope.
func (c *HTTPClient) FetchDocuments(ctx context.Context, docType domain.DocumentType, filter FetchFilter) ([]Document, error) {
	params := url.Values{}
	params.Set("npwp", filter.TaxpayerID)
	params.Set("kodeKantor", filter.OfficeCode)
	if filter.SubmissionNo != "" {
		params.Set("nomorAju", filter.SubmissionNo)
	}

	endpoint := fmt.Sprintf("%s/api/v1/documents/%s", c.baseURL, docType)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build fetch request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.record(docType, Trace{Endpoint: endpoint, Elapsed: elapsed, Params: params, At: start})
		return nil, fmt.Errorf("portal fetch failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read portal response: %w", err)
	}

	c.record(docType, Trace{
		Endpoint:    endpoint,
		HTTPStatus:  resp.StatusCode,
		Elapsed:     elapsed,
		Params:      params,
		RawResponse: string(body),
		At:          start,
	})

	var envelope fetchEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode portal response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{HTTPStatus: resp.StatusCode, Code: envelope.Code, Message: envelope.Message}
	}

	return envelope.Data, nil
}

type transmitEnvelope struct {
	Status   string                 `json:"status"`
	NomorAju string                 `json:"nomorAju"`
	Code     string                 `json:"code"`
	Message  string                 `json:"message"`
	Errors   []domain.ResponseError `json:"errors"`
}

// Transmit posts one declaration payload to the portal.
func (c *HTTPClient) Transmit(ctx context.Context, docType domain.DocumentType, payload string) (*TransmitResult, error) {
	endpoint := fmt.Sprintf("%s/api/v1/documents/%s", c.baseURL, docType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build transmit request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("portal transmit failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read portal response: %w", err)
	}

	var envelope transmitEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode portal response: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &Error{HTTPStatus: resp.StatusCode, Code: envelope.Code, Message: envelope.Message}
	}

	return &TransmitResult{
		Accepted:   envelope.Status == "ACCEPTED",
		NomorAju:   envelope.NomorAju,
		Errors:     envelope.Errors,
		RawPayload: string(body),
	}, nil
}

// Ping probes the portal health endpoint.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("portal unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Error{HTTPStatus: resp.StatusCode, Message: "portal health check failed"}
	}
	return nil
}

func (c *HTTPClient) record(docType domain.DocumentType, trace Trace) {
	if c.recorder != nil {
		c.recorder.RecordTrace(docType, trace)
	}
}
