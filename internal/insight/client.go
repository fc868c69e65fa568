// Package insight talks to the external text-insight service over its
// line-oriented protocol: one JSON request line out, one JSON reply line
// back, one connection per call.
//
// The client never returns an error. Every failure mode is folded into a
// tagged Result so callers branch on structure instead of matching message
// prefixes.
package insight

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"ledger/internal/core"
)

const (
	DefaultHost    = "localhost"
	DefaultPort    = 5000
	DefaultTimeout = 30 * time.Second
)

// Status tags the outcome of one insight exchange.
type Status int

const (
	StatusOK Status = iota
	StatusUnavailable
	StatusTimeout
	StatusEmptyResponse
	StatusInvalidFormat
	StatusError
)

// Result carries the service's reply on success, or a descriptive failure
// message otherwise.
type Result struct {
	Status Status
	Text   string
}

// OK reports whether the exchange produced a usable prediction.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Client issues one-shot request/response exchanges. It holds no connection
// and no mutable state, so concurrent calls are safe; each call dials, does
// one round trip under the read timeout, and closes.
type Client struct {
	host    string
	port    int
	timeout time.Duration
	dialer  net.Dialer
}

// NewClient builds a client for the given endpoint. Zero values fall back to
// localhost:5000 with a 30 second read timeout.
func NewClient(host string, port int, timeout time.Duration) *Client {
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{host: host, port: port, timeout: timeout}
}

type insightRequest struct {
	Description string `json:"description"`
}

type insightResponse struct {
	Prediction *string `json:"prediction"`
}

// AnalyzeRecords builds the analysis prompt from the records and runs one
// exchange. An empty record set still sends a request; the prompt just says
// there is nothing to analyze.
func (c *Client) AnalyzeRecords(ctx context.Context, records []core.Record) Result {
	return c.Analyze(ctx, BuildPrompt(records))
}

// Analyze sends the prompt and returns the service's single-line reply.
func (c *Client) Analyze(ctx context.Context, prompt string) Result {
	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))

	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Result{
			Status: StatusUnavailable,
			Text:   fmt.Sprintf("insight service unavailable: cannot connect to %s", addr),
		}
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return c.failure(err)
	}

	body, err := json.Marshal(insightRequest{Description: prompt})
	if err != nil {
		return c.failure(err)
	}
	if _, err := conn.Write(append(body, '\n')); err != nil {
		return c.failure(err)
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return c.failure(err)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return Result{
			Status: StatusEmptyResponse,
			Text:   "insight service returned an empty response",
		}
	}

	var resp insightResponse
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return c.failure(err)
	}
	if resp.Prediction == nil {
		return Result{
			Status: StatusInvalidFormat,
			Text:   "insight service returned an invalid response format",
		}
	}

	return Result{Status: StatusOK, Text: *resp.Prediction}
}

// failure maps an I/O or parse error to its tagged result. Timeouts get
// their own status; everything else becomes a generic service error carrying
// the underlying error text.
func (c *Client) failure(err error) Result {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Result{
			Status: StatusTimeout,
			Text:   "insight service timeout: request took too long",
		}
	}
	return Result{
		Status: StatusError,
		Text:   fmt.Sprintf("insight service error: %v", err),
	}
}

// BuildPrompt concatenates one line per record plus the three fixed
// analysis instructions.
func BuildPrompt(records []core.Record) string {
	if len(records) == 0 {
		return "There are no expenses to analyze."
	}

	var b strings.Builder
	b.WriteString("You are a business expense analyst. Here are the expenses to analyze:\n\n")
	for _, r := range records {
		fmt.Fprintf(&b, "- %s: $%s (%s)\n", r.Description, r.Amount.StringFixed(2), r.CategoryName)
	}
	b.WriteString("\nAnalyze these expenses and provide:\n")
	b.WriteString("1. A brief summary of spending patterns\n")
	b.WriteString("2. The highest spending category\n")
	b.WriteString("3. 2-3 specific cost optimization suggestions\n")
	b.WriteString("\nFormat your response clearly and be concise.")
	return b.String()
}
