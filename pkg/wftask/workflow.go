package wftask

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	// DefaultTimeout matches the request timeout of the plugin host the bridge
	// replaces.
	DefaultTimeout = 120 * time.Second

	DefaultUser = "line-bridge"

	InputMessageText = "messageText"
	OutputField      = "output"

	ResponseModeBlocking = "blocking"

	TextCodeWorkflowFailed = "WORKFLOW_FAILED"
)

type Request struct {
	AppID       string
	MessageText string
	User        string
}

type Result struct {
	WorkflowRunID string     `json:"workflow_run_id"`
	TaskID        string     `json:"task_id"`
	Data          ResultData `json:"data"`
}

type ResultData struct {
	ID          string         `json:"id"`
	WorkflowID  string         `json:"workflow_id"`
	Status      string         `json:"status"`
	Outputs     map[string]any `json:"outputs"`
	Error       *string        `json:"error"`
	ElapsedTime float64        `json:"elapsed_time"`
	TotalTokens int64          `json:"total_tokens"`
}

// Output returns the "output" field of the run, or "" when it is missing or
// not a string.
func (r *Result) Output() string {
	if r == nil || r.Data.Outputs == nil {
		return ""
	}
	s, _ := r.Data.Outputs[OutputField].(string)
	return s
}

// EngineError returns the engine-reported error, if any. It does not make
// the invocation fail.
func (r *Result) EngineError() string {
	if r == nil || r.Data.Error == nil {
		return ""
	}
	return *r.Data.Error
}

// Invoker runs a workflow synchronously.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (*Result, error)
}

type Config struct {
	Endpoint   string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     glog.Logger
}

type Client struct {
	endpoint   string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	logger     glog.Logger
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		endpoint:   strings.TrimSpace(cfg.Endpoint),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		timeout:    timeout,
		httpClient: httpClient,
		logger:     glog.Ensure(cfg.Logger),
	}
}

type runRequest struct {
	AppID        string         `json:"app_id"`
	Inputs       map[string]any `json:"inputs"`
	ResponseMode string         `json:"response_mode"`
	User         string         `json:"user"`
}

func (c *Client) Invoke(ctx context.Context, req Request) (*Result, error) {
	if c.endpoint == "" {
		return nil, workflowError(nil, "wftask: workflow endpoint is required", 0, nil)
	}
	user := strings.TrimSpace(req.User)
	if user == "" {
		user = DefaultUser
	}
	payload, err := json.Marshal(runRequest{
		AppID:        req.AppID,
		Inputs:       map[string]any{InputMessageText: req.MessageText},
		ResponseMode: ResponseModeBlocking,
		User:         user,
	})
	if err != nil {
		return nil, workflowError(err, "wftask: encode run request", 0, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, workflowError(err, "wftask: build run request", 0, nil)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, workflowError(err, "wftask: run workflow", 0, map[string]any{"app_id": req.AppID})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, workflowError(err, "wftask: read run response", resp.StatusCode, nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, workflowError(nil, fmt.Sprintf("wftask: workflow returned status %d", resp.StatusCode), resp.StatusCode, map[string]any{
			"app_id": req.AppID,
			"body":   truncate(string(body), 512),
		})
	}

	result := &Result{}
	if err := json.Unmarshal(body, result); err != nil {
		return nil, workflowError(err, "wftask: decode run response", resp.StatusCode, nil)
	}
	c.logger.Debug("workflow finished",
		"app_id", req.AppID,
		"workflow_run_id", result.WorkflowRunID,
		"status", result.Data.Status,
		"duration", time.Since(started).String(),
	)
	return result, nil
}

func workflowError(source error, message string, status int, metadata map[string]any) error {
	code := status
	if code == 0 {
		code = http.StatusBadGateway
	}
	var err *goerrors.Error
	if source == nil {
		err = goerrors.New(message, goerrors.CategoryExternal)
	} else {
		err = goerrors.Wrap(source, goerrors.CategoryExternal, message)
	}
	err = err.WithCode(code).WithTextCode(TextCodeWorkflowFailed)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
