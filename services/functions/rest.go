// Package funcsvc invokes remote (serverless) functions over HTTP.
package funcsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/elimu/core"
)

var ErrNotConfigured = errors.New("remote functions are not configured")

type restInvoker struct {
	baseURL string
	key     string
	timeout time.Duration
	client  *rest.Client
}

var _ core.FunctionInvoker = (*restInvoker)(nil)

// NewRestInvoker POSTs JSON payloads to <functions.baseURL>/<name>, authenticated with the functions key.
func NewRestInvoker(conf *core.Config) core.FunctionInvoker {
	return &restInvoker{
		baseURL: strings.TrimRight(conf.Functions.BaseURL, "/"),
		key:     conf.Functions.Key,
		timeout: conf.Functions.Timeout,
		client:  &rest.Client{HTTPClient: &http.Client{}},
	}
}

func (inv *restInvoker) Invoke(ctx context.Context, name string, payload interface{}, result interface{}) error {
	if inv.baseURL == "" {
		return ErrNotConfigured
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encoding payload")
	}

	req := rest.Request{
		Method:  rest.Post,
		BaseURL: inv.baseURL + "/" + name,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
		Body: body,
	}
	if inv.key != "" {
		req.Headers["Authorization"] = "Bearer " + inv.key
	}

	if inv.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.timeout)
		defer cancel()
	}
	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	httpRes, err := inv.client.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return errors.Wrapf(err, "invoking function %s", name)
	}
	res, err := rest.BuildResponse(httpRes)
	if err != nil {
		return errors.Wrapf(err, "reading function %s response", name)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("function %s failed - status: %d - body: %s", name, res.StatusCode, res.Body)
	}

	if result == nil || strings.TrimSpace(res.Body) == "" {
		return nil
	}
	return errors.Wrap(json.Unmarshal([]byte(res.Body), result), "decoding function result")
}
