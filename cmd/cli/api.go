package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/and161185/task-manager/internal/convert"
)

// apiError is a non-2xx answer from the server.
type apiError struct {
	Status int
	Detail string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Detail)
}

type apiClient struct {
	base  string
	token string
	hc    *http.Client
}

func loadTLS(caPath string, insecure bool) (*tls.Config, error) {
	if insecure {
		return &tls.Config{InsecureSkipVerify: true}, nil //nolint:gosec // dev only, opt-in flag
	}
	if caPath == "" {
		return nil, nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return &tls.Config{RootCAs: pool}, nil
}

func newAPIClient(base, caPath string, insecure bool, bearer string) (*apiClient, error) {
	tlsCfg, err := loadTLS(caPath, insecure)
	if err != nil {
		return nil, err
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if tlsCfg != nil {
		tr.TLSClientConfig = tlsCfg
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &apiClient{
		base:  strings.TrimRight(base, "/"),
		token: bearer,
		hc:    &http.Client{Transport: tr, Timeout: 30 * time.Second},
	}, nil
}

// call sends in as JSON (when non-nil) and decodes the answer into out (when non-nil).
func (c *apiClient) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er convert.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Detail == "" {
			er.Detail = http.StatusText(resp.StatusCode)
		}
		return &apiError{Status: resp.StatusCode, Detail: er.Detail}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) register(ctx context.Context, username, password string) (convert.UserResponse, error) {
	var out convert.UserResponse
	err := c.call(ctx, http.MethodPost, "/api/register", credentials(username, password), &out)
	return out, err
}

func (c *apiClient) login(ctx context.Context, username, password string) (convert.TokenResponse, error) {
	var out convert.TokenResponse
	err := c.call(ctx, http.MethodPost, "/api/login", credentials(username, password), &out)
	return out, err
}

func (c *apiClient) listTasks(ctx context.Context) ([]convert.TaskResponse, error) {
	var out []convert.TaskResponse
	err := c.call(ctx, http.MethodGet, "/api/tasks", nil, &out)
	return out, err
}

func (c *apiClient) createTask(ctx context.Context, in convert.TaskRequest) (convert.TaskResponse, error) {
	var out convert.TaskResponse
	err := c.call(ctx, http.MethodPost, "/api/tasks", in, &out)
	return out, err
}

func (c *apiClient) getTask(ctx context.Context, id string) (convert.TaskResponse, error) {
	var out convert.TaskResponse
	err := c.call(ctx, http.MethodGet, "/api/tasks/"+id, nil, &out)
	return out, err
}

func (c *apiClient) replaceTask(ctx context.Context, id string, in convert.TaskRequest) (convert.MessageResponse, error) {
	var out convert.MessageResponse
	err := c.call(ctx, http.MethodPut, "/api/tasks/"+id, in, &out)
	return out, err
}

func (c *apiClient) deleteTask(ctx context.Context, id string) (convert.MessageResponse, error) {
	var out convert.MessageResponse
	err := c.call(ctx, http.MethodDelete, "/api/tasks/"+id, nil, &out)
	return out, err
}

func credentials(username, password string) convert.CredentialsRequest {
	return convert.CredentialsRequest{Username: &username, Password: &password}
}
