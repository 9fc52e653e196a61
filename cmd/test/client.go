package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type TestClient struct {
	baseURL string
	client  *http.Client
}

func NewTestClient(baseURL string, timeout time.Duration) *TestClient {
	return &TestClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// call sends body as JSON (when non-nil) and returns the status, headers
// and raw response body.
func (tc *TestClient) call(method, path string, body any) (int, http.Header, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, nil, err
		}
		reader = bytes.NewReader(data)
	}

	url := tc.baseURL + path
	fmt.Printf("%s %s\n", method, url)

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return 0, nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	return resp.StatusCode, resp.Header, data, err
}

// expect calls path and reports whether it answered with want.
func (tc *TestClient) expect(method, path string, body any, want int) ([]byte, http.Header, bool) {
	status, header, data, err := tc.call(method, path, body)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return nil, nil, false
	}
	if status != want {
		printError(fmt.Sprintf("Expected status %d, got %d", want, status))
		fmt.Printf("Response: %s\n", string(data))
		return data, header, false
	}
	return data, header, true
}
