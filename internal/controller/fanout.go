package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/wvlab/carla-orchestrator/internal/log"
)

// DefaultTimeout bounds every individual HTTP call made to an agent.
const DefaultTimeout = 5 * time.Second

// maxWorkers caps the fan-out pool, matching the original ThreadPoolExecutor
// sizing: never more workers than clients, and never more than 32.
const maxWorkers = 32

var fanoutLogger = log.New(os.Stdout, "controller")

// Result is one client's outcome from a fanned-out call.
type Result struct {
	Client Client
	OK     bool
	Body   []byte
	Err    error
}

// JSON unmarshals Body into v. Callers should check OK before calling this.
func (r Result) JSON(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// call is the shape every fan-out primitive specializes: build a request
// for a single client and execute it.
type call func(c Client) Result

// FanOut runs fn for every client in clients concurrently, bounded by
// min(32, len(clients)) workers, and returns one Result per client in
// unspecified order (callers that need a stable order should sort by
// Result.Client.Name).
func FanOut(clients []Client, fn call) []Result {
	if len(clients) == 0 {
		return nil
	}

	workers := len(clients)
	if workers > maxWorkers {
		workers = maxWorkers
	}

	jobs := make(chan Client, len(clients))
	for _, c := range clients {
		jobs <- c
	}
	close(jobs)

	results := make([]Result, len(clients))
	var idx int32
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				r := fn(c)
				mu.Lock()
				results[idx] = r
				idx++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return results
}

func authHeader(req *http.Request, token string) {
	if token == "" || token == defaultToken {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

// PostJSON POSTs payload as a JSON body to path on every client.
func PostJSON(clients []Client, token, path string, payload interface{}) []Result {
	body, err := json.Marshal(payload)
	if err != nil {
		fanoutLogger.Errorf("marshal payload; error: %v", err)
		return nil
	}

	return FanOut(clients, func(c Client) Result {
		url := c.BaseURL() + path
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return Result{Client: c, Err: err}
		}
		req.Header.Set("Content-Type", "application/json")
		authHeader(req, token)
		return doRequest(c, req)
	})
}

// PostEmpty POSTs an empty body to path on every client, optionally suffixed
// by a query string (e.g. "?mode=tree_kill").
func PostEmpty(clients []Client, token, path string) []Result {
	return FanOut(clients, func(c Client) Result {
		url := c.BaseURL() + path
		req, err := http.NewRequest(http.MethodPost, url, nil)
		if err != nil {
			return Result{Client: c, Err: err}
		}
		authHeader(req, token)
		return doRequest(c, req)
	})
}

// Get issues a GET to path on every client.
func Get(clients []Client, token, path string) []Result {
	return FanOut(clients, func(c Client) Result {
		url := c.BaseURL() + path
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return Result{Client: c, Err: err}
		}
		authHeader(req, token)
		return doRequest(c, req)
	})
}

func doRequest(c Client, req *http.Request) Result {
	client := &http.Client{Timeout: DefaultTimeout}

	resp, err := client.Do(req)
	if err != nil {
		return Result{Client: c, OK: false, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Client: c, OK: false, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{
			Client: c,
			OK:     false,
			Body:   data,
			Err:    fmt.Errorf("%d %s", resp.StatusCode, string(data)),
		}
	}

	return Result{Client: c, OK: true, Body: data}
}
