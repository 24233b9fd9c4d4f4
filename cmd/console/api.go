package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/cyber-quest/internal/handlers"
)

type ErrorResponse = handlers.ErrorResponse

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// do sends a request and decodes the body into out when the status
// matches want.
func do(client *http.Client, method, url string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		var errorResp ErrorResponse
		if err := json.Unmarshal(data, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func createSession(client *http.Client, baseURL string, req handlers.CreateSessionRequest) (*handlers.SessionView, error) {
	var v handlers.SessionView
	if err := do(client, http.MethodPost, baseURL+"/v1/sessions", req, http.StatusCreated, &v); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &v, nil
}

func getSession(client *http.Client, baseURL string, id uuid.UUID) (*handlers.SessionView, error) {
	var v handlers.SessionView
	if err := do(client, http.MethodGet, fmt.Sprintf("%s/v1/sessions/%s", baseURL, id), nil, http.StatusOK, &v); err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &v, nil
}

func playTurn(client *http.Client, baseURL string, id uuid.UUID, option int) (*handlers.TurnResponse, error) {
	var tr handlers.TurnResponse
	body := handlers.TurnRequest{Option: &option}
	if err := do(client, http.MethodPost, fmt.Sprintf("%s/v1/sessions/%s/turn", baseURL, id), body, http.StatusOK, &tr); err != nil {
		return nil, fmt.Errorf("turn failed: %w", err)
	}
	return &tr, nil
}

func getRankings(client *http.Client, baseURL string, limit int) ([]handlers.RankingRow, error) {
	var rr handlers.RankingResponse
	if err := do(client, http.MethodGet, fmt.Sprintf("%s/v1/rankings?limit=%d", baseURL, limit), nil, http.StatusOK, &rr); err != nil {
		return nil, fmt.Errorf("failed to get rankings: %w", err)
	}
	return rr.Entries, nil
}
