package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"route-planner-service/internal/platform/obs"
	"route-planner-service/internal/services"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.dify.ai/v1"

// Reasoning models emit the intent JSON inside the chat answer, often
// wrapped in a markdown code fence.
var codeFence = regexp.MustCompile("^\\s*```(?:json|JSON)?\\s*")

// DifyClient implements ReasoningProvider against a Dify-style
// chat-messages endpoint. The application behind the endpoint is
// configured to answer with the structured intent schema; this client
// only unwraps the chat envelope and never retries (retry policy lives
// in the orchestrator).
type DifyClient struct {
	session *http.Client
	apiKey  string
	baseURL string
}

func NewDifyClient(apiKey, baseURL string, timeout time.Duration) (*DifyClient, error) {
	if apiKey == "" {
		return nil, errors.New("dify api key is empty")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &DifyClient{
		session: &http.Client{Timeout: timeout},
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

type chatRequest struct {
	Inputs         map[string]any `json:"inputs"`
	Query          string         `json:"query"`
	ResponseMode   string         `json:"response_mode"`
	User           string         `json:"user"`
	ConversationID *string        `json:"conversation_id"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

// ExtractIntent sends one blocking chat request and returns the answer
// payload with any surrounding code fence stripped. Responses that do not
// carry an answer are parse failures, not crashes.
func (c *DifyClient) ExtractIntent(ctx context.Context, query string, userID string) (_ []byte, err error) {
	defer obs.Time(ctx, "dify.ExtractIntent")(&err)

	payload, err := json.Marshal(chatRequest{
		Inputs:       map[string]any{},
		Query:        query,
		ResponseMode: "blocking",
		User:         userID,
	})
	if err != nil {
		return nil, fmt.Errorf("dify extract intent: marshal request: %w", err)
	}

	endpoint := c.baseURL + "/chat-messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("dify extract intent: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.session.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dify extract intent: %w",
			services.Unavailable("reasoning service unreachable", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("dify extract intent: %w",
			services.Unavailable(
				fmt.Sprintf("reasoning service returned status %d", resp.StatusCode),
				fmt.Errorf("response body: %s", strings.TrimSpace(string(body)))))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("dify extract intent: %w",
			services.ParseFailure("reasoning response envelope is not valid JSON"))
	}

	if strings.TrimSpace(decoded.Answer) == "" {
		return nil, fmt.Errorf("dify extract intent: %w",
			services.ParseFailure("reasoning response has no answer field"))
	}

	cleaned := codeFence.ReplaceAllString(decoded.Answer, "")
	cleaned = strings.TrimRight(strings.TrimSpace(cleaned), "`")

	return []byte(cleaned), nil
}
