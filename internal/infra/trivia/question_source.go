package trivia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"quiz-session-service/internal/domain"
)

// Client fetches question sets from a remote trivia API:
// GET {base}/questions?tier={tier} returning a JSON array of questions.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type apiQuestion struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
}

// LoadQuestions requests the question set for a tier. Any non-success
// response or network failure is surfaced as an error; the caller owns
// retry policy (there is none here).
func (c *Client) LoadQuestions(ctx context.Context, tier domain.Tier) ([]domain.Question, error) {
	endpoint := fmt.Sprintf("%s/questions?tier=%s", c.baseURL, url.QueryEscape(string(tier)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build questions request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrQuestionSetNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch questions: unexpected status %d", resp.StatusCode)
	}

	var raw []apiQuestion
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}

	questions := make([]domain.Question, 0, len(raw))
	for _, q := range raw {
		questions = append(questions, domain.Question{
			ID:           q.ID,
			Tier:         tier,
			Prompt:       q.Prompt,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
			Explanation:  q.Explanation,
		})
	}
	return questions, nil
}
