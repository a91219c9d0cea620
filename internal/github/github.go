package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dshills/lyon/internal/anchor"
	"github.com/dshills/lyon/internal/diff"
)

const defaultAPIURL = "https://api.github.com"

const (
	acceptJSON = "application/vnd.github.v3+json"
	acceptDiff = "application/vnd.github.v3.diff"
)

// Client provides access to the GitHub REST API.
type Client struct {
	token   string
	apiURL  string
	httpCli *http.Client
	backoff time.Duration
}

// NewClient creates a new GitHub client. Requires GITHUB_TOKEN env var.
// apiURL overrides GITHUB_API_URL and the public endpoint when non-empty.
func NewClient(apiURL string) (*Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable is not set")
	}

	if apiURL == "" {
		apiURL = os.Getenv("GITHUB_API_URL")
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	return &Client{
		token:   token,
		apiURL:  strings.TrimRight(apiURL, "/"),
		httpCli: &http.Client{Timeout: 60 * time.Second},
		backoff: time.Second,
	}, nil
}

// do performs one API call, retrying rate-limited responses. It returns the
// body of a 2xx response; any other status becomes an error.
func (c *Client) do(ctx context.Context, method, path, accept string, payload []byte) ([]byte, int, error) {
	var body []byte
	var status int

	err := retryWithBackoff(ctx, maxRetries, c.backoff, func() error {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, rd)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", accept)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpCli.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		status = resp.StatusCode

		switch {
		case status == http.StatusTooManyRequests,
			status == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
			return &rateLimitError{retryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
		case status == http.StatusUnauthorized, status == http.StatusForbidden:
			return &authError{message: string(body)}
		case status < 200 || status >= 300:
			return &statusError{code: status, body: string(body)}
		}
		return nil
	})
	return body, status, err
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GitHub API error (status %d): %s", e.code, e.body)
}

func statusOf(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	return 0
}

// GetPRDiff fetches the diff for a pull request.
func (c *Client) GetPRDiff(ctx context.Context, owner, repo string, prNumber int) (string, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, prNumber)
	body, _, err := c.do(ctx, http.MethodGet, path, acceptDiff, nil)
	if statusOf(err) == http.StatusNotFound {
		return "", fmt.Errorf("PR #%d not found in %s/%s", prNumber, owner, repo)
	}
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// PullRequest is the PR metadata used to build a review prompt.
type PullRequest struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Author  string `json:"author"`
	HeadSHA string `json:"headSha"`
	HeadRef string `json:"headRef"`
	BaseRef string `json:"baseRef"`
}

type apiPullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	User   struct {
		Login string `json:"login"`
	} `json:"user"`
	Head struct {
		SHA string `json:"sha"`
		Ref string `json:"ref"`
	} `json:"head"`
	Base struct {
		Ref string `json:"ref"`
	} `json:"base"`
}

// GetPR fetches title, description and refs of a pull request.
func (c *Client) GetPR(ctx context.Context, owner, repo string, prNumber int) (PullRequest, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, prNumber)
	body, _, err := c.do(ctx, http.MethodGet, path, acceptJSON, nil)
	if statusOf(err) == http.StatusNotFound {
		return PullRequest{}, fmt.Errorf("PR #%d not found in %s/%s", prNumber, owner, repo)
	}
	if err != nil {
		return PullRequest{}, err
	}

	var pr apiPullRequest
	if err := json.Unmarshal(body, &pr); err != nil {
		return PullRequest{}, fmt.Errorf("parsing response: %w", err)
	}
	return PullRequest{
		Number:  pr.Number,
		Title:   pr.Title,
		Body:    pr.Body,
		Author:  pr.User.Login,
		HeadSHA: pr.Head.SHA,
		HeadRef: pr.Head.Ref,
		BaseRef: pr.Base.Ref,
	}, nil
}

// PRComment is an existing inline review comment on a pull request.
type PRComment struct {
	ID   int64
	Path string
	Line int
	Side diff.Side
	Body string
	User string
}

// Anchor places the comment on its diff line.
func (c PRComment) Anchor() anchor.Position {
	return anchor.Position{Path: c.Path, Line: c.Line, Side: c.Side}
}

type apiReviewComment struct {
	ID           int64  `json:"id"`
	Path         string `json:"path"`
	Line         *int   `json:"line"`
	OriginalLine *int   `json:"original_line"`
	Side         string `json:"side"`
	Body         string `json:"body"`
	User         struct {
		Login string `json:"login"`
	} `json:"user"`
}

const commentsPerPage = 100

// ListReviewComments fetches every inline review comment on a pull request.
// Outdated comments keep their original line so they surface as orphans.
func (c *Client) ListReviewComments(ctx context.Context, owner, repo string, prNumber int) ([]PRComment, error) {
	var out []PRComment
	for page := 1; ; page++ {
		path := fmt.Sprintf("/repos/%s/%s/pulls/%d/comments?per_page=%d&page=%d", owner, repo, prNumber, commentsPerPage, page)
		body, _, err := c.do(ctx, http.MethodGet, path, acceptJSON, nil)
		if err != nil {
			return nil, fmt.Errorf("listing review comments: %w", err)
		}

		var batch []apiReviewComment
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}
		for _, rc := range batch {
			out = append(out, toPRComment(rc))
		}
		if len(batch) < commentsPerPage {
			return out, nil
		}
	}
}

func toPRComment(rc apiReviewComment) PRComment {
	line := 0
	switch {
	case rc.Line != nil:
		line = *rc.Line
	case rc.OriginalLine != nil:
		line = *rc.OriginalLine
	}
	side := diff.SideRight
	if strings.EqualFold(rc.Side, string(diff.SideLeft)) {
		side = diff.SideLeft
	}
	return PRComment{
		ID:   rc.ID,
		Path: rc.Path,
		Line: line,
		Side: side,
		Body: rc.Body,
		User: rc.User.Login,
	}
}

// ReviewComment represents an inline comment on a PR review.
type ReviewComment struct {
	Path string    `json:"path"`
	Line int       `json:"line"`
	Side diff.Side `json:"side,omitempty"`
	Body string    `json:"body"`
}

// ReviewRequest represents a PR review to post.
type ReviewRequest struct {
	CommitID string          `json:"commit_id,omitempty"`
	Body     string          `json:"body"`
	Event    string          `json:"event"`
	Comments []ReviewComment `json:"comments"`
}

// PostReview posts a pull request review with inline comments.
func (c *Client) PostReview(ctx context.Context, owner, repo string, prNumber int, review ReviewRequest) error {
	payload, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("marshaling review: %w", err)
	}

	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/reviews", owner, repo, prNumber)
	_, _, err = c.do(ctx, http.MethodPost, path, acceptJSON, payload)
	if statusOf(err) == http.StatusUnprocessableEntity {
		var se *statusError
		errors.As(err, &se)
		return fmt.Errorf("GitHub rejected review (422): %s", se.body)
	}
	if err != nil {
		return fmt.Errorf("posting review: %w", err)
	}
	return nil
}
