package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const defaultPerPage = 100

// ListIssues returns every issue in the repository carrying all of
// opts.Labels. Pull requests are dropped.
func (c *Client) ListIssues(ctx context.Context, owner, repo string, opts ListIssuesOptions) ([]Issue, error) {
	query := url.Values{}
	if len(opts.Labels) > 0 {
		query.Set("labels", strings.Join(opts.Labels, ","))
	}
	state := opts.State
	if state == "" {
		state = "all"
	}
	query.Set("state", state)
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	query.Set("per_page", strconv.Itoa(perPage))

	path := fmt.Sprintf("/repos/%s/%s/issues?%s", owner, repo, query.Encode())
	all, err := list[Issue](ctx, c, path)
	if err != nil {
		return nil, err
	}

	issues := make([]Issue, 0, len(all))
	for _, issue := range all {
		if issue.PullRequest != nil {
			continue
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

func (c *Client) CreateIssue(ctx context.Context, owner, repo string, request CreateIssueRequest) (*Issue, error) {
	var issue Issue
	if err := c.post(ctx, fmt.Sprintf("/repos/%s/%s/issues", owner, repo), request, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

func (c *Client) UpdateIssue(ctx context.Context, owner, repo string, number int, request UpdateIssueRequest) (*Issue, error) {
	var issue Issue
	if err := c.patch(ctx, fmt.Sprintf("/repos/%s/%s/issues/%d", owner, repo, number), request, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

func (c *Client) AddLabels(ctx context.Context, owner, repo string, number int, labels []string) error {
	body := struct {
		Labels []string `json:"labels"`
	}{Labels: labels}
	var result []Label
	return c.post(ctx, fmt.Sprintf("/repos/%s/%s/issues/%d/labels", owner, repo, number), body, &result)
}

// LockIssue locks the conversation so only collaborators can comment.
func (c *Client) LockIssue(ctx context.Context, owner, repo string, number int) error {
	body := struct {
		LockReason string `json:"lock_reason"`
	}{LockReason: "resolved"}
	return c.put(ctx, fmt.Sprintf("/repos/%s/%s/issues/%d/lock", owner, repo, number), body)
}
