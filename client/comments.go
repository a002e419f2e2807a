package client

import (
	"context"
	"fmt"
)

type commentBody struct {
	Body string `json:"body"`
}

func (c *Client) CreateComment(ctx context.Context, owner, repo string, number int, body string) (*IssueComment, error) {
	var comment IssueComment
	if err := c.post(ctx, fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, number), commentBody{Body: body}, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) UpdateComment(ctx context.Context, owner, repo string, commentID int64, body string) (*IssueComment, error) {
	var comment IssueComment
	if err := c.patch(ctx, fmt.Sprintf("/repos/%s/%s/issues/comments/%d", owner, repo, commentID), commentBody{Body: body}, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) DeleteComment(ctx context.Context, owner, repo string, commentID int64) error {
	return c.delete(ctx, fmt.Sprintf("/repos/%s/%s/issues/comments/%d", owner, repo, commentID))
}

func (c *Client) GetComment(ctx context.Context, owner, repo string, commentID int64) (*IssueComment, error) {
	var comment IssueComment
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/issues/comments/%d", owner, repo, commentID), &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}
