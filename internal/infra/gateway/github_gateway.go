package gateway

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gamewiki/issuestore/client"
	"github.com/gamewiki/issuestore/internal/domain"
	"github.com/gamewiki/issuestore/internal/infra/cache"
	"github.com/gamewiki/issuestore/internal/usecase"
)

var tracer = otel.Tracer("gateway")

// GitHubGateway stores tickets as issues of a single repository.
type GitHubGateway struct {
	client *client.Client
	owner  string
	repo   string
	cache  cache.Cache
}

var _ usecase.TicketGateway = (*GitHubGateway)(nil)

// NewGitHubGateway returns a gateway for owner/repo. Comment bodies are
// cached in c; pass cache.Noop{} to disable.
func NewGitHubGateway(cl *client.Client, owner, repo string, c cache.Cache) *GitHubGateway {
	if c == nil {
		c = cache.Noop{}
	}
	return &GitHubGateway{
		client: cl,
		owner:  owner,
		repo:   repo,
		cache:  c,
	}
}

func commentCacheKey(id int64) string {
	return "comment:" + strconv.FormatInt(id, 10)
}

func translate(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	if client.IsNotFound(err) {
		return domain.NotFoundError{Resource: resource}
	}
	return domain.TransportError{Op: op, Err: err}
}

func toTicket(issue *client.Issue) domain.Ticket {
	return domain.Ticket{
		Number: issue.Number,
		Title:  issue.Title,
		Body:   issue.Body,
		Labels: issue.LabelNames(),
		State:  issue.State,
		Locked: issue.Locked,
	}
}

func (g *GitHubGateway) ListByLabels(ctx context.Context, labels []string) ([]domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "Gateway.GitHub.ListByLabels")
	defer span.End()
	span.SetAttributes(attribute.StringSlice("labels", labels))

	issues, err := g.client.ListIssues(ctx, g.owner, g.repo, client.ListIssuesOptions{
		Labels: labels,
		State:  "all",
	})
	if err != nil {
		span.RecordError(err)
		return nil, domain.TransportError{Op: "list tickets", Err: err}
	}

	tickets := make([]domain.Ticket, 0, len(issues))
	for i := range issues {
		tickets = append(tickets, toTicket(&issues[i]))
	}
	return tickets, nil
}

func (g *GitHubGateway) CreateTicket(ctx context.Context, title, body string, labels []string) (domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "Gateway.GitHub.CreateTicket")
	defer span.End()

	issue, err := g.client.CreateIssue(ctx, g.owner, g.repo, client.CreateIssueRequest{
		Title:  title,
		Body:   body,
		Labels: labels,
	})
	if err != nil {
		span.RecordError(err)
		return domain.Ticket{}, domain.TransportError{Op: "create ticket", Err: err}
	}
	span.SetAttributes(attribute.Int("ticket", issue.Number))
	return toTicket(issue), nil
}

func (g *GitHubGateway) UpdateTicket(ctx context.Context, number int, patch domain.TicketPatch) (domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "Gateway.GitHub.UpdateTicket")
	defer span.End()
	span.SetAttributes(attribute.Int("ticket", number))

	issue, err := g.client.UpdateIssue(ctx, g.owner, g.repo, number, client.UpdateIssueRequest{
		Title: patch.Title,
		Body:  patch.Body,
	})
	if err != nil {
		span.RecordError(err)
		return domain.Ticket{}, translate("update ticket", fmt.Sprintf("ticket #%d", number), err)
	}
	return toTicket(issue), nil
}

func (g *GitHubGateway) AddLabel(ctx context.Context, number int, label string) error {
	ctx, span := tracer.Start(ctx, "Gateway.GitHub.AddLabel")
	defer span.End()
	span.SetAttributes(attribute.Int("ticket", number), attribute.String("label", label))

	err := g.client.AddLabels(ctx, g.owner, g.repo, number, []string{label})
	if err != nil {
		span.RecordError(err)
	}
	return translate("add label", fmt.Sprintf("ticket #%d", number), err)
}

func (g *GitHubGateway) LockTicket(ctx context.Context, number int) error {
	ctx, span := tracer.Start(ctx, "Gateway.GitHub.LockTicket")
	defer span.End()
	span.SetAttributes(attribute.Int("ticket", number))

	err := g.client.LockIssue(ctx, g.owner, g.repo, number)
	if err != nil {
		span.RecordError(err)
	}
	return translate("lock ticket", fmt.Sprintf("ticket #%d", number), err)
}

func (g *GitHubGateway) CreateComment(ctx context.Context, number int, body string) (domain.Comment, error) {
	ctx, span := tracer.Start(ctx, "Gateway.GitHub.CreateComment")
	defer span.End()
	span.SetAttributes(attribute.Int("ticket", number))

	comment, err := g.client.CreateComment(ctx, g.owner, g.repo, number, body)
	if err != nil {
		span.RecordError(err)
		return domain.Comment{}, translate("create comment", fmt.Sprintf("ticket #%d", number), err)
	}
	g.cache.Set(ctx, commentCacheKey(comment.ID), comment.Body)
	return domain.Comment{ID: comment.ID, Body: comment.Body}, nil
}

func (g *GitHubGateway) UpdateComment(ctx context.Context, commentID int64, body string) (domain.Comment, error) {
	ctx, span := tracer.Start(ctx, "Gateway.GitHub.UpdateComment")
	defer span.End()
	span.SetAttributes(attribute.Int64("comment", commentID))

	comment, err := g.client.UpdateComment(ctx, g.owner, g.repo, commentID, body)
	if err != nil {
		span.RecordError(err)
		g.cache.Delete(ctx, commentCacheKey(commentID))
		return domain.Comment{}, translate("update comment", fmt.Sprintf("comment %d", commentID), err)
	}
	g.cache.Set(ctx, commentCacheKey(commentID), comment.Body)
	return domain.Comment{ID: comment.ID, Body: comment.Body}, nil
}

func (g *GitHubGateway) DeleteComment(ctx context.Context, commentID int64) error {
	ctx, span := tracer.Start(ctx, "Gateway.GitHub.DeleteComment")
	defer span.End()
	span.SetAttributes(attribute.Int64("comment", commentID))

	g.cache.Delete(ctx, commentCacheKey(commentID))
	err := g.client.DeleteComment(ctx, g.owner, g.repo, commentID)
	if err != nil {
		span.RecordError(err)
	}
	return translate("delete comment", fmt.Sprintf("comment %d", commentID), err)
}

func (g *GitHubGateway) GetComment(ctx context.Context, commentID int64) (domain.Comment, error) {
	ctx, span := tracer.Start(ctx, "Gateway.GitHub.GetComment")
	defer span.End()
	span.SetAttributes(attribute.Int64("comment", commentID))

	key := commentCacheKey(commentID)
	if !domain.FreshReads(ctx) {
		if body, found := g.cache.Get(ctx, key); found {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return domain.Comment{ID: commentID, Body: body}, nil
		}
	}

	comment, err := g.client.GetComment(ctx, g.owner, g.repo, commentID)
	if err != nil {
		span.RecordError(err)
		if client.IsNotFound(err) {
			g.cache.Delete(ctx, key)
		}
		return domain.Comment{}, translate("get comment", fmt.Sprintf("comment %d", commentID), err)
	}
	g.cache.Set(ctx, key, comment.Body)
	return domain.Comment{ID: comment.ID, Body: comment.Body}, nil
}
