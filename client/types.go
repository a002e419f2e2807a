package client

type Label struct {
	Name string `json:"name"`
}

type User struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

type Issue struct {
	Number int     `json:"number"`
	Title  string  `json:"title"`
	Body   string  `json:"body"`
	State  string  `json:"state"`
	Locked bool    `json:"locked"`
	Labels []Label `json:"labels"`
	User   *User   `json:"user,omitempty"`

	// PullRequest is set when the issue is a pull request; the issues
	// listing endpoint returns both.
	PullRequest *struct{} `json:"pull_request,omitempty"`
}

func (i Issue) LabelNames() []string {
	names := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		names = append(names, l.Name)
	}
	return names
}

type IssueComment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
	User *User  `json:"user,omitempty"`
}

type ListIssuesOptions struct {
	Labels  []string
	State   string
	PerPage int
}

type CreateIssueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

// UpdateIssueRequest only sends the fields that are set.
type UpdateIssueRequest struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
}
