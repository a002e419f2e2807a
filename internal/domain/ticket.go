package domain

// Ticket is an issue used purely as a document container.
type Ticket struct {
	Number int      `json:"number"`
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels"`
	State  string   `json:"state"`
	Locked bool     `json:"locked"`
}

// Comment is an individually addressable document attached to a ticket.
type Comment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
}

// TicketPatch carries the optional fields of an update. Nil fields are left unchanged.
type TicketPatch struct {
	Title *string
	Body  *string
}
