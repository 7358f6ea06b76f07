package model

// Draft is an outgoing message composed in the client.
type Draft struct {
	MailboxID string   `json:"mailboxId"`
	To        []string `json:"to"`
	Cc        []string `json:"cc,omitempty"`
	Bcc       []string `json:"bcc,omitempty"`
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
	BodyHTML  string   `json:"bodyHtml,omitempty"`
	InReplyTo string   `json:"inReplyTo,omitempty"`
	ThreadID  string   `json:"threadId,omitempty"`
}

// User is the authenticated account owner.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
