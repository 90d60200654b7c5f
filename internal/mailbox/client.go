// Package mailbox is a read-only IMAP client for listing and fetching bank
// alert emails. It never deletes, moves, or flags messages: bodies are
// fetched with BODY.PEEK so even the \Seen flag is left untouched.
package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
)

// MessageRef identifies a candidate message without its body. Search
// returns refs only; bodies are fetched lazily one at a time.
type MessageRef struct {
	UID    uint32
	Sender string // the search sender that matched this message
}

// Message is a fetched message. BodyText is the text/plain part; BodyHTML
// is kept separately for callers that need to flatten HTML-only mail.
type Message struct {
	MessageID string
	Date      time.Time
	BodyText  string
	BodyHTML  string
}

// Session is an authenticated, INBOX-selected mailbox connection.
type Session interface {
	// Search lists messages from any of the given senders received since
	// the given date. Results are in no particular order.
	Search(ctx context.Context, senders []string, since time.Time) ([]MessageRef, error)
	// Fetch retrieves one message body and metadata.
	Fetch(ctx context.Context, ref MessageRef) (*Message, error)
	Close() error
}

// Dialer opens mailbox sessions.
type Dialer interface {
	Dial(ctx context.Context, server string, port int, username, password string) (Session, error)
}

// TLSDialer dials IMAP servers over TLS.
type TLSDialer struct {
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewTLSDialer creates a TLSDialer
func NewTLSDialer(timeout time.Duration, logger *slog.Logger) *TLSDialer {
	return &TLSDialer{
		Timeout: timeout,
		Logger:  logger.With("component", "mailbox"),
	}
}

// Dial connects, authenticates, and selects INBOX. Network failures come
// back as *ConnError (retryable), login rejections as *AuthError (fatal).
func (d *TLSDialer) Dial(ctx context.Context, server string, port int, username, password string) (Session, error) {
	addr := fmt.Sprintf("%s:%d", server, port)
	logger := d.Logger.With("server", addr)
	logger.Info("connecting to IMAP server")

	timeout := d.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, nil)
	if err != nil {
		return nil, &ConnError{Err: err}
	}

	imapClient, err := client.New(conn)
	if err != nil {
		conn.Close()
		return nil, &ConnError{Err: err}
	}

	if err := imapClient.Login(username, password); err != nil {
		imapClient.Logout()
		return nil, &AuthError{Err: err}
	}

	// Select INBOX read-only so the server will not mutate flags either.
	if _, err := imapClient.Select("INBOX", true); err != nil {
		imapClient.Logout()
		return nil, &ConnError{Err: fmt.Errorf("failed to select INBOX: %w", err)}
	}

	logger.Info("connected to IMAP server")
	return &imapSession{client: imapClient, server: server, logger: logger}, nil
}

type imapSession struct {
	client *client.Client
	server string
	logger *slog.Logger
}

func (s *imapSession) Search(ctx context.Context, senders []string, since time.Time) ([]MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[uint32]bool)
	var refs []MessageRef

	for _, sender := range senders {
		criteria := imap.NewSearchCriteria()
		// IMAP SINCE has day granularity; the truncation widens the window,
		// which the dedup store absorbs.
		criteria.Since = since.Truncate(24 * time.Hour)
		criteria.Header.Add("From", sender)

		uids, err := s.client.UidSearch(criteria)
		if err != nil {
			return nil, &ConnError{Err: fmt.Errorf("search for %s failed: %w", sender, err)}
		}
		s.logger.Debug("search completed", "sender", sender, "matches", len(uids))

		for _, uid := range uids {
			if seen[uid] {
				continue
			}
			seen[uid] = true
			refs = append(refs, MessageRef{UID: uid, Sender: sender})
		}
	}

	// Stable order for deterministic fetching; callers sort by message
	// date once bodies are fetched.
	sort.Slice(refs, func(i, j int) bool { return refs[i].UID < refs[j].UID })
	return refs, nil
}

func (s *imapSession) Fetch(ctx context.Context, ref MessageRef) (*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(ref.UID)

	// Peek keeps the read-only contract: no \Seen flag is set.
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqSet, items, messages)
	}()

	var fetched *imap.Message
	for msg := range messages {
		fetched = msg
	}
	if err := <-done; err != nil {
		return nil, &ConnError{Err: fmt.Errorf("fetch of uid %d failed: %w", ref.UID, err)}
	}
	if fetched == nil {
		return nil, fmt.Errorf("uid %d not found in mailbox", ref.UID)
	}

	return s.parseMessage(fetched, section), nil
}

// parseMessage extracts the message id, date, and text/HTML bodies
func (s *imapSession) parseMessage(msg *imap.Message, section *imap.BodySectionName) *Message {
	out := &Message{}

	if msg.Envelope != nil {
		out.Date = msg.Envelope.Date
		out.MessageID = msg.Envelope.MessageId
	}
	if out.MessageID == "" {
		// Some providers omit Message-ID; synthesise a stable identifier
		// so the dedup key is never empty.
		out.MessageID = fmt.Sprintf("uid:%d@%s", msg.Uid, s.server)
	}

	bodyReader := msg.GetBody(section)
	if bodyReader == nil {
		return out
	}

	mr, err := mail.CreateReader(bodyReader)
	if err != nil {
		s.logger.Warn("failed to create mail reader", "uid", msg.Uid, "error", err)
		return out
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.logger.Warn("failed to read part", "uid", msg.Uid, "error", err)
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			ct, _, _ := h.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}

			if strings.HasPrefix(ct, "text/html") && out.BodyHTML == "" {
				out.BodyHTML = string(body)
			} else if strings.HasPrefix(ct, "text/plain") && out.BodyText == "" {
				out.BodyText = string(body)
			}
		}
	}

	return out
}

func (s *imapSession) Close() error {
	return s.client.Logout()
}
