package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"github.com/emersion/go-mbox"
	"github.com/spf13/afero"
	"github.com/wagoodman/go-partybus"
	"github.com/wagoodman/go-progress"

	"github.com/kevensen/frtsdk/internal/bus"
	"github.com/kevensen/frtsdk/internal/file"
	"github.com/kevensen/frtsdk/internal/log"
	"github.com/kevensen/frtsdk/redteam/event"
	"github.com/kevensen/frtsdk/redteam/event/monitor"
	"github.com/kevensen/frtsdk/redteam/redteamerr"
)

var _ Connector = (*MailboxConnector)(nil)

// MailboxConnector reads an mbox archive. Remote archives are downloaded to a transient file first.
type MailboxConnector struct {
	Connector
	getter file.Getter
	fs     afero.Fs
}

// NewMailboxConnector builds the connector for an mbox archive location.
func NewMailboxConnector(location string, cfg Config) (*MailboxConnector, error) {
	inner, err := NewConnector(location, cfg)
	if err != nil {
		return nil, err
	}

	m := &MailboxConnector{Connector: inner, fs: cfg.fs()}
	if h, ok := inner.(*HTTPConnector); ok {
		m.getter = file.NewGetter(cfg.UserAgent, h.Client(), file.WithBasicAuth(cfg.Username, cfg.Password))
	}
	return m, nil
}

// NewMailbox is like New but reads the location as an mbox archive.
func NewMailbox(location string, cfg Config) (*Resource, error) {
	conn, err := NewMailboxConnector(location, cfg)
	if err != nil {
		return nil, err
	}
	return newResource(conn, cfg), nil
}

func (m *MailboxConnector) Open(ctx context.Context) ([]byte, error) {
	if m.getter == nil {
		return m.Connector.Open(ctx)
	}
	return m.download(ctx)
}

func (m *MailboxConnector) download(ctx context.Context) (_ []byte, err error) {
	dir, err := os.MkdirTemp("", "redteam-mbox-")
	if err != nil {
		return nil, fmt.Errorf("unable to create transient directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.WithFields("dir", dir).Warnf("unable to remove transient mailbox: %v", err)
		}
	}()

	received := progress.NewManual(-1)
	bus.Publish(partybus.Event{
		Type:  event.DownloadStarted,
		Value: monitor.Download{Location: m.Location(), Progress: received},
	})
	defer func() {
		if err != nil {
			received.SetError(err)
		}
		received.SetCompleted()
	}()

	dst := filepath.Join(dir, "archive.mbox")
	if err := m.getter.GetFile(ctx, dst, m.Location(), received); err != nil {
		return nil, redteamerr.NewFetchError(m.Location(), err)
	}

	payload, err := os.ReadFile(dst)
	if err != nil {
		return nil, redteamerr.NewFetchError(m.Location(), err)
	}

	// archives not named *.gz are not inflated by the getter
	if isGzip(payload) {
		if payload, err = gunzip(payload); err != nil {
			return nil, redteamerr.NewFetchError(m.Location(), err)
		}
	}
	return payload, nil
}

// Message is a single email from an mbox archive.
type Message struct {
	ID      string
	Date    string
	Subject string
	Body    string
}

// ReadMessages splits an mbox stream into messages. Messages whose headers cannot be parsed are skipped.
func ReadMessages(r io.Reader) ([]Message, error) {
	var (
		messages []Message
		decoder  = new(mime.WordDecoder)
		reader   = mbox.NewReader(r)
	)

	for {
		mr, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return messages, fmt.Errorf("unable to read mailbox: %w", err)
		}

		msg, err := mail.ReadMessage(mr)
		if err != nil {
			log.Debugf("skipping unparseable mailbox entry: %v", err)
			continue
		}

		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return messages, fmt.Errorf("unable to read message body: %w", err)
		}

		subject := msg.Header.Get("Subject")
		if decoded, err := decoder.DecodeHeader(subject); err == nil {
			subject = decoded
		}

		messages = append(messages, Message{
			ID:      strings.TrimSpace(msg.Header.Get("Message-Id")),
			Date:    strings.TrimSpace(msg.Header.Get("Date")),
			Subject: strings.TrimSpace(subject),
			Body:    string(body),
		})
	}

	return messages, nil
}
