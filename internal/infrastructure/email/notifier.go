package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"InstrumentsMonitor/internal/domain"
	"InstrumentsMonitor/internal/ports"
)

// Config wires SMTP credentials and recipients.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	Attach   bool
}

// SendFunc matches smtp.SendMail, which upgrades to STARTTLS when offered.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Notifier delivers the report by email.
type Notifier struct {
	cfg  Config
	send SendFunc
	now  func() time.Time
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier uses smtp.SendMail; send may be replaced in tests via WithSender.
func NewNotifier(cfg Config) *Notifier {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &Notifier{cfg: cfg, send: smtp.SendMail, now: time.Now}
}

// WithSender swaps the transport.
func (n *Notifier) WithSender(send SendFunc) *Notifier {
	n.send = send
	return n
}

// Name identifies the channel in logs.
func (n *Notifier) Name() string {
	return "email"
}

// Publish sends msg as multipart text/HTML with optional attachments.
func (n *Notifier) Publish(ctx context.Context, msg domain.Message) error {
	if n.cfg.Host == "" || n.cfg.From == "" || len(n.cfg.To) == 0 || n.send == nil {
		return fmt.Errorf("email: %w", domain.ErrNotifierMisconfigured)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var attachments []string
	if n.cfg.Attach {
		attachments = msg.Attachments
	}

	body, err := BuildMessage(n.cfg.From, n.cfg.To, msg, attachments, n.now())
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	port := n.cfg.Port
	if port == 0 {
		port = 587
	}
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(port))

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	if err := n.send(addr, auth, n.cfg.From, n.cfg.To, body); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// SplitRecipients parses a comma separated list such as "a@a.com,b@b.com".
func SplitRecipients(raw string) []string {
	var out []string
	for _, r := range strings.Split(raw, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// BuildMessage renders an RFC 5322 message. Attachments that do not exist are skipped.
func BuildMessage(from string, to []string, msg domain.Message, attachments []string, date time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mixed := multipart.NewWriter(&buf)

	header := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}
	header("From", from)
	header("To", strings.Join(to, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", date.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", "multipart/mixed; boundary="+mixed.Boundary())
	buf.WriteString("\r\n")

	altHeader := textproto.MIMEHeader{}
	var altBody bytes.Buffer
	alt := multipart.NewWriter(&altBody)
	altHeader.Set("Content-Type", "multipart/alternative; boundary="+alt.Boundary())
	if err := writeText(alt, "text/plain", msg.Text); err != nil {
		return nil, err
	}
	if msg.HTML != "" {
		if err := writeText(alt, "text/html", msg.HTML); err != nil {
			return nil, err
		}
	}
	if err := alt.Close(); err != nil {
		return nil, err
	}

	part, err := mixed.CreatePart(altHeader)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(altBody.Bytes()); err != nil {
		return nil, err
	}

	for _, path := range attachments {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read attachment %s: %w", path, err)
		}
		if err := writeAttachment(mixed, filepath.Base(path), data); err != nil {
			return nil, err
		}
	}

	if err := mixed.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeText(w *multipart.Writer, contentType, text string) error {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType+"; charset=utf-8")
	h.Set("Content-Transfer-Encoding", "base64")
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	return writeBase64(part, []byte(text))
}

func writeAttachment(w *multipart.Writer, name string, data []byte) error {
	ctype := mime.TypeByExtension(filepath.Ext(name))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", ctype)
	h.Set("Content-Transfer-Encoding", "base64")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	return writeBase64(part, data)
}

func writeBase64(w interface{ Write([]byte) (int, error) }, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		if _, err := fmt.Fprintf(w, "%s\r\n", encoded[:76]); err != nil {
			return err
		}
		encoded = encoded[76:]
	}
	_, err := fmt.Fprintf(w, "%s\r\n", encoded)
	return err
}
