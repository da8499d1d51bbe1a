package notify

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"time"

	"alcyxob/gym-routines/internal/platform/logger"
	"alcyxob/gym-routines/internal/repository"

	"github.com/resend/resend-go/v2"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SendRequest contains the data needed to send an email via an external provider.
type SendRequest struct {
	To      []string
	From    string
	Subject string
	HTML    string
}

// Sender is the interface for sending emails via an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (messageID string, err error)
}

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendSender) Send(ctx context.Context, req SendRequest) (string, error) {
	from := req.From
	if from == "" {
		from = s.from
	}
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    from,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("resend send failed: %w", err)
	}
	return sent.Id, nil
}

// mdRenderer converts the markdown message body to HTML. Raw HTML in the
// input is escaped because WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// EmailNotifier e-mails the member, looking the address up in the user directory.
type EmailNotifier struct {
	log     *logger.Logger
	users   repository.UserRepository
	sender  Sender
	subject string
}

func NewEmailNotifier(log *logger.Logger, users repository.UserRepository, sender Sender) *EmailNotifier {
	return &EmailNotifier{
		log:     log.With("service", "EmailNotifier"),
		users:   users,
		sender:  sender,
		subject: "Your new workout routine is ready",
	}
}

func (n *EmailNotifier) Notify(ctx context.Context, memberID, routineID primitive.ObjectID, message string) error {
	member, err := n.users.GetByID(ctx, memberID)
	if err != nil {
		return fmt.Errorf("lookup member %s: %w", memberID.Hex(), err)
	}
	if member.Email == "" {
		return fmt.Errorf("member %s has no e-mail address", memberID.Hex())
	}

	start := time.Now()
	id, err := n.sender.Send(ctx, SendRequest{
		To:      []string{member.Email},
		Subject: n.subject,
		HTML:    renderBody(member.Name, message),
	})
	if err != nil {
		return err
	}
	n.log.Info("notification e-mailed", "routine_id", routineID.Hex(), "message_id", id, "took", time.Since(start))
	return nil
}

func renderBody(name, message string) string {
	md := message
	if name != "" {
		md = fmt.Sprintf("Hi %s,\n\n%s", name, message)
	}
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return "<p>" + html.EscapeString(md) + "</p>"
	}
	return buf.String()
}
