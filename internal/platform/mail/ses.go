package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/Teletobimy/landingpage-irunica/internal/platform/config"
)

const charsetUTF8 = "UTF-8"

var (
	// ErrNoRecipients is returned when a message has no To address.
	ErrNoRecipients = errors.New("mail: at least one recipient is required")
	// ErrNotConfigured is returned when no sender address is configured.
	ErrNotConfigured = errors.New("mail: sender address is not configured")
)

// Message is an outbound HTML e-mail with an optional plain-text alternative.
type Message struct {
	To      []string
	Bcc     []string
	ReplyTo []string
	Subject string
	HTML    string
	Text    string
}

// SESAPI is the subset of the SES client used by SESMailer.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESMailer delivers messages through Amazon SES.
type SESMailer struct {
	api  SESAPI
	from string
}

// NewSESMailer loads the default AWS credential chain for the configured region.
func NewSESMailer(ctx context.Context, cfg config.MailConfig) (*SESMailer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("mail: load aws config: %w", err)
	}
	return NewSESMailerWithAPI(ses.NewFromConfig(awsCfg), cfg.Sender), nil
}

// NewSESMailerWithAPI wraps an existing SES API implementation.
func NewSESMailerWithAPI(api SESAPI, from string) *SESMailer {
	return &SESMailer{api: api, from: strings.TrimSpace(from)}
}

// Send delivers msg and returns the SES message id.
func (m *SESMailer) Send(ctx context.Context, msg Message) (string, error) {
	if m == nil || m.api == nil || m.from == "" {
		return "", ErrNotConfigured
	}
	to := compact(msg.To)
	if len(to) == 0 {
		return "", ErrNoRecipients
	}

	body := &types.Body{}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String(charsetUTF8)}
	}
	if msg.Text != "" {
		body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String(charsetUTF8)}
	}

	input := &ses.SendEmailInput{
		Source: aws.String(m.from),
		Destination: &types.Destination{
			ToAddresses:  to,
			BccAddresses: compact(msg.Bcc),
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(charsetUTF8)},
			Body:    body,
		},
		ReplyToAddresses: compact(msg.ReplyTo),
	}

	out, err := m.api.SendEmail(ctx, input)
	if err != nil {
		return "", fmt.Errorf("mail: send: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
