package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	pmail "github.com/Teletobimy/landingpage-irunica/internal/platform/mail"
)

// Mailer delivers one e-mail. *mail.SESMailer implements it.
type Mailer interface {
	Send(ctx context.Context, msg pmail.Message) (string, error)
}

// NotificationServiceDeps wires the notification service.
type NotificationServiceDeps struct {
	Mailer       Mailer
	SalesAddress string
	AdminAddress string
	Clock        func() time.Time
	Logger       func(ctx context.Context, event string, fields map[string]any)
}

type notificationService struct {
	mailer    Mailer
	sales     string
	admin     string
	clock     func() time.Time
	logger    func(context.Context, string, map[string]any)
	sanitizer *bluemonday.Policy
}

var _ NotificationService = (*notificationService)(nil)

var kst = time.FixedZone("KST", 9*60*60)

// NewNotificationService constructs the notification service.
func NewNotificationService(deps NotificationServiceDeps) (NotificationService, error) {
	if deps.Mailer == nil {
		return nil, errors.New("notification service: mailer is required")
	}
	sales := strings.TrimSpace(deps.SalesAddress)
	if sales == "" {
		return nil, errors.New("notification service: sales address is required")
	}
	admin := strings.TrimSpace(deps.AdminAddress)
	if admin == "" {
		admin = sales
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &notificationService{
		mailer:    deps.Mailer,
		sales:     sales,
		admin:     admin,
		clock:     clock,
		logger:    loggerOrNop(deps.Logger),
		sanitizer: bluemonday.StrictPolicy(),
	}, nil
}

func (s *notificationService) SendAssets(ctx context.Context, cmd AssetsEmailCommand) (NotificationReceipt, error) {
	to, err := parseAddress(cmd.Email)
	if err != nil {
		return NotificationReceipt{}, err
	}
	company := s.clean(cmd.CompanyName)
	if company == "" {
		return NotificationReceipt{}, fmt.Errorf("%w: company name is required", ErrInvalidInput)
	}

	urls := make([]string, 0, len(cmd.Images))
	for _, image := range cmd.Images {
		if url := strings.TrimSpace(image.URL); strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://") {
			urls = append(urls, url)
		}
	}

	body, err := render(assetsEmailTemplate, map[string]any{"Company": company, "ImageURLs": urls})
	if err != nil {
		return NotificationReceipt{}, err
	}
	return s.send(ctx, "notification.assets", cmd.VIPID, pmail.Message{
		To:      []string{to},
		Bcc:     []string{s.sales},
		ReplyTo: []string{s.sales},
		Subject: fmt.Sprintf("[IRUNICA] Private Label Assets for %s", company),
		HTML:    body,
		Text:    fmt.Sprintf("Your custom visuals for %s are ready. Reply to this e-mail to discuss MOQ and lead time.", company),
	})
}

func (s *notificationService) SendLeadAlert(ctx context.Context, cmd LeadAlertCommand) (NotificationReceipt, error) {
	email, err := parseAddress(cmd.Email)
	if err != nil {
		return NotificationReceipt{}, err
	}
	name := s.clean(cmd.Name)
	if name == "" {
		return NotificationReceipt{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	company := s.clean(cmd.CompanyName)

	var lines []string
	for _, line := range strings.Split(html.UnescapeString(s.sanitizer.Sanitize(cmd.Message)), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	body, err := render(leadAlertTemplate, map[string]any{
		"Company":      company,
		"Name":         name,
		"Email":        email,
		"Phone":        s.clean(cmd.Phone),
		"MessageLines": lines,
		"VIPID":        s.clean(cmd.VIPID),
	})
	if err != nil {
		return NotificationReceipt{}, err
	}
	return s.send(ctx, "notification.lead_alert", cmd.VIPID, pmail.Message{
		To:      []string{s.admin},
		ReplyTo: []string{email},
		Subject: fmt.Sprintf("[New Lead] %s - %s", company, name),
		HTML:    body,
	})
}

func (s *notificationService) SendClickAlert(ctx context.Context, cmd ClickAlertCommand) (NotificationReceipt, error) {
	button := s.clean(cmd.ButtonName)
	if button == "" {
		return NotificationReceipt{}, fmt.Errorf("%w: button name is required", ErrInvalidInput)
	}
	company := s.clean(cmd.CompanyName)
	vipID := s.clean(cmd.VIPID)
	if vipID == "" {
		vipID = company
	}

	body, err := render(clickAlertTemplate, map[string]any{
		"Button":    button,
		"Company":   company,
		"VIPID":     vipID,
		"Timestamp": s.clock().In(kst).Format("2006-01-02 15:04:05"),
	})
	if err != nil {
		return NotificationReceipt{}, err
	}
	return s.send(ctx, "notification.click_alert", cmd.VIPID, pmail.Message{
		To:      []string{s.sales},
		Subject: fmt.Sprintf("[Click Alert] %s - %s", company, button),
		HTML:    body,
	})
}

func (s *notificationService) send(ctx context.Context, event, vipID string, msg pmail.Message) (NotificationReceipt, error) {
	id, err := s.mailer.Send(ctx, msg)
	if err != nil {
		s.logger(ctx, event+".failed", map[string]any{"vipId": vipID, "error": err})
		return NotificationReceipt{}, err
	}
	s.logger(ctx, event+".sent", map[string]any{"vipId": vipID, "messageId": id})
	return NotificationReceipt{MessageID: id, SentAt: s.clock().UTC()}, nil
}

// clean strips markup from user input and returns plain text; the templates escape it again.
func (s *notificationService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}

func parseAddress(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: invalid e-mail address", ErrInvalidInput)
	}
	return addr.Address, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notification: render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

var assetsEmailTemplate = template.Must(template.New("assets").Parse(`<div style="font-family: sans-serif; color: #333;">
  <h2>Your Custom Visuals are Ready</h2>
  <p>Hello,</p>
  <p>Thank you for your interest in <strong>{{.Company}}</strong> private labeling solutions by Irunica.</p>
  <p>We have rendered your brand assets. Please find the preview below:</p>
  {{if .ImageURLs}}<div style="display: grid; grid-template-columns: 1fr 1fr; gap: 10px; margin-top: 20px;">
    {{range .ImageURLs}}<img src="{{.}}" width="100%" style="border-radius: 10px; object-fit: cover; aspect-ratio: 1/1;"/>
    {{end}}</div>{{end}}
  <p style="margin-top: 30px;"><strong>Next Steps:</strong><br/>
  Our team handles everything from formulation to global logistics.
  If you haven't already, please complete the inquiry form to discuss MOQ and lead time.</p>
  <hr style="margin: 30px 0; border: 0; border-top: 1px solid #eee;"/>
  <p style="font-size: 12px; color: #888;">Irunica Co., Ltd. | K-Beauty ODM/OEM Expert</p>
</div>`))

var leadAlertTemplate = template.Must(template.New("lead_alert").Parse(`<div style="font-family: sans-serif;">
  <h3 style="color: #d97706;">New Landing Page Inquiry</h3>
  <p><strong>Company:</strong> {{.Company}}</p>
  <p><strong>Name:</strong> {{.Name}}</p>
  <p><strong>Email:</strong> {{.Email}}</p>
  <p><strong>Phone:</strong> {{.Phone}}</p>
  <p><strong>Message:</strong><br/>{{if .MessageLines}}{{range $i, $line := .MessageLines}}{{if $i}}<br/>{{end}}{{$line}}{{end}}{{else}}No message{{end}}</p>
  <p style="font-size: 12px; color: #888; margin-top: 20px;">Source: VIP Conversion Funnel{{with .VIPID}} ({{.}}){{end}}</p>
</div>`))

var clickAlertTemplate = template.Must(template.New("click_alert").Parse(`<div style="font-family: sans-serif; padding: 20px;">
  <h3 style="color: #d97706; margin-bottom: 20px;">Button Click Alert</h3>
  <table style="border-collapse: collapse; width: 100%; max-width: 400px;">
    <tr><td style="padding: 8px; color: #666;">Button</td><td style="padding: 8px; font-weight: bold;">{{.Button}}</td></tr>
    <tr><td style="padding: 8px; color: #666;">Company</td><td style="padding: 8px; font-weight: bold;">{{.Company}}</td></tr>
    <tr><td style="padding: 8px; color: #666;">VIP ID</td><td style="padding: 8px;">{{.VIPID}}</td></tr>
    <tr><td style="padding: 8px; color: #666;">Time (KST)</td><td style="padding: 8px;">{{.Timestamp}}</td></tr>
  </table>
  <p style="font-size: 12px; color: #888; margin-top: 20px;">This visitor showed high intent. Consider reaching out proactively.</p>
</div>`))
