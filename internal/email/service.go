package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/redmonkez12/anonify/internal/config"
	"github.com/redmonkez12/anonify/internal/logging"
)

const verificationSubject = "Anonify - Verify your email"

// sendFunc matches smtp.SendMail so tests can capture outgoing mail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	appURL       string
	send         sendFunc
}

func NewService(cfg config.EmailConfig) *Service {
	from := cfg.From
	if from == "" {
		from = cfg.SMTPUser
	}

	return &Service{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUser:     cfg.SMTPUser,
		smtpPassword: cfg.SMTPPassword,
		fromEmail:    from,
		appURL:       strings.TrimRight(cfg.AppURL, "/"),
		send:         smtp.SendMail,
	}
}

// SendVerificationEmail mails the six-digit verification code to a pending account.
func (s *Service) SendVerificationEmail(ctx context.Context, toEmail, username, code string) error {
	logger := logging.GetLoggerFromContext(ctx)

	body, err := renderVerificationEmail(verificationData{
		Username:   username,
		Code:       code,
		VerifyLink: fmt.Sprintf("%s/verify/%s", s.appURL, username),
	})
	if err != nil {
		logger.Error("failed to render email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, verificationSubject, body); err != nil {
		logger.Error("failed to send verification email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("verification email sent", "email", toEmail, "username", username)
	return nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	var auth smtp.Auth
	if s.smtpUser != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	envelope := s.fromEmail
	if s.smtpUser != "" {
		envelope = s.smtpUser
	}

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return s.send(addr, auth, envelope, []string{to}, msg)
}

type verificationData struct {
	Username   string
	Code       string
	VerifyLink string
}

var verificationTemplate = template.Must(template.New("verification").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.5;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .code {
            font-size: 22px;
            font-weight: bold;
            padding: 10px;
            background: #f0f0f0;
            border: 1px dashed #6C63FF;
            text-align: center;
            letter-spacing: 4px;
        }
        .footer {
            margin-top: 30px;
            font-size: 12px;
            color: #666;
        }
    </style>
</head>
<body>
    <h2>Welcome to Anonify, {{.Username}}!</h2>
    <p>Here is your verification code:</p>
    <div class="code">{{.Code}}</div>
    <p>Enter it at <a href="{{.VerifyLink}}">{{.VerifyLink}}</a>.</p>
    <p>This code will expire in 1 hour.</p>
    <div class="footer">
        <p>If you did not request this, please ignore this email.</p>
    </div>
</body>
</html>
`))

func renderVerificationEmail(data verificationData) (string, error) {
	var buf bytes.Buffer
	if err := verificationTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
