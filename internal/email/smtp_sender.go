package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"mime/quotedprintable"
	"net/smtp"
	"strings"

	"user-mgmt/internal/domain"
)

// SMTPSender envia correos via SMTP como multipart/alternative: el cuerpo
// HTML renderizado mas su version de texto plano derivada.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
	useTLS   bool
}

func NewSMTPSender(host string, port int, username, password, from, fromName string, useTLS bool) (*SMTPSender, error) {
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("smtp from is required")
	}
	if port == 0 {
		port = 587
	}
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
		useTLS:   useTLS,
	}, nil
}

func (s *SMTPSender) SendVerification(_ context.Context, user domain.User, verificationLink string) error {
	return s.send(user, verificationSubject, verificationTmpl, verificationLink)
}

func (s *SMTPSender) SendWelcome(_ context.Context, user domain.User, loginLink string) error {
	return s.send(user, welcomeSubject, welcomeTmpl, loginLink)
}

func (s *SMTPSender) SendPasswordReset(_ context.Context, user domain.User, resetLink string) error {
	return s.send(user, passwordResetSubject, passwordResetTmpl, resetLink)
}

func (s *SMTPSender) send(user domain.User, subject string, tmpl *template.Template, link string) error {
	toEmail := strings.TrimSpace(user.Email)
	if toEmail == "" {
		return fmt.Errorf("to email is required")
	}

	htmlBody, err := renderHTML(tmpl, user, link)
	if err != nil {
		return err
	}
	plainBody := stripTags(htmlBody)

	msg, err := buildMessage(s.from, s.fromName, toEmail, subject, plainBody, htmlBody)
	if err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	if s.useTLS {
		conn, err := tls.Dial("tcp", addr, &tls.Config{
			ServerName: s.host,
		})
		if err != nil {
			return err
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, s.host)
		if err != nil {
			return err
		}
		defer client.Quit()

		if auth != nil {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
		if err := client.Mail(s.from); err != nil {
			return err
		}
		if err := client.Rcpt(toEmail); err != nil {
			return err
		}
		writer, err := client.Data()
		if err != nil {
			return err
		}
		if _, err := writer.Write(msg); err != nil {
			_ = writer.Close()
			return err
		}
		return writer.Close()
	}

	return smtp.SendMail(addr, auth, s.from, []string{toEmail}, msg)
}

const altBoundary = "=-user-mgmt-alt"

func buildMessage(from, fromName, to, subject, plainBody, htmlBody string) ([]byte, error) {
	fromHeader := from
	if strings.TrimSpace(fromName) != "" {
		fromHeader = fmt.Sprintf("%s <%s>", fromName, from)
	}

	headers := []string{
		fmt.Sprintf("From: %s", fromHeader),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"", altBoundary),
	}

	var buf strings.Builder
	buf.WriteString(strings.Join(headers, "\r\n"))
	buf.WriteString("\r\n\r\n")

	for _, part := range []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=\"UTF-8\"", plainBody},
		{"text/html; charset=\"UTF-8\"", htmlBody},
	} {
		buf.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
		buf.WriteString(fmt.Sprintf("Content-Type: %s\r\n", part.contentType))
		buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		qp := quotedprintable.NewWriter(&buf)
		if _, err := qp.Write([]byte(part.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
		buf.WriteString("\r\n")
	}
	buf.WriteString(fmt.Sprintf("--%s--\r\n", altBoundary))

	return []byte(buf.String()), nil
}
