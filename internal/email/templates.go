package email

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"user-mgmt/internal/domain"
)

const verificationSubject = "Verify your email address - User Management System"

var verificationTmpl = template.Must(template.New("verification").Parse(`<html>
<body>
<p>Hi {{.Name}},</p>
<p>Thanks for registering. Please confirm your email address by clicking the link below:</p>
<p><a href="{{.Link}}">Verify your email</a></p>
<p>If the button does not work, copy this address into your browser:</p>
<p>{{.Link}}</p>
<p>If you did not create this account you can ignore this message.</p>
</body>
</html>`))

const welcomeSubject = "Welcome to User Management System!"

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<html>
<body>
<p>Hi {{.Name}},</p>
<p>Your email address has been verified and your account is now active.</p>
<p><a href="{{.Link}}">Log in here</a></p>
</body>
</html>`))

const passwordResetSubject = "Password reset - User Management System"

var passwordResetTmpl = template.Must(template.New("password_reset").Parse(`<html>
<body>
<p>Hi {{.Name}},</p>
<p>We received a request to reset the password for your account.</p>
<p><a href="{{.Link}}">Choose a new password</a></p>
<p>If you did not request this, no action is needed.</p>
</body>
</html>`))

type templateData struct {
	Name string
	Link string
}

func renderHTML(tmpl *template.Template, user domain.User, link string) (string, error) {
	name := strings.TrimSpace(user.FirstName)
	if name == "" {
		name = user.Username
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, templateData{Name: name, Link: link}); err != nil {
		return "", fmt.Errorf("render email template: %w", err)
	}
	return sb.String(), nil
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// stripTags deriva el cuerpo de texto plano a partir del HTML.
func stripTags(html string) string {
	text := tagPattern.ReplaceAllString(html, "")
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n") + "\n"
}
