package email

import (
	"strings"
	"testing"

	"user-mgmt/internal/domain"
)

func TestRenderHTML_UsesFirstNameWithUsernameFallback(t *testing.T) {
	user := domain.User{FirstName: "Alice", Username: "alice99", Email: "alice@example.com"}
	body, err := renderHTML(verificationTmpl, user, "http://app.test/verify")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(body, "Hi Alice,") {
		t.Fatalf("expected greeting with first name, got: %s", body)
	}
	if !strings.Contains(body, "http://app.test/verify") {
		t.Fatalf("expected link in body")
	}

	user.FirstName = ""
	body, err = renderHTML(verificationTmpl, user, "http://app.test/verify")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(body, "Hi alice99,") {
		t.Fatalf("expected username fallback, got: %s", body)
	}
}

func TestStripTags(t *testing.T) {
	html := "<html>\n<body>\n<p>Hi Alice,</p>\n<p><a href=\"http://x\">Verify</a></p>\n</body>\n</html>"
	plain := stripTags(html)
	if strings.Contains(plain, "<") {
		t.Fatalf("expected no tags, got: %s", plain)
	}
	if !strings.Contains(plain, "Hi Alice,") || !strings.Contains(plain, "Verify") {
		t.Fatalf("expected text content preserved, got: %s", plain)
	}
}

func TestBuildMessage(t *testing.T) {
	msg, err := buildMessage("noreply@app.test", "App", "alice@example.com", "Subject here", "plain body", "<p>html body</p>")
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	text := string(msg)
	for _, want := range []string{
		"From: App <noreply@app.test>",
		"To: alice@example.com",
		"Subject: Subject here",
		"multipart/alternative",
		"text/plain",
		"text/html",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in message:\n%s", want, text)
		}
	}
}
