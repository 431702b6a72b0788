// AngelaMos | 2026
// templates_test.go

package mail

import (
	"context"
	"strings"
	"testing"
)

func TestAnswerNotificationEscapesAnswerText(t *testing.T) {
	msg, err := AnswerNotification("asker@example.com", AnswerNotice{
		QuestionTitle: "Why is the sky blue?",
		AnswerText:    "<script>alert(1)</script> Rayleigh scattering",
		ImageURLs:     []string{"https://ik.example/a.png"},
	})
	if err != nil {
		t.Fatalf("AnswerNotification: %v", err)
	}

	if msg.Subject != "Answer to your question: Why is the sky blue?" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if strings.Contains(msg.HTML, "<script>") {
		t.Error("answer text must be escaped")
	}
	if !strings.Contains(msg.HTML, `src="https://ik.example/a.png"`) {
		t.Errorf("image missing from body: %s", msg.HTML)
	}
}

func TestPasswordResetContainsLink(t *testing.T) {
	link := "https://forum.example/reset-password?token=abc"
	msg, err := PasswordReset("u@example.com", "Ada", link, "1 hour")
	if err != nil {
		t.Fatalf("PasswordReset: %v", err)
	}
	if !strings.Contains(msg.HTML, "token=abc") || msg.To != "u@example.com" {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestLogMailerNeverFails(t *testing.T) {
	if err := NewLogMailer(nil).Send(context.Background(), Message{To: "x@example.com"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
}
