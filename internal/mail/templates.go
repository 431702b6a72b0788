// AngelaMos | 2026
// templates.go

package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

var templates = template.Must(template.New("mail").Parse(`
{{define "reset"}}<p>Hello {{.Name}},</p>
<p>You requested a password reset. Use the link below within {{.ValidFor}} to choose a new password:</p>
<p><a href="{{.Link}}">Reset password</a></p>
<p>If you did not request this, you can ignore this email.</p>{{end}}

{{define "welcome"}}<p>Welcome {{.Name}},</p>
<p>Your account on {{.App}} is ready. Ask questions, share answers and vote on what helps.</p>{{end}}

{{define "answer"}}<p>You have received a new answer to your question: <strong>{{.QuestionTitle}}</strong></p>
<p>{{.AnswerText}}</p>
{{range .ImageURLs}}<p><img src="{{.}}" alt="answer image" style="max-width:100%"></p>
{{end}}{{end}}

{{define "newsletter"}}<div>{{.Content}}</div>
<p style="font-size:12px;color:#777">You receive this email because you have an account or subscribed to the {{.App}} newsletter.</p>{{end}}
`))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", name, err)
	}
	return buf.String(), nil
}

func PasswordReset(to, name, link, validFor string) (Message, error) {
	html, err := render("reset", map[string]string{
		"Name":     name,
		"Link":     link,
		"ValidFor": validFor,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Password Reset Request",
		HTML:    html,
		Text:    "Reset your password: " + link,
	}, nil
}

func Welcome(to, name, app string) (Message, error) {
	html, err := render("welcome", map[string]string{"Name": name, "App": app})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Signup successful - welcome to " + app,
		HTML:    html,
	}, nil
}

type AnswerNotice struct {
	QuestionTitle string
	AnswerText    string
	ImageURLs     []string
}

func AnswerNotification(to string, n AnswerNotice) (Message, error) {
	html, err := render("answer", n)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Answer to your question: " + n.QuestionTitle,
		HTML:    html,
		Text:    n.AnswerText,
	}, nil
}

// Newsletter renders content as trusted HTML. Only admins author it.
func Newsletter(to, subject, content, app string) (Message, error) {
	html, err := render("newsletter", map[string]any{
		"Content": template.HTML(content), //nolint:gosec // admin-authored body
		"App":     app,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: subject,
		HTML:    html,
	}, nil
}
