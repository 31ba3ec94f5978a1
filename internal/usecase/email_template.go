package usecase

import (
	"bytes"
	"html/template"
)

type emailContext struct {
	RecipientName string
	Title         string
	Body          string
	ActionURL     string
	SiteURL       string
}

var emailTemplate = template.Must(template.New("notification").Parse(`<html>
<body style="font-family: sans-serif; color: #222;">
  <p>Hi {{.RecipientName}},</p>
  <h2>{{.Title}}</h2>
  <p>{{.Body}}</p>
  {{if .ActionURL}}<p><a href="{{.SiteURL}}{{.ActionURL}}">View on Classipost</a></p>{{end}}
  <p style="color: #888; font-size: 12px;">You are receiving this email because of your notification preferences. You can change them in your account settings.</p>
</body>
</html>`))

func renderEmailBody(ctx emailContext) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}
