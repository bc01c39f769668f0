package email

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// md escapes raw HTML in the source (WithUnsafe is not set).
var md = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Invitation is the data for the "you have been made an admin" email.
type Invitation struct {
	To        string
	FirstName string
	RoleLabel string
	// TenantName is empty for platform-wide roles.
	TenantName string
	LoginURL   string
}

var invitationBody = template.Must(template.New("invitation").Parse(`Hi {{if .FirstName}}{{.FirstName}}{{else}}there{{end}},

You have been added to **RosterIQ** as **{{.RoleLabel}}**{{if .TenantName}} for *{{.TenantName}}*{{end}}.

[Request a sign-in link]({{.LoginURL}}) for this email address ({{.To}}); no password is needed.
If you did not expect this invitation you can ignore this message.
`))

// BuildInvitation renders inv into a SendRequest with matching HTML and text bodies.
// PRE: inv.To and inv.LoginURL are non-empty
func BuildInvitation(inv Invitation) (SendRequest, error) {
	if inv.To == "" || inv.LoginURL == "" {
		return SendRequest{}, fmt.Errorf("email: invitation needs a recipient and login url")
	}
	inv.FirstName = markdownEscaper.Replace(inv.FirstName)
	inv.TenantName = markdownEscaper.Replace(inv.TenantName)

	var text bytes.Buffer
	if err := invitationBody.Execute(&text, inv); err != nil {
		return SendRequest{}, fmt.Errorf("email: render invitation: %w", err)
	}
	var html bytes.Buffer
	if err := md.Convert(text.Bytes(), &html); err != nil {
		return SendRequest{}, fmt.Errorf("email: render invitation html: %w", err)
	}

	return SendRequest{
		To:       []string{inv.To},
		Subject:  "You're invited to RosterIQ",
		HTML:     html.String(),
		Text:     text.String(),
		Category: "admin_invitation",
	}, nil
}

// markdownEscaper keeps user-supplied names from injecting markdown links or emphasis.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`, "`", "\\`", "<", "&lt;",
)
