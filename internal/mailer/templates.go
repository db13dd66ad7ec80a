package mailer

import (
	"bytes"
	"html/template"
	"time"
)

// CollabInquiry is the data of a collaboration inquiry email.
type CollabInquiry struct {
	SenderName       string
	SenderNiche      string
	SenderUniversity string
	SenderRole       string // producer_role, optional
	SenderEmail      string
	SenderProfileURL string
	RecipientName    string
}

// NicheLabel describes the sender's kind of theater group.
func (d CollabInquiry) NicheLabel() string {
	switch {
	case d.SenderNiche == "university" && d.SenderUniversity != "":
		return d.SenderUniversity + " Theater Group"
	case d.SenderNiche == "local":
		return "Local/Community Theater"
	default:
		return "Theater Group"
	}
}

// Subject is the inquiry subject line.
func (d CollabInquiry) Subject() string {
	return "🤝 New Theater Collaboration Inquiry: " + d.SenderName + " x " + d.RecipientName
}

var collabTmpl = template.Must(template.New("collab").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Collaboration Request</title>
  </head>
  <body style="margin:0;padding:0;background-color:#f4f4f4;font-family:'Helvetica Neue',Helvetica,Arial,sans-serif;">
    <table role="presentation" width="600" align="center" style="background-color:#ffffff;border-radius:8px;">
      <tr>
        <td align="center" style="padding:60px;color:#333333;font-size:16px;line-height:1.6;">
          <h1 style="color:#d12121;font-size:24px;font-family:Georgia,serif;">New Collaboration Inquiry</h1>
          <p>Hello {{.RecipientName}},</p>
          <p><strong>{{.SenderName}}</strong> wants to connect with your troupe for a potential project or partnership.</p>
          <div style="background-color:#f9f9f9;border-left:4px solid #d12121;padding:15px;margin-bottom:30px;text-align:left;">
            <p style="margin:0 0 5px 0;font-size:18px;font-weight:bold;">{{.SenderName}}</p>
            <p style="margin:0 0 5px 0;font-size:14px;color:#666;text-transform:uppercase;">{{.NicheLabel}}</p>
            {{- if .SenderRole}}
            <p style="margin:0;font-size:14px;color:#666;">{{.SenderRole}}</p>
            {{- end}}
          </div>
          <a href="{{.SenderProfileURL}}" style="background-color:#d12121;color:white;padding:14px 28px;text-decoration:none;border-radius:4px;font-weight:bold;display:inline-block;">View Sender's Profile</a>
          <p style="font-size:14px;color:#666;margin-top:20px;border-top:1px solid #eee;padding-top:20px;">
            <strong>Interested?</strong> You can reply directly to this email to reach them at <a href="mailto:{{.SenderEmail}}" style="color:#d12121;">{{.SenderEmail}}</a>.
          </p>
        </td>
      </tr>
    </table>
  </body>
</html>
`))

// CollabInquiryMessage renders the inquiry addressed to recipientEmail.
// Replies go to the sender.
func CollabInquiryMessage(recipientEmail string, d CollabInquiry) (Message, error) {
	var buf bytes.Buffer
	if err := collabTmpl.Execute(&buf, d); err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{recipientEmail},
		Subject: d.Subject(),
		HTML:    buf.String(),
		ReplyTo: d.SenderEmail,
	}, nil
}

// TicketConfirmation is the data of a ticket confirmation email.
type TicketConfirmation struct {
	CustomerName string
	ShowTitle    string
	ShowDate     *time.Time
	Venue        string
	ShowURL      string
	Reference    string
}

// DateLabel formats the show date, or says it is not scheduled yet.
func (d TicketConfirmation) DateLabel() string {
	if d.ShowDate == nil || d.ShowDate.IsZero() {
		return "Date to be announced"
	}
	return d.ShowDate.Format("Monday, January 2, 2006")
}

var ticketTmpl = template.Must(template.New("ticket").Parse(`<!DOCTYPE html>
<html>
  <body style="margin:0;padding:20px;background-color:#f4f4f5;font-family:'Helvetica Neue',Helvetica,Arial,sans-serif;">
    <div style="max-width:600px;margin:0 auto;background:#fff;padding:30px;border-radius:12px;">
      <p style="color:#555;">{{if .CustomerName}}Hi {{.CustomerName}}, your{{else}}Your{{end}} ticket is confirmed.</p>
      <h2 style="margin:0 0 15px 0;color:#111;font-size:24px;">{{.ShowTitle}}</h2>
      <div style="margin-bottom:15px;">
        <strong style="color:#666;text-transform:uppercase;font-size:12px;letter-spacing:1px;">Date</strong>
        <p style="margin:5px 0 0 0;font-size:18px;color:#333;">{{.DateLabel}}</p>
      </div>
      {{- if .Venue}}
      <div style="margin-bottom:15px;">
        <strong style="color:#666;text-transform:uppercase;font-size:12px;letter-spacing:1px;">Venue</strong>
        <p style="margin:5px 0 0 0;font-size:18px;color:#333;">{{.Venue}}</p>
      </div>
      {{- end}}
      <a href="{{.ShowURL}}" style="display:inline-block;background-color:#000;color:#fff;padding:14px 28px;text-decoration:none;border-radius:8px;font-weight:bold;">View Show Details</a>
      <p style="color:#888;font-size:12px;margin-top:30px;">
        Present this email or your name at the venue entrance.<br/>
        Reference: {{if .Reference}}{{.Reference}}{{else}}N/A{{end}}
      </p>
    </div>
  </body>
</html>
`))

// TicketConfirmationMessage renders the confirmation sent to the buyer.
func TicketConfirmationMessage(to string, d TicketConfirmation) (Message, error) {
	var buf bytes.Buffer
	if err := ticketTmpl.Execute(&buf, d); err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{to},
		Subject: "Ticket Confirmed: " + d.ShowTitle,
		HTML:    buf.String(),
	}, nil
}
