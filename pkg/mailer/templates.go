package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"dishdash/pkg/lifecycle"
)

// TemplateData carries the normative fields every status email needs:
// who, which order, and the status-specific timing/location datum.
type TemplateData struct {
	CustomerName    string
	OrderNumber     string
	EstimatedTime   string
	PickupLocation  string
	DeliveryAddress string
}

type statusTemplate struct {
	subject     string
	headerColor string
	headline    string
	detail      string
}

var statusTemplates = map[lifecycle.Status]statusTemplate{
	lifecycle.StatusReceived: {
		subject:     "Order Received",
		headerColor: "#2d89ef",
		headline:    "We've got your order!",
		detail:      "We'll confirm it shortly.{{if .EstimatedTime}} Estimated time: {{.EstimatedTime}}.{{end}}",
	},
	lifecycle.StatusPreparing: {
		subject:     "Order Being Prepared",
		headerColor: "#ff8c00",
		headline:    "Your order is being prepared",
		detail:      "Our kitchen is on it.{{if .EstimatedTime}} Estimated time: {{.EstimatedTime}}.{{end}}",
	},
	lifecycle.StatusReady: {
		subject:     "Order Ready",
		headerColor: "#00a300",
		headline:    "Your order is ready",
		detail:      "{{if .PickupLocation}}Pick it up at {{.PickupLocation}}.{{else}}Your driver will be on the way soon.{{end}}",
	},
	lifecycle.StatusPickedUp: {
		subject:     "Order Picked Up",
		headerColor: "#00a300",
		headline:    "Your order has been picked up",
		detail:      "Enjoy your meal!",
	},
	lifecycle.StatusDelivered: {
		subject:     "Order Delivered",
		headerColor: "#00a300",
		headline:    "Your order has been delivered",
		detail:      "{{if .DeliveryAddress}}Delivered to {{.DeliveryAddress}}.{{end}} Enjoy your meal!",
	},
}

const bodyTemplate = `<!DOCTYPE html>
<html>
<body style="margin:0;font-family:Arial,sans-serif;color:#333">
  <div style="background:{{.HeaderColor}};color:#fff;padding:24px;text-align:center">
    <h1 style="margin:0">{{.Headline}}</h1>
  </div>
  <div style="padding:24px">
    <p>Hi {{.CustomerName}},</p>
    <p>Order <strong>#{{.OrderNumber}}</strong></p>
    <p>{{.Detail}}</p>
  </div>
  <div style="padding:16px 24px;background:#f4f4f4;font-size:12px;color:#888">
    This is an automated message about your order. Please do not reply to this email.
  </div>
</body>
</html>`

var baseTmpl = template.Must(template.New("email").Parse(bodyTemplate))

// Render builds the subject and HTML body for a status email. The
// customer name falls back to "Valued Customer" when missing.
func Render(status lifecycle.Status, data TemplateData) (subject, body string, err error) {
	st, ok := statusTemplates[status]
	if !ok {
		return "", "", fmt.Errorf("no email template for status %q", status)
	}

	if data.CustomerName == "" {
		data.CustomerName = "Valued Customer"
	}

	detailTmpl, err := template.New("detail").Parse(st.detail)
	if err != nil {
		return "", "", err
	}
	var detail bytes.Buffer
	if err := detailTmpl.Execute(&detail, data); err != nil {
		return "", "", err
	}

	var out bytes.Buffer
	err = baseTmpl.Execute(&out, struct {
		HeaderColor  string
		Headline     string
		CustomerName string
		OrderNumber  string
		Detail       template.HTML
	}{
		HeaderColor:  st.headerColor,
		Headline:     st.headline,
		CustomerName: data.CustomerName,
		OrderNumber:  data.OrderNumber,
		Detail:       template.HTML(detail.String()),
	})
	if err != nil {
		return "", "", err
	}

	return fmt.Sprintf("%s - #%s", st.subject, data.OrderNumber), out.String(), nil
}
