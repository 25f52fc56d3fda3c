package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type leadAssignedEmailData struct {
	baseEmailData
	AssigneeName string
	LeadName     string
}

type followUpDueEmailData struct {
	baseEmailData
	AssigneeName string
	LeadName     string
	DueAt        string
}

type dealWonEmailData struct {
	baseEmailData
	OwnerName string
	DealTitle string
	Value     string
}

type contractDecisionEmailData struct {
	baseEmailData
	OwnerName      string
	ContractNumber string
	Decision       string
	Comments       string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
