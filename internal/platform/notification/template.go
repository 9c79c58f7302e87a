// Package notification renders and delivers patient emails about their
// appointments. Delivery is best effort: failures are logged and counted but
// never surface to the request that triggered them.
package notification

import (
	"fmt"
	"strings"
	"sync"
)

const (
	TemplateWelcome             = "patient-welcome"
	TemplateAppointmentBooked   = "appointment-booked"
	TemplateAppointmentStatus   = "appointment-status"
	TemplateAppointmentReminder = "appointment-reminder"
)

// Template is a subject and body with {{key}} placeholders.
type Template struct {
	ID      string
	Subject string
	Body    string
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]Template)}
	for _, t := range builtIn {
		e.templates[t.ID] = t
	}
	return e
}

var builtIn = []Template{
	{
		ID:      TemplateWelcome,
		Subject: "Welcome to CureNation, {{patient_name}}",
		Body: "<p>Dear {{patient_name}},</p>" +
			"<p>Your patient account has been created. Your patient ID is <strong>{{patient_code}}</strong>.</p>" +
			"<p>You can now sign in with {{email}} to book and manage appointments.</p>",
	},
	{
		ID:      TemplateAppointmentBooked,
		Subject: "Appointment request received for {{date}}",
		Body: "<p>Dear {{patient_name}},</p>" +
			"<p>We received your appointment request with {{doctor_name}} ({{department}}) on {{date}} at {{time}}.</p>" +
			"<p>Its current status is <strong>{{status}}</strong>. We will email you when it changes.</p>",
	},
	{
		ID:      TemplateAppointmentStatus,
		Subject: "Your appointment on {{date}} is now {{status}}",
		Body: "<p>Dear {{patient_name}},</p>" +
			"<p>Your appointment with {{doctor_name}} on {{date}} at {{time}} is now <strong>{{status}}</strong>.</p>",
	},
	{
		ID:      TemplateAppointmentReminder,
		Subject: "Reminder: appointment tomorrow at {{time}}",
		Body: "<p>Dear {{patient_name}},</p>" +
			"<p>This is a reminder of your appointment with {{doctor_name}} ({{department}}) on {{date}} at {{time}}.</p>" +
			"<p>If you cannot attend, please cancel it from your dashboard.</p>",
	},
}

// RegisterTemplate adds or replaces a template.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = t
}

// Render replaces {{key}} placeholders with data. Placeholders without a
// matching key are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}
