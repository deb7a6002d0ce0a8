package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"clubsite/internal/models"
)

// RegistrationSubject is the subject of the new-member notification
const RegistrationSubject = "Nouvelle inscription A.S. Saint-Paul Lille"

// Notifier tells the administrator about a new registration
type Notifier interface {
	NotifyNewMember(ctx context.Context, adminEmail string, member models.Member) error
}

// MailMessage is a plain-text message
type MailMessage struct {
	To      []string
	Subject string
	Body    string
}

// NewRegistrationMail composes the notification sent for a new member
func NewRegistrationMail(adminEmail string, member models.Member) MailMessage {
	sports := make([]string, len(member.Sports))
	for i, sport := range member.Sports {
		sports[i] = string(sport)
	}

	var body strings.Builder
	body.WriteString("Une nouvelle personne s'est inscrite. Pensez à publier la liste des membres mise à jour.\n\n")
	body.WriteString("Détails :\n")
	fmt.Fprintf(&body, "- Nom: %s\n", member.LastName)
	fmt.Fprintf(&body, "- Prénom: %s\n", member.FirstName)
	fmt.Fprintf(&body, "- Email: %s\n", member.Email)
	fmt.Fprintf(&body, "- Téléphone: %s\n", member.Phone)
	fmt.Fprintf(&body, "- Date de naissance: %s\n", member.BirthDate)
	fmt.Fprintf(&body, "- Sports: %s", strings.Join(sports, ", "))

	return MailMessage{
		To:      []string{adminEmail},
		Subject: RegistrationSubject,
		Body:    body.String(),
	}
}

// MailtoURL renders the message as a mailto: link for the default mail handler
func (m MailMessage) MailtoURL() string {
	return "mailto:" + strings.Join(m.To, ",") +
		"?subject=" + mailtoEscape(m.Subject) +
		"&body=" + mailtoEscape(m.Body)
}

// mailto links need %20 for spaces, not the form encoding "+"
func mailtoEscape(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

// MailtoNotifier hands the composed mailto: link to Open, or just logs it
type MailtoNotifier struct {
	Open func(ctx context.Context, link string) error
}

func NewMailtoNotifier(open func(ctx context.Context, link string) error) *MailtoNotifier {
	return &MailtoNotifier{Open: open}
}

func (n *MailtoNotifier) NotifyNewMember(ctx context.Context, adminEmail string, member models.Member) error {
	link := NewRegistrationMail(adminEmail, member).MailtoURL()
	log.Printf("New member %s: notification link for %s ready", member.ID, adminEmail)
	if n.Open == nil {
		return nil
	}
	return n.Open(ctx, link)
}
