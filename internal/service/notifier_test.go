package service

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"clubsite/internal/models"
)

func testMember() models.Member {
	return models.Member{
		ID:        "m1",
		FirstName: "Jean",
		LastName:  "Dupont",
		Email:     "j@x.com",
		Phone:     "0600000000",
		BirthDate: "1990-01-01",
		Sports:    []models.Sport{models.SportRugby, models.SportTennis},
	}
}

func TestNewRegistrationMail(t *testing.T) {
	msg := NewRegistrationMail("admin@club.fr", testMember())

	if len(msg.To) != 1 || msg.To[0] != "admin@club.fr" || msg.Subject != RegistrationSubject {
		t.Errorf("unexpected headers %+v", msg)
	}
	for _, line := range []string{
		"- Nom: Dupont",
		"- Prénom: Jean",
		"- Email: j@x.com",
		"- Téléphone: 0600000000",
		"- Date de naissance: 1990-01-01",
		"- Sports: Rugby à 7, Tennis",
	} {
		if !strings.Contains(msg.Body, line) {
			t.Errorf("body missing %q:\n%s", line, msg.Body)
		}
	}
}

func TestMailtoURL(t *testing.T) {
	link := NewRegistrationMail("admin@club.fr", testMember()).MailtoURL()

	if !strings.HasPrefix(link, "mailto:admin@club.fr?subject=") {
		t.Fatalf("MailtoURL() = %s", link)
	}
	if strings.Contains(link, "+") {
		t.Errorf("MailtoURL() must encode spaces as %%20: %s", link)
	}

	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("url.Parse() error = %v", err)
	}
	query, err := url.ParseQuery(parsed.RawQuery)
	if err != nil {
		t.Fatalf("url.ParseQuery() error = %v", err)
	}
	if query.Get("subject") != RegistrationSubject {
		t.Errorf("subject = %q", query.Get("subject"))
	}
	if !strings.Contains(query.Get("body"), "- Sports: Rugby à 7, Tennis") {
		t.Errorf("body = %q", query.Get("body"))
	}
}

func TestMailtoNotifierOpensLink(t *testing.T) {
	var opened string
	notifier := NewMailtoNotifier(func(ctx context.Context, link string) error {
		opened = link
		return nil
	})

	if err := notifier.NotifyNewMember(context.Background(), "admin@club.fr", testMember()); err != nil {
		t.Fatalf("NotifyNewMember() error = %v", err)
	}
	if !strings.HasPrefix(opened, "mailto:admin@club.fr") {
		t.Errorf("opened %q", opened)
	}

	if err := NewMailtoNotifier(nil).NotifyNewMember(context.Background(), "admin@club.fr", testMember()); err != nil {
		t.Errorf("NotifyNewMember() without opener error = %v", err)
	}
}

func TestDisabledEmailServiceSkipsSend(t *testing.T) {
	svc, err := NewEmailService("eu-west-3", "", "")
	if err != nil {
		t.Fatalf("NewEmailService() error = %v", err)
	}
	if svc.IsEnabled() {
		t.Fatal("IsEnabled() = true without SES_FROM_EMAIL")
	}
	if err := svc.NotifyNewMember(context.Background(), "admin@club.fr", testMember()); err != nil {
		t.Errorf("NotifyNewMember() error = %v", err)
	}
	if err := svc.SendMemberMail(context.Background(), MailMessage{To: []string{"a@x.com"}, Subject: "s"}); err != nil {
		t.Errorf("SendMemberMail() error = %v", err)
	}
}

func TestMailtoURLJoinsRecipients(t *testing.T) {
	msg := MailMessage{To: []string{"a@x.com", "b@y.fr"}, Subject: "Entraînement annulé", Body: "À demain"}

	link := msg.MailtoURL()
	want := "mailto:a@x.com,b@y.fr?subject=Entra%C3%AEnement%20annul%C3%A9&body=%C3%80%20demain"
	if link != want {
		t.Errorf("MailtoURL() = %s, want %s", link, want)
	}
}

func TestRenderHTMLEscapesBody(t *testing.T) {
	got := renderHTML(MailMessage{Subject: "Fête & match", Body: "<script>x</script>"})

	if strings.Contains(got, "<script>") {
		t.Errorf("body not escaped: %s", got)
	}
	if !strings.Contains(got, "Fête &amp; match") {
		t.Errorf("subject not rendered: %s", got)
	}
}
