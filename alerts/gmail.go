package alerts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/gomail.v2"
)

const gmailSMTP = "smtp.gmail.com"
const gmailSMTPPort = 587

// subjectTag starts the subject of every alert mail, for mail filters
const subjectTag = "[lcdconf] "

// MailerConfig maps alerts.gmail in lcdconf.yaml. From defaults to Account.
type MailerConfig struct {
	Enabled    bool
	Account    string
	Password   string
	From       string
	Recipients []string
}

// GmailAlerter mails failed conversions through the Gmail SMTP relay
type GmailAlerter struct {
	sender     gomail.SendCloser
	from       string
	recipients []string
}

func NewGmailAlerter(config MailerConfig) (*GmailAlerter, error) {
	if len(config.Recipients) == 0 {
		return nil, errors.New("gmail alerter needs at least one recipient")
	}
	d := gomail.NewDialer(gmailSMTP, gmailSMTPPort, config.Account, config.Password)
	sender, err := d.Dial()
	if err != nil {
		return nil, fmt.Errorf("connect to %s as %s: %w", gmailSMTP, config.Account, err)
	}
	return newGmailAlerter(sender, config), nil
}

func newGmailAlerter(sender gomail.SendCloser, config MailerConfig) *GmailAlerter {
	from := config.From
	if from == "" {
		from = config.Account
	}
	return &GmailAlerter{sender: sender, from: from, recipients: config.Recipients}
}

// SendAlert mails content to every recipient, tagged for mail filters
func (g *GmailAlerter) SendAlert(title, content string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", g.from)
	m.SetHeader("To", g.recipients...)
	m.SetHeader("Subject", subjectTag+title)
	m.SetBody("text/plain", content+"\n\nNo keys were written. Fix the input and convert again.\n")

	if err := gomail.Send(g.sender, m); err != nil {
		return fmt.Errorf("mail alert to %s: %w", strings.Join(g.recipients, ", "), err)
	}
	log.Info("Alert mailed", "recipients", g.recipients)
	return nil
}
