package alerts

import (
	"fmt"

	"github.com/charmbracelet/log"
)

type Alerter interface {
	SendAlert(title, content string) error
}

// AlertsConfig maps the alerts section of lcdconf.yaml
type AlertsConfig struct {
	FailOnError bool
	Gmail       MailerConfig
	Grafana     GrafanaConfig
}

type AlertsManager struct {
	failOnError bool
	alerters    []Alerter
}

func NewAlertsManager(config AlertsConfig) (*AlertsManager, error) {
	alerters := []Alerter{}

	if config.Gmail.Enabled {
		log.Debug("Initializing Gmail alerter")
		gmailAlerter, err := NewGmailAlerter(config.Gmail)
		if err != nil {
			return nil, err
		}

		alerters = append(alerters, gmailAlerter)
		log.Debug("Gmail alerter ready")
	}

	if config.Grafana.Enabled {
		log.Debug("Initializing Grafana alerter")
		grafanaAlerter := NewGrafanaAlerter(config.Grafana)
		alerters = append(alerters, grafanaAlerter)
		log.Debug("Grafana alerter ready")
	}

	return &AlertsManager{
		failOnError: config.FailOnError,
		alerters:    alerters,
	}, nil
}

// Len returns the number of configured alerters
func (am *AlertsManager) Len() int {
	return len(am.alerters)
}

// DispatchAlert reports that converting input failed in the run identified by runID
func (am *AlertsManager) DispatchAlert(runID, input string, cause error) error {
	title := fmt.Sprintf("lcdconf - failure converting %s", input)
	content := fmt.Sprintf("Run: %s\nCause: %v", runID, cause)

	for _, a := range am.alerters {
		if err := a.SendAlert(title, content); err != nil {
			log.Error("Alerter error", "err", err)
			if am.failOnError {
				return err
			}
		}
	}
	return nil
}
