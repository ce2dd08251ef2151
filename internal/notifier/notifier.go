package notifier

import (
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/scanforge/scanforge/pkg/shared/config"
	"github.com/scanforge/scanforge/pkg/shared/httpclient"
)

// Event is the scan-completed payload POSTed to the configured webhook.
type Event struct {
	ScanID        string `json:"scan_id"`
	Status        string `json:"status"`
	ExitCode      int    `json:"exit_code"`
	ArtifactCount int    `json:"artifact_count"`
}

// Notifier delivers scan-completed events. Delivery is best-effort; a dead
// webhook never affects scan outcomes.
type Notifier struct {
	url    string
	client *resty.Client
	logger hclog.Logger
}

// New builds a webhook notifier, or nil when no webhook URL is configured.
func New(cfg *config.Config, logger hclog.Logger) *Notifier {
	if cfg.Webhook.URL == "" {
		return nil
	}

	return &Notifier{
		url:    cfg.Webhook.URL,
		client: httpclient.InitializeRestyClient(logger, cfg),
		logger: logger,
	}
}

// ScanCompleted posts the event to the webhook.
func (n *Notifier) ScanCompleted(event Event) {
	resp, err := n.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(event).
		Post(n.url)
	if err != nil {
		n.logger.Warn("webhook delivery failed", "scanID", event.ScanID, "error", err)
		return
	}

	n.logger.Debug("webhook delivered", "scanID", event.ScanID, "status", resp.StatusCode())
}
