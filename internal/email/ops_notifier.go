package email

import (
	"github.com/AbinJoseph007/new-member-api/internal/observability/logger"
)

// OpsNotifier manda avisos de data-quality a una casilla de operaciones.
// Implementa directory.AmbiguityNotifier. Fire-and-forget: el envío corre
// en una goroutine y los fallos solo se loguean.
type OpsNotifier struct {
	Sender Sender
	To     string
}

// NewOpsNotifier crea el notifier. Si to está vacío, los avisos solo
// quedan en el log.
func NewOpsNotifier(sender Sender, to string) *OpsNotifier {
	return &OpsNotifier{Sender: sender, To: to}
}

func (n *OpsNotifier) NotifyAmbiguousCompanyID(companyID string, values []string) {
	if n == nil || n.Sender == nil || n.To == "" {
		return
	}
	msg := AmbiguousCompanyMessage(companyID, values)
	go func() {
		if err := n.Sender.Send(n.To, msg.Subject, msg.TextBody, msg.HTMLBody); err != nil {
			logger.L().Warn("ops notification failed",
				logger.Component("OpsNotifier"),
				logger.CompanyID(companyID),
				logger.Err(err),
			)
		}
	}()
}
