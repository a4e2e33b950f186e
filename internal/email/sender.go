// Package email contiene el envío de correo transaccional: interfaz
// Sender, implementación SMTP y los templates del flujo de signup.
package email

import "github.com/AbinJoseph007/new-member-api/internal/observability/logger"

// Sender es la interfaz para enviar emails.
// Implementada por SMTPSender.
type Sender interface {
	// Send envía un email con contenido texto plano y HTML opcional.
	// Si ambos están presentes van como multipart/alternative.
	Send(to string, subject string, textBody string, htmlBody string) error
}

// NopSender descarta los emails logueando el destino. Para entornos dev
// sin SMTP configurado.
type NopSender struct{}

func (NopSender) Send(to, subject, _, _ string) error {
	logger.L().Info("email discarded (no smtp configured)",
		logger.String("to", to),
		logger.String("subject", subject),
	)
	return nil
}
