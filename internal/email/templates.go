package email

import (
	"fmt"
	"html"
	"strings"
)

// Message es un email ya renderizado.
type Message struct {
	Subject  string
	TextBody string
	HTMLBody string
}

// OTPMessage arma el correo con el código de verificación.
func OTPMessage(firstName, lastName, code string) Message {
	name := strings.TrimSpace(firstName + " " + lastName)
	text := fmt.Sprintf(
		"Hello %s,\n\nYour OTP code is: %s\n\nPlease use this code to complete your verification.",
		name, code)
	htmlBody := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your OTP code is: <strong>%s</strong></p><p>Please use this code to complete your verification.</p>",
		html.EscapeString(name), html.EscapeString(code))
	return Message{
		Subject:  "Your OTP Code",
		TextBody: text,
		HTMLBody: htmlBody,
	}
}

// AccountCreatedMessage arma el correo one-time de cuenta creada por el
// sweep de reconciliación. Incluye la password en claro usada en la
// creación del perfil: es la única vez que viaja por este canal.
func AccountCreatedMessage(firstName, email, password string) Message {
	greet := strings.TrimSpace(firstName)
	if greet == "" {
		greet = email
	}
	text := fmt.Sprintf(
		"Hello %s,\n\nYour member account has been created.\n\nLogin email: %s\nTemporary password: %s\n\nPlease sign in and change your password.",
		greet, email, password)
	htmlBody := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your member account has been created.</p><p>Login email: <strong>%s</strong><br>Temporary password: <strong>%s</strong></p><p>Please sign in and change your password.</p>",
		html.EscapeString(greet), html.EscapeString(email), html.EscapeString(password))
	return Message{
		Subject:  "Your member account is ready",
		TextBody: text,
		HTMLBody: htmlBody,
	}
}

// AmbiguousCompanyMessage arma el aviso de data-quality para ops cuando
// un companyId mapea a más de un memberType.
func AmbiguousCompanyMessage(companyID string, values []string) Message {
	text := fmt.Sprintf(
		"Company id %q maps to multiple member types: %s.\nThe first value (%q) was used. Please review the company directory.",
		companyID, strings.Join(values, ", "), values[0])
	return Message{
		Subject:  fmt.Sprintf("Ambiguous member type for company %s", companyID),
		TextBody: text,
	}
}
