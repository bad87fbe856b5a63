// Package mail envía los correos transaccionales de la aplicación vía SMTP.
package mail

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/jhoicas/almoxarifado-api/internal/application/auth"
	"github.com/jhoicas/almoxarifado-api/pkg/config"
)

var _ auth.Mailer = (*Mailer)(nil)

// Mailer envío de correos por SMTP. Si el host está vacío, el mailer queda
// deshabilitado y los envíos fallan con error explícito en vez de colgarse.
type Mailer struct {
	cfg config.SMTPConfig
}

// NewMailer construye el mailer con la configuración SMTP.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Enabled indica si hay servidor SMTP configurado.
func (m *Mailer) Enabled() bool { return m.cfg.Host != "" }

// SendPasswordReset envía el correo con el link de redefinición de contraseña.
func (m *Mailer) SendPasswordReset(to, username, resetURL string) error {
	if !m.Enabled() {
		return fmt.Errorf("mailer deshabilitado: SMTP_HOST no configurado")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Redefinición de contraseña")
	msg.SetBody("text/html", fmt.Sprintf(`
		<p>Hola %s,</p>
		<p>Recibimos una solicitud para redefinir tu contraseña. El link es válido por una hora:</p>
		<p><a href="%s">%s</a></p>
		<p>Si no fuiste tú, ignora este correo.</p>`,
		username, resetURL, resetURL))

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("enviar correo de redefinición: %w", err)
	}
	return nil
}
