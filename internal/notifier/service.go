package notifier

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/user/image-update-checker/pkg/errors"
	"github.com/user/image-update-checker/pkg/types"
)

// NotificationService coordina el envío de notificaciones a múltiples clientes
type NotificationService struct {
	clients []types.NotificationClient
}

// FileSender lo implementan los clientes capaces de adjuntar archivos
type FileSender interface {
	SendFile(ctx context.Context, filePath, fileName, caption string) error
}

// NewNotificationService crea un nuevo servicio de notificaciones
func NewNotificationService(clients ...types.NotificationClient) *NotificationService {
	return &NotificationService{
		clients: clients,
	}
}

// AddClient agrega un cliente de notificación al servicio
func (s *NotificationService) AddClient(client types.NotificationClient) {
	s.clients = append(s.clients, client)
}

// NotifyCheckResult envía el resultado de una comprobación a todos los
// clientes. Cuando no hay novedades ni errores no se envía nada.
func (s *NotificationService) NotifyCheckResult(ctx context.Context, result types.CheckResult) error {
	if len(s.clients) == 0 {
		return nil // No hay clientes configurados, no es un error
	}

	// Solo notificar si hay actualizaciones o errores
	if !result.HasUpdates() && !result.HasErrors() {
		return nil // Nada que notificar
	}

	message := buildMessage(result)

	// Enviar a todos los clientes
	var errs []string
	for _, client := range s.clients {
		if err := client.SendNotification(ctx, message); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", client.Name(), err))
		}
	}

	if len(errs) > 0 {
		return errors.Wrapf("notifier.NotifyCheckResult", errors.ErrNotificationFailed, "%s", strings.Join(errs, "; "))
	}

	return nil
}

// NotifyCustomMessage envía un mensaje personalizado a todos los clientes
func (s *NotificationService) NotifyCustomMessage(ctx context.Context, message string) error {
	if len(s.clients) == 0 {
		return nil // No hay clientes configurados, no es un error
	}

	// Enviar a todos los clientes
	var errs []string
	for _, client := range s.clients {
		if err := client.SendNotification(ctx, message); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", client.Name(), err))
		}
	}

	if len(errs) > 0 {
		return errors.Wrapf("notifier.NotifyCustomMessage", errors.ErrNotificationFailed, "%s", strings.Join(errs, "; "))
	}

	return nil
}

// NotifyReportFile adjunta un archivo de reporte en los clientes que lo
// soportan. Los clientes sin soporte de archivos se omiten en silencio.
func (s *NotificationService) NotifyReportFile(ctx context.Context, filePath, fileName, caption string) error {
	var errs []string
	for _, client := range s.clients {
		sender, ok := client.(FileSender)
		if !ok {
			continue
		}
		if err := sender.SendFile(ctx, filePath, fileName, caption); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", client.Name(), err))
		}
	}

	if len(errs) > 0 {
		return errors.Wrapf("notifier.NotifyReportFile", errors.ErrNotificationFailed, "%s", strings.Join(errs, "; "))
	}

	return nil
}

// HasClients verifica si hay clientes de notificación configurados
func (s *NotificationService) HasClients() bool {
	return len(s.clients) > 0
}

// GetClientNames devuelve los nombres de todos los clientes configurados
func (s *NotificationService) GetClientNames() []string {
	names := make([]string, len(s.clients))
	for i, client := range s.clients {
		names[i] = client.Name()
	}
	return names
}

// buildMessage arma el texto de la notificación en el HTML que admite Telegram
func buildMessage(result types.CheckResult) string {
	var b strings.Builder

	b.WriteString("🐳 <b>Image update check</b>\n")
	b.WriteString(result.Summary())
	b.WriteString("\n")

	// Los valores interpolados se escapan porque el mensaje viaja con
	// parse_mode HTML y un '<' suelto hace que Telegram rechace el envío
	for _, report := range result.UpdatedReferences() {
		fmt.Fprintf(&b, "\n🔄 <b>%s</b>\n", html.EscapeString(report.Reference))
		fmt.Fprintf(&b, "   %s → %s (%s)\n", report.Image.Tag, report.LatestTag, report.UpdateType)
		if len(report.NewerTags) > 1 {
			fmt.Fprintf(&b, "   newer tags: %s\n", strings.Join(report.NewerTags, ", "))
		}
	}

	failed := result.FailedReferences()
	if len(failed) > 0 {
		b.WriteString("\n❌ <b>Errors</b>\n")
		for _, report := range failed {
			fmt.Fprintf(&b, "   %s: %s\n", html.EscapeString(report.Reference), html.EscapeString(report.Error))
		}
	}

	return b.String()
}
