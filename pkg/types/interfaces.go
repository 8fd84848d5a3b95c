package types

import "context"

// TagLister define la interfaz para listar los tags publicados de una
// imagen en su registro
type TagLister interface {
	// ListTags devuelve los tags publicados para la imagen dada
	ListTags(ctx context.Context, image ImageReference) ([]string, error)

	// Name devuelve el nombre del cliente
	Name() string
}

// ComposeParser define la interfaz para parsear archivos docker-compose
type ComposeParser interface {
	// ParseFile parsea un archivo docker-compose y extrae las imágenes
	ParseFile(ctx context.Context, filePath string) ([]ImageReference, error)

	// CanParse determina si el parser puede manejar el archivo dado
	CanParse(filePath string) bool
}

// NotificationClient define la interfaz para clientes de notificación
type NotificationClient interface {
	// SendNotification envía una notificación con el mensaje dado
	SendNotification(ctx context.Context, message string) error

	// Name devuelve el nombre del cliente de notificación
	Name() string
}

// ReportFormatter define la interfaz para formatear resultados
type ReportFormatter interface {
	// Format convierte un CheckResult en un string formateado
	Format(result CheckResult) (string, error)

	// FormatName devuelve el nombre del formato
	FormatName() string
}
