package report

import (
	"encoding/json"

	"github.com/user/image-update-checker/pkg/types"
)

// JSONFormatter implementa ReportFormatter para generar reportes en formato JSON
type JSONFormatter struct{}

// Format convierte un CheckResult en un string JSON formateado
func (f JSONFormatter) Format(result types.CheckResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatName devuelve el nombre del formato
func (f JSONFormatter) FormatName() string {
	return "json"
}
