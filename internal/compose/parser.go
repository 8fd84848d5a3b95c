package compose

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/user/image-update-checker/pkg/errors"
	"github.com/user/image-update-checker/pkg/reference"
	"github.com/user/image-update-checker/pkg/types"
	yaml "gopkg.in/yaml.v3"
)

// Parser implementa la interfaz ComposeParser para parsear archivos docker-compose
type Parser struct{}

// NewParser crea una nueva instancia del parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile parsea un archivo docker-compose y extrae las referencias de imagen
func (p *Parser) ParseFile(ctx context.Context, filePath string) ([]types.ImageReference, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec
	if err != nil {
		return nil, errors.Wrapf("compose.ParseFile", err, "reading file %s", filePath)
	}

	var compose ComposeFile
	if err := yaml.Unmarshal(data, &compose); err != nil {
		return nil, errors.Wrapf("compose.ParseFile", err, "parsing YAML file %s", filePath)
	}

	var images []types.ImageReference
	for serviceName, service := range compose.Services {
		if service.Image == "" {
			// Skip services without image (they might use build instead)
			continue
		}

		// Los servicios sin tag explícito usan "latest", igual que docker compose
		image, err := reference.ParseWithDefault(service.Image, reference.DefaultTag)
		if err != nil {
			// Skip malformed references but keep parsing the rest of the file
			continue
		}

		// Add service context to the image for better tracking
		image.ServiceName = serviceName
		image.ComposeFile = filePath

		images = append(images, image)
	}

	return images, nil
}

// CanParse determina si el parser puede manejar el archivo dado
func (p *Parser) CanParse(filePath string) bool {
	name := filepath.Base(filePath)

	// Patrones estándar de docker-compose
	patterns := []string{
		"docker-compose.yml",
		"docker-compose.yaml",
		"compose.yml",
		"compose.yaml",
	}

	// Verificar patrones exactos
	for _, pattern := range patterns {
		if name == pattern {
			return true
		}
	}

	// Verificar patrones con prefijos (docker-compose.prod.yml, etc.)
	if strings.HasPrefix(name, "docker-compose.") && (strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")) {
		return true
	}

	return false
}

// ComposeFile representa la estructura de un archivo docker-compose
type ComposeFile struct {
	Version  string             `yaml:"version,omitempty"`
	Services map[string]Service `yaml:"services"`
}

// Service representa un servicio en docker-compose
type Service struct {
	Image       string            `yaml:"image,omitempty"`
	Build       interface{}       `yaml:"build,omitempty"` // Puede ser string o objeto
	Environment interface{}       `yaml:"environment,omitempty"`
	Ports       []interface{}     `yaml:"ports,omitempty"`
	Volumes     []interface{}     `yaml:"volumes,omitempty"`
	DependsOn   interface{}       `yaml:"depends_on,omitempty"`
	Networks    interface{}       `yaml:"networks,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
}
