package types

import "fmt"

// DefaultRegistry es el host usado cuando la referencia no trae registro
// explícito (el endpoint real de la API de Docker Hub).
const DefaultRegistry = "registry-1.docker.io"

// ImageReference representa una referencia de imagen con su registro,
// repositorio y tag ya separados
type ImageReference struct {
	Registry      string `json:"registry"`
	Repository    string `json:"repository"`
	Tag           string `json:"tag"`
	Digest        string `json:"digest,omitempty"`
	ServiceName   string `json:"service_name,omitempty"`
	ComposeFile   string `json:"compose_file,omitempty"`
	ContainerID   string `json:"container_id,omitempty"`
	ContainerName string `json:"container_name,omitempty"`
}

// String devuelve la representación compacta de la referencia
func (r ImageReference) String() string {
	if r.Tag == "" {
		if r.Registry == "" || r.Registry == DefaultRegistry {
			return r.Repository
		}
		return fmt.Sprintf("%s/%s", r.Registry, r.Repository)
	}
	if r.Registry == "" || r.Registry == DefaultRegistry {
		return fmt.Sprintf("%s:%s", r.Repository, r.Tag)
	}
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// FullName devuelve el nombre completo incluyendo el registro
func (r ImageReference) FullName() string {
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// HasTag indica si la referencia trae un tag explícito
func (r ImageReference) HasTag() bool {
	return r.Tag != ""
}

// IsValid verifica si la referencia tiene los campos requeridos
func (r ImageReference) IsValid() bool {
	return r.Registry != "" && r.Repository != "" && r.Tag != ""
}
