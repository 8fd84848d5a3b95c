package reference

import (
	"strings"

	"github.com/user/image-update-checker/pkg/errors"
	"github.com/user/image-update-checker/pkg/types"
)

const (
	// DefaultTag es el tag asumido cuando la referencia no trae uno y el
	// origen permite un valor por defecto (compose, contenedores en ejecución)
	DefaultTag = "latest"

	// defaultNamespace es el namespace de las imágenes oficiales de Docker Hub
	defaultNamespace = "library"
)

// SplitTag separa una referencia en imagen y tag. Devuelve tag vacío cuando
// la referencia no trae tag o cuando el ':' pertenece al puerto del registro.
func SplitTag(ref string) (string, string) {
	lastColon := strings.LastIndex(ref, ":")
	lastSlash := strings.LastIndex(ref, "/")

	// Sin ':' o con el ':' delante del último '/': es un puerto, no un tag
	if lastColon == -1 || lastColon < lastSlash {
		return ref, ""
	}

	// Con más de un ':' la referencia es ambigua entre puerto y tag; el
	// segmento final se descarta sin tomarse como tag, de modo que la
	// imagen nunca arrastra el ':<segmento>' al repositorio
	if strings.Count(ref, ":") > 1 {
		return ref[:lastColon], ""
	}

	return ref[:lastColon], ref[lastColon+1:]
}

// splitDigest separa el digest "@sha256:..." si la referencia lo trae
func splitDigest(ref string) (string, string) {
	if idx := strings.Index(ref, "@"); idx >= 0 {
		return ref[:idx], ref[idx+1:]
	}
	return ref, ""
}

// splitRegistry separa el registro del repositorio. El primer segmento se
// trata como host solo si parece uno (contiene '.' o ':').
func splitRegistry(image string) (string, string) {
	if !strings.Contains(image, "/") {
		return types.DefaultRegistry, defaultNamespace + "/" + image
	}

	parts := strings.SplitN(image, "/", 2)
	if strings.Contains(parts[0], ".") || strings.Contains(parts[0], ":") {
		return parts[0], parts[1]
	}

	return types.DefaultRegistry, image
}

// Parse parsea una referencia de imagen en modo estricto: el tag es
// obligatorio y su ausencia devuelve ErrNoTagFound
func Parse(ref string) (types.ImageReference, error) {
	return parse(ref, "")
}

// ParseWithDefault parsea una referencia aplicando defaultTag cuando la
// referencia no trae tag. Es el modo usado para imágenes que vienen de
// archivos compose o de contenedores en ejecución.
func ParseWithDefault(ref, defaultTag string) (types.ImageReference, error) {
	if defaultTag == "" {
		defaultTag = DefaultTag
	}
	return parse(ref, defaultTag)
}

func parse(ref, defaultTag string) (types.ImageReference, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return types.ImageReference{}, errors.Wrapf("reference.Parse", errors.ErrInvalidReference, "empty reference")
	}

	rest, digest := splitDigest(trimmed)

	image, tag := SplitTag(rest)
	if tag == "" {
		if defaultTag == "" {
			return types.ImageReference{}, errors.Wrapf("reference.Parse", errors.ErrNoTagFound, "reference %q", ref)
		}
		tag = defaultTag
	}

	if image == "" {
		return types.ImageReference{}, errors.Wrapf("reference.Parse", errors.ErrInvalidReference, "reference %q has no repository", ref)
	}

	registry, repository := splitRegistry(image)
	if repository == "" {
		return types.ImageReference{}, errors.Wrapf("reference.Parse", errors.ErrInvalidReference, "reference %q has no repository", ref)
	}

	return types.ImageReference{
		Registry:   registry,
		Repository: repository,
		Tag:        tag,
		Digest:     digest,
	}, nil
}
