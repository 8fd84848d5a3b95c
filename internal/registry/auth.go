package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/user/image-update-checker/pkg/errors"
)

// AuthStrategy identifica cómo autenticarse contra un registro
type AuthStrategy int

const (
	// AuthNone consulta el registro sin autenticación
	AuthNone AuthStrategy = iota
	// AuthDockerHub intercambia un token anónimo de pull con auth.docker.io
	AuthDockerHub
	// AuthECR intercambia un token anónimo con public.ecr.aws
	AuthECR
	// AuthGHCR usa el token de GitHub aportado por el usuario
	AuthGHCR
)

// String devuelve el nombre de la estrategia
func (s AuthStrategy) String() string {
	switch s {
	case AuthDockerHub:
		return "dockerhub"
	case AuthECR:
		return "ecr"
	case AuthGHCR:
		return "ghcr"
	default:
		return "none"
	}
}

// ClassifyRegistry decide la estrategia de autenticación según el host del
// registro. ECR se comprueba antes que Docker Hub porque las comprobaciones
// son por subcadena.
func ClassifyRegistry(host string) AuthStrategy {
	switch {
	case strings.Contains(host, "public.ecr.aws"):
		return AuthECR
	case strings.Contains(host, "ghcr"):
		return AuthGHCR
	case strings.Contains(host, "docker"):
		return AuthDockerHub
	default:
		return AuthNone
	}
}

// tokenResponse es la respuesta de los endpoints de intercambio de token
type tokenResponse struct {
	Token string `json:"token"`
}

// authHeader devuelve el valor del header Authorization para la estrategia
// dada, o cadena vacía cuando el registro no requiere autenticación
func (c *Client) authHeader(ctx context.Context, strategy AuthStrategy, repository string) (string, error) {
	switch strategy {
	case AuthGHCR:
		if c.githubToken == "" {
			return "", errors.Wrapf("registry.authHeader", errors.ErrMissingCredential,
				"listing %s tags requires a GitHub token", repository)
		}
		return "Bearer " + c.githubToken, nil
	case AuthDockerHub:
		tokenURL := fmt.Sprintf("%s?service=%s&scope=repository:%s:pull",
			c.dockerAuthURL, dockerHubService, repository)
		return c.exchangeToken(ctx, tokenURL)
	case AuthECR:
		return c.exchangeToken(ctx, c.ecrTokenURL)
	default:
		return "", nil
	}
}

// exchangeToken pide un token anónimo de pull al endpoint dado
func (c *Client) exchangeToken(ctx context.Context, tokenURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenURL, nil)
	if err != nil {
		return "", errors.Wrapf("registry.exchangeToken", err, "creating request to %s", tokenURL)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrapf("registry.exchangeToken", errors.ErrRegistryRequestFailed, "requesting %s: %v", tokenURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrapf("registry.exchangeToken", errors.ErrRegistryRequestFailed, "unexpected status %d from %s", resp.StatusCode, tokenURL)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", errors.Wrapf("registry.exchangeToken", err, "decoding token response from %s", tokenURL)
	}

	if token.Token == "" {
		return "", errors.Wrapf("registry.exchangeToken", errors.ErrAuthTokenMissing, "response from %s", tokenURL)
	}

	return "Bearer " + token.Token, nil
}
