package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/user/image-update-checker/pkg/errors"
	"github.com/user/image-update-checker/pkg/types"
)

const (
	userAgent        = "image-update-checker/1.0"
	dockerHubService = "registry.docker.io"

	defaultTimeout  = 30 * time.Second
	defaultPageSize = 100
	defaultMaxPages = 3
	maxPagesLimit   = 100
)

// Client consulta la API v2 de registros de imágenes (tags/list) con
// paginación y la estrategia de autenticación que corresponda al host
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	githubToken string
	pageSize    int
	maxPages    int

	// sobreescribibles en tests
	scheme        string
	dockerAuthURL string
	ecrTokenURL   string
}

// Options configura el cliente de registros
type Options struct {
	Timeout     time.Duration
	PageSize    int
	MaxPages    int
	GitHubToken string
}

// NewClient crea un nuevo cliente para la API v2 de registros
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	if maxPages > maxPagesLimit {
		maxPages = maxPagesLimit
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		// Límite conservador compartido por todos los registros, pensado
		// para los cupos anónimos de Docker Hub
		rateLimiter:   rate.NewLimiter(rate.Every(time.Second), 5),
		githubToken:   opts.GitHubToken,
		pageSize:      pageSize,
		maxPages:      maxPages,
		scheme:        "https",
		dockerAuthURL: "https://auth.docker.io/token",
		ecrTokenURL:   "https://public.ecr.aws/token/",
	}
}

// Name devuelve el nombre del cliente
func (c *Client) Name() string {
	return "registry-v2"
}

// ListTags obtiene los tags publicados de la imagen consultando
// /v2/<repositorio>/tags/list y siguiendo la paginación hasta maxPages
func (c *Client) ListTags(ctx context.Context, image types.ImageReference) ([]string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, errors.Wrap("registry.ListTags", err)
	}

	registry := image.Registry
	if registry == "" {
		registry = types.DefaultRegistry
	}

	authHeader, err := c.authHeader(ctx, ClassifyRegistry(registry), image.Repository)
	if err != nil {
		return nil, err
	}

	pageURL := fmt.Sprintf("%s://%s/v2/%s/tags/list?page_size=%d&page=1&ordering=last_updated",
		c.scheme, registry, image.Repository, c.pageSize)

	var tags []string
	for page := 1; page <= c.maxPages; page++ {
		pageTags, next, err := c.listPage(ctx, pageURL, authHeader)
		if err != nil {
			return nil, err
		}
		tags = append(tags, pageTags...)
		if next == "" {
			break
		}
		pageURL = next
	}

	return tags, nil
}

// tagListResponse cubre las dos formas de respuesta de tags/list: la lista
// plana de la API de distribución y la forma paginada estilo Docker Hub
type tagListResponse struct {
	Name    string   `json:"name"`
	Tags    []string `json:"tags"`
	Next    string   `json:"next"`
	Results []struct {
		Name string `json:"name"`
	} `json:"results"`
}

// listPage pide una página de tags y devuelve la URL de la siguiente, vacía
// cuando no hay más
func (c *Client) listPage(ctx context.Context, pageURL, authHeader string) ([]string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", errors.Wrapf("registry.ListTags", err, "creating request to %s", pageURL)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", errors.Wrapf("registry.ListTags", errors.ErrRegistryRequestFailed, "requesting %s: %v", pageURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", errors.Wrapf("registry.ListTags", errors.ErrRegistryRequestFailed, "unexpected status %d from %s", resp.StatusCode, pageURL)
	}

	var response tagListResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, "", errors.Wrapf("registry.ListTags", err, "decoding response from %s", pageURL)
	}

	// La forma con results tiene prioridad cuando viene poblada
	tags := response.Tags
	if len(response.Results) > 0 {
		tags = make([]string, 0, len(response.Results))
		for _, result := range response.Results {
			tags = append(tags, result.Name)
		}
	}

	next := response.Next
	if next == "" {
		next = linkNext(resp.Header.Get("Link"))
	}

	return tags, resolveNext(pageURL, next), nil
}

// linkNext extrae la URL con rel="next" de un header Link (RFC 5988)
func linkNext(header string) string {
	for _, part := range strings.Split(header, ",") {
		sections := strings.Split(part, ";")
		if len(sections) < 2 {
			continue
		}
		target := strings.Trim(strings.TrimSpace(sections[0]), "<>")
		for _, param := range sections[1:] {
			param = strings.TrimSpace(param)
			if param == `rel="next"` || param == "rel=next" {
				return target
			}
		}
	}
	return ""
}

// resolveNext resuelve la URL de la siguiente página, que puede venir
// relativa al endpoint actual
func resolveNext(current, next string) string {
	if next == "" {
		return ""
	}
	base, err := url.Parse(current)
	if err != nil {
		return next
	}
	ref, err := url.Parse(next)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
