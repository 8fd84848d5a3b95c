package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/user/image-update-checker/pkg/errors"
	"github.com/user/image-update-checker/pkg/types"
)

// testClient crea un cliente apuntando al servidor mock por http plano
func testClient(server *httptest.Server, opts Options) (*Client, string) {
	client := NewClient(opts)
	client.scheme = "http"
	return client, strings.TrimPrefix(server.URL, "http://")
}

func TestClient_Name(t *testing.T) {
	client := NewClient(Options{})
	if client.Name() != "registry-v2" {
		t.Errorf("Expected name 'registry-v2', got '%s'", client.Name())
	}
}

func TestClient_ListTags_FlatResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/myorg/myapp/tags/list" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"name": "myorg/myapp", "tags": ["1.0.0", "1.1.0", "latest"]}`)
	}))
	defer server.Close()

	client, host := testClient(server, Options{})

	tags, err := client.ListTags(context.Background(), types.ImageReference{
		Registry:   host,
		Repository: "myorg/myapp",
		Tag:        "1.0.0",
	})
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}

	expected := []string{"1.0.0", "1.1.0", "latest"}
	if len(tags) != len(expected) {
		t.Fatalf("ListTags returned %v, want %v", tags, expected)
	}
	for i, tag := range expected {
		if tags[i] != tag {
			t.Errorf("ListTags()[%d] = %q, want %q", i, tags[i], tag)
		}
	}
}

func TestClient_ListTags_ResultsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// La forma estilo Docker Hub manda results y puede traer tags vacío
		fmt.Fprint(w, `{
			"count": 2,
			"next": null,
			"results": [
				{"name": "1.27.0", "last_updated": "2024-06-01T00:00:00Z"},
				{"name": "1.27.1", "last_updated": "2024-07-01T00:00:00Z"}
			]
		}`)
	}))
	defer server.Close()

	client, host := testClient(server, Options{})

	tags, err := client.ListTags(context.Background(), types.ImageReference{
		Registry:   host,
		Repository: "library/nginx",
		Tag:        "1.27.0",
	})
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}

	expected := []string{"1.27.0", "1.27.1"}
	if len(tags) != len(expected) {
		t.Fatalf("ListTags returned %v, want %v", tags, expected)
	}
	for i, tag := range expected {
		if tags[i] != tag {
			t.Errorf("ListTags()[%d] = %q, want %q", i, tags[i], tag)
		}
	}
}

func TestClient_ListTags_PaginationBodyNext(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.String())
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"results": [{"name": "1.0.0"}, {"name": "1.1.0"}], "next": "/v2/myorg/myapp/tags/list?page_size=2&page=2"}`)
		case "2":
			fmt.Fprint(w, `{"results": [{"name": "1.2.0"}], "next": null}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, host := testClient(server, Options{PageSize: 2})

	tags, err := client.ListTags(context.Background(), types.ImageReference{
		Registry:   host,
		Repository: "myorg/myapp",
		Tag:        "1.0.0",
	})
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}

	expected := []string{"1.0.0", "1.1.0", "1.2.0"}
	if len(tags) != len(expected) {
		t.Fatalf("ListTags returned %v, want %v", tags, expected)
	}
	for i, tag := range expected {
		if tags[i] != tag {
			t.Errorf("ListTags()[%d] = %q, want %q", i, tags[i], tag)
		}
	}
	if len(requests) != 2 {
		t.Errorf("Expected 2 requests, got %d: %v", len(requests), requests)
	}
}

func TestClient_ListTags_PaginationLinkHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		// Paginación estilo API de distribución: lista plana mas header Link
		if r.URL.Query().Get("last") == "" {
			w.Header().Set("Link", `</v2/myorg/myapp/tags/list?last=2.0.0&n=100>; rel="next"`)
			fmt.Fprint(w, `{"name": "myorg/myapp", "tags": ["1.0.0", "2.0.0"]}`)
			return
		}
		fmt.Fprint(w, `{"name": "myorg/myapp", "tags": ["3.0.0"]}`)
	}))
	defer server.Close()

	client, host := testClient(server, Options{})

	tags, err := client.ListTags(context.Background(), types.ImageReference{
		Registry:   host,
		Repository: "myorg/myapp",
		Tag:        "1.0.0",
	})
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}

	expected := []string{"1.0.0", "2.0.0", "3.0.0"}
	if len(tags) != len(expected) {
		t.Fatalf("ListTags returned %v, want %v", tags, expected)
	}
}

func TestClient_ListTags_MaxPagesBound(t *testing.T) {
	var requestCount int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.Header().Set("Content-Type", "application/json")
		// El servidor siempre anuncia otra página
		fmt.Fprintf(w, `{"results": [{"name": "1.0.%d"}], "next": "/v2/myorg/myapp/tags/list?page=%d"}`,
			requestCount, requestCount+1)
	}))
	defer server.Close()

	client, host := testClient(server, Options{MaxPages: 3})

	tags, err := client.ListTags(context.Background(), types.ImageReference{
		Registry:   host,
		Repository: "myorg/myapp",
		Tag:        "1.0.0",
	})
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}

	if requestCount != 3 {
		t.Errorf("Expected exactly 3 requests, got %d", requestCount)
	}
	if len(tags) != 3 {
		t.Errorf("Expected 3 tags, got %v", tags)
	}
}

func TestClient_ListTags_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, host := testClient(server, Options{})

	_, err := client.ListTags(context.Background(), types.ImageReference{
		Registry:   host,
		Repository: "myorg/myapp",
		Tag:        "1.0.0",
	})
	if err == nil {
		t.Fatal("Expected error for 500 response")
	}
	if !errors.IsType(err, errors.ErrRegistryRequestFailed) {
		t.Errorf("Expected ErrRegistryRequestFailed, got: %v", err)
	}
}

func TestClient_ListTags_GHCRWithoutToken(t *testing.T) {
	// La clasificación falla antes de tocar la red, no hace falta servidor
	client := NewClient(Options{})

	_, err := client.ListTags(context.Background(), types.ImageReference{
		Registry:   "ghcr.io",
		Repository: "owner/repo",
		Tag:        "1.0.0",
	})
	if err == nil {
		t.Fatal("Expected error for GHCR without token")
	}
	if !errors.IsType(err, errors.ErrMissingCredential) {
		t.Errorf("Expected ErrMissingCredential, got: %v", err)
	}
}

func TestClient_listPage_SendsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("User-Agent") != userAgent {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"tags": ["1.0.0"]}`)
	}))
	defer server.Close()

	client := NewClient(Options{})

	tags, next, err := client.listPage(context.Background(), server.URL+"/v2/myorg/myapp/tags/list", "Bearer test-token")
	if err != nil {
		t.Fatalf("listPage failed: %v", err)
	}
	if len(tags) != 1 || tags[0] != "1.0.0" {
		t.Errorf("listPage returned %v, want [1.0.0]", tags)
	}
	if next != "" {
		t.Errorf("Expected no next page, got %q", next)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Options{})

	if client.pageSize != defaultPageSize {
		t.Errorf("Expected default page size %d, got %d", defaultPageSize, client.pageSize)
	}
	if client.maxPages != defaultMaxPages {
		t.Errorf("Expected default max pages %d, got %d", defaultMaxPages, client.maxPages)
	}
	if client.httpClient.Timeout != defaultTimeout {
		t.Errorf("Expected default timeout %v, got %v", defaultTimeout, client.httpClient.Timeout)
	}

	clamped := NewClient(Options{MaxPages: 500, Timeout: 10 * time.Second})
	if clamped.maxPages != maxPagesLimit {
		t.Errorf("Expected max pages clamped to %d, got %d", maxPagesLimit, clamped.maxPages)
	}
	if clamped.httpClient.Timeout != 10*time.Second {
		t.Errorf("Expected timeout 10s, got %v", clamped.httpClient.Timeout)
	}
}

func TestLinkNext(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{
			name:     "quoted rel",
			header:   `</v2/repo/tags/list?last=a&n=100>; rel="next"`,
			expected: "/v2/repo/tags/list?last=a&n=100",
		},
		{
			name:     "unquoted rel",
			header:   `</v2/repo/tags/list?last=a>; rel=next`,
			expected: "/v2/repo/tags/list?last=a",
		},
		{
			name:     "multiple links",
			header:   `</first>; rel="prev", </second>; rel="next"`,
			expected: "/second",
		},
		{
			name:     "no next",
			header:   `</first>; rel="prev"`,
			expected: "",
		},
		{
			name:     "empty header",
			header:   "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := linkNext(tt.header); result != tt.expected {
				t.Errorf("linkNext(%q) = %q, want %q", tt.header, result, tt.expected)
			}
		})
	}
}

func TestResolveNext(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		next     string
		expected string
	}{
		{
			name:     "relative path",
			current:  "https://registry.example.com/v2/repo/tags/list?page=1",
			next:     "/v2/repo/tags/list?page=2",
			expected: "https://registry.example.com/v2/repo/tags/list?page=2",
		},
		{
			name:     "absolute url",
			current:  "https://registry.example.com/v2/repo/tags/list",
			next:     "https://other.example.com/v2/repo/tags/list?page=2",
			expected: "https://other.example.com/v2/repo/tags/list?page=2",
		},
		{
			name:     "empty next",
			current:  "https://registry.example.com/v2/repo/tags/list",
			next:     "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := resolveNext(tt.current, tt.next); result != tt.expected {
				t.Errorf("resolveNext(%q, %q) = %q, want %q", tt.current, tt.next, result, tt.expected)
			}
		})
	}
}
