// Herramienta de depuración: lista los tags de una imagen y muestra qué
// versiones se considerarían más nuevas que la actual.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/user/image-update-checker/internal/registry"
	"github.com/user/image-update-checker/pkg/reference"
	"github.com/user/image-update-checker/pkg/version"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: check_tags <reference>")
		fmt.Println("example: check_tags nginx:1.25.0")
		os.Exit(2)
	}

	image, err := reference.Parse(os.Args[1])
	if err != nil {
		log.Fatalf("Parse error: %v", err)
	}

	current, err := version.Parse(image.Tag)
	if err != nil {
		log.Fatalf("Current tag %q has no version shape: %v", image.Tag, err)
	}

	client := registry.NewClient(registry.Options{
		Timeout:     30 * time.Second,
		GitHubToken: os.Getenv("GITHUB_TOKEN"),
	})
	ctx := context.Background()

	tags, err := client.ListTags(ctx, image)
	if err != nil {
		log.Fatalf("ListTags error: %v", err)
	}

	fmt.Printf("Retrieved %d tags for %s/%s\n", len(tags), image.Registry, image.Repository)

	newer := version.Resolve(current, tags, slog.Default())
	if len(newer) == 0 {
		fmt.Printf("Up to date: no versions newer than %s\n", image.Tag)
		return
	}

	fmt.Printf("Newer versions (%d):\n", len(newer))
	for _, v := range newer {
		fmt.Printf("  %s\n", v.Original)
	}

	latest := newer[len(newer)-1]
	fmt.Printf("Latest: %s (%s update)\n", latest.Original, version.Diff(current, latest))
}
