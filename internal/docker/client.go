package docker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/user/image-update-checker/pkg/reference"
	"github.com/user/image-update-checker/pkg/types"
)

// Client wraps Docker daemon client functionality
type Client struct {
	client *client.Client
	logger *slog.Logger
}

// NewClient creates a new Docker daemon client
func NewClient(logger *slog.Logger) (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}

	return &Client{
		client: cli,
		logger: logger,
	}, nil
}

// Close closes the Docker client connection
func (d *Client) Close() error {
	return d.client.Close()
}

// ScanRunningContainers scans all running containers and extracts their image references
func (d *Client) ScanRunningContainers(ctx context.Context) ([]types.ImageReference, error) {
	d.logger.Info("Scanning running containers via Docker daemon")

	containers, err := d.client.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing containers: %w", err)
	}

	if len(containers) == 0 {
		d.logger.Warn("No running containers found")
		return []types.ImageReference{}, nil
	}

	d.logger.Info("Found running containers", "count", len(containers))

	var images []types.ImageReference
	for _, cont := range containers {
		image, err := d.extractImageFromContainer(ctx, cont)
		if err != nil {
			d.logger.Error("Failed to extract image from container",
				"container_id", cont.ID[:12],
				"container_name", d.getContainerName(cont),
				"error", err)
			continue
		}

		images = append(images, image)
	}

	d.logger.Info("Extracted images from running containers", "count", len(images))
	return images, nil
}

// extractImageFromContainer extracts the image reference a container was started from
func (d *Client) extractImageFromContainer(ctx context.Context, cont container.Summary) (types.ImageReference, error) {
	// Get detailed container information
	inspect, err := d.client.ContainerInspect(ctx, cont.ID)
	if err != nil {
		return types.ImageReference{}, fmt.Errorf("inspecting container %s: %w", cont.ID[:12], err)
	}

	// Containers started without an explicit tag run "latest"
	imageStr := inspect.Config.Image
	image, err := reference.ParseWithDefault(imageStr, reference.DefaultTag)
	if err != nil {
		return types.ImageReference{}, fmt.Errorf("parsing image string %s: %w", imageStr, err)
	}

	// Extract service name from labels or container name
	serviceName := d.extractServiceName(cont, inspect.Config.Labels)
	image.ServiceName = serviceName

	// Add container context
	image.ContainerID = cont.ID[:12]
	image.ContainerName = d.getContainerName(cont)

	d.logger.Debug("Extracted image from container",
		"container", image.ContainerName,
		"service", serviceName,
		"image", image.String())

	return image, nil
}

// extractServiceName extracts service name from container labels or name
func (d *Client) extractServiceName(cont container.Summary, labels map[string]string) string {
	// Try compose service label first
	if serviceName, ok := labels["com.docker.compose.service"]; ok {
		return serviceName
	}

	// Fall back to container name (remove leading slash and suffix)
	name := d.getContainerName(cont)
	// Remove common suffixes like _1, _2, etc.
	if idx := strings.LastIndex(name, "_"); idx > 0 {
		if suffix := name[idx+1:]; len(suffix) <= 2 {
			// Check if suffix is numeric
			if _, err := fmt.Sscanf(suffix, "%d", new(int)); err == nil {
				name = name[:idx]
			}
		}
	}

	return name
}

// getContainerName returns the first container name without leading slash
func (d *Client) getContainerName(cont container.Summary) string {
	if len(cont.Names) > 0 {
		return strings.TrimPrefix(cont.Names[0], "/")
	}
	return cont.ID[:12]
}

// Ping tests connection to Docker daemon
func (d *Client) Ping(ctx context.Context) error {
	_, err := d.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("pinging docker daemon: %w", err)
	}
	return nil
}
