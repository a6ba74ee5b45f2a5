package gallery

import "context"

// Service is the remote picker service that owns galleries, settings and images.
// Implementations return *NetworkError, *ServiceError or ErrEmptyResult on failure
// and never retry.
type Service interface {
	// ListGalleries returns every gallery the service knows about
	ListGalleries(ctx context.Context) ([]Gallery, error)

	// GetSettings returns the stored settings, possibly incomplete
	GetSettings(ctx context.Context) (Settings, error)

	// SaveSettings stores settings and reports whether the service accepted them
	SaveSettings(ctx context.Context, settings Settings) (bool, error)

	// ListImages returns the images of a gallery matching the show mode.
	// An empty result is reported as ErrEmptyResult.
	ListImages(ctx context.Context, gallerySlug string, mode ShowMode) ([]Image, error)

	// MarkImage flags an image as reviewed and returns the updated record
	MarkImage(ctx context.Context, gallerySlug, imageName string) (Image, error)

	// UnmarkImage clears the reviewed flag and returns the updated record
	UnmarkImage(ctx context.Context, gallerySlug, imageName string) (Image, error)

	// DeleteImage removes an image and reports whether the service did so
	DeleteImage(ctx context.Context, gallerySlug, imageName string) (bool, error)
}
