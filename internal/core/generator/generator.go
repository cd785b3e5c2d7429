package generator

import "context"

// Image is one generated image file, ready to drop into a job's working area.
type Image struct {
	Name string
	Data []byte
}

// Generator produces landing-page artifacts. Each call is a blocking request
// to a remote AI provider; the pipeline executor owns sequencing and file
// placement, so implementations stay free of filesystem concerns (internal
// fan-out inside HeroImages is their own business).
type Generator interface {
	// Wireframe turns a formatted brief into bare HTML structure.
	Wireframe(ctx context.Context, brief string) (string, error)
	// Stylesheet designs CSS for the given HTML.
	Stylesheet(ctx context.Context, html string) (string, error)
	// Script adds JavaScript behaviour for the given HTML and CSS.
	Script(ctx context.Context, html, css string) (string, error)
	// HeroImages proposes and renders hero image files for the page.
	HeroImages(ctx context.Context, html string) ([]Image, error)
	// ApplyImage rewrites HTML and CSS to use the generated hero image.
	ApplyImage(ctx context.Context, html, css string) (finalHTML, finalCSS string, err error)
}
