// Package generatortest provides a canned Generator for exercising the
// pipeline without touching any AI provider.
package generatortest

import (
	"context"

	"github.com/takerupon/lp-generator/internal/core/generator"
)

// Fake implements generator.Generator with overridable function fields.
// Unset fields fall back to small canned artifacts so a default Fake drives
// a job to completion.
type Fake struct {
	WireframeFunc  func(ctx context.Context, brief string) (string, error)
	StylesheetFunc func(ctx context.Context, html string) (string, error)
	ScriptFunc     func(ctx context.Context, html, css string) (string, error)
	HeroImagesFunc func(ctx context.Context, html string) ([]generator.Image, error)
	ApplyImageFunc func(ctx context.Context, html, css string) (string, string, error)
}

const (
	DefaultHTML = "<html><body><h1>Landing</h1></body></html>"
	DefaultCSS  = "body { margin: 0; }"
	DefaultJS   = "document.title = 'landing';"
)

// DefaultImageName matches the file the apply-image stage references.
const DefaultImageName = "placeholder_css_1.jpg"

// DefaultImageData is not a real JPEG, which is fine: nothing decodes it.
var DefaultImageData = []byte("fake-jpeg-bytes")

func (f *Fake) Wireframe(ctx context.Context, brief string) (string, error) {
	if f.WireframeFunc != nil {
		return f.WireframeFunc(ctx, brief)
	}
	return DefaultHTML, nil
}

func (f *Fake) Stylesheet(ctx context.Context, html string) (string, error) {
	if f.StylesheetFunc != nil {
		return f.StylesheetFunc(ctx, html)
	}
	return DefaultCSS, nil
}

func (f *Fake) Script(ctx context.Context, html, css string) (string, error) {
	if f.ScriptFunc != nil {
		return f.ScriptFunc(ctx, html, css)
	}
	return DefaultJS, nil
}

func (f *Fake) HeroImages(ctx context.Context, html string) ([]generator.Image, error) {
	if f.HeroImagesFunc != nil {
		return f.HeroImagesFunc(ctx, html)
	}
	return []generator.Image{{Name: DefaultImageName, Data: DefaultImageData}}, nil
}

func (f *Fake) ApplyImage(ctx context.Context, html, css string) (string, string, error) {
	if f.ApplyImageFunc != nil {
		return f.ApplyImageFunc(ctx, html, css)
	}
	return html, css, nil
}
