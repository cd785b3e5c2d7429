package agents

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/takerupon/lp-generator/internal/core/generator"
	"github.com/takerupon/lp-generator/internal/core/generator/anthropic"
	"github.com/takerupon/lp-generator/internal/core/generator/gemini"
)

// Agents implements generator.Generator against the real providers: Claude
// for the code stages, Gemini for the image prompt and the image-application
// rewrite, Imagen for rendering. Imagen gets its own client because it may
// be keyed separately from Gemini.
type Agents struct {
	claude      *anthropic.Client
	gemini      *gemini.Client
	imagen      *gemini.Client
	geminiModel string
	imagenModel string
}

func New(claude *anthropic.Client, geminiClient, imagenClient *gemini.Client, geminiModel, imagenModel string) *Agents {
	return &Agents{
		claude:      claude,
		gemini:      geminiClient,
		imagen:      imagenClient,
		geminiModel: geminiModel,
		imagenModel: imagenModel,
	}
}

const wireframeSystem = `You are an agent that builds landing-page wireframes.
Given a landing-page outline, produce the HTML structure only.
Output nothing but HTML code. No CSS or JavaScript design code; those are added later.
Always include a header and a footer. Do not include images.
Include <link rel="stylesheet" href="style.css"> inside <head>.
At the bottom of <body>, include <script src="script.js"></script> and
<script>lucide.createIcons();</script> so icons can be used.`

func (a *Agents) Wireframe(ctx context.Context, brief string) (string, error) {
	resp, err := a.claude.Complete(ctx, wireframeSystem, brief)
	if err != nil {
		return "", fmt.Errorf("wireframe generation: %w", err)
	}
	return generator.StripFence(resp), nil
}

const stylesheetSystem = `You are an agent that designs landing pages with CSS.
Given the HTML of a landing page, propose a visually appealing design.
Output strict CSS code only, with no explanatory prose.`

func (a *Agents) Stylesheet(ctx context.Context, html string) (string, error) {
	resp, err := a.claude.Complete(ctx, stylesheetSystem, html)
	if err != nil {
		return "", fmt.Errorf("css generation: %w", err)
	}
	return generator.StripFence(resp), nil
}

const scriptSystem = `You are an agent that adds dynamic behaviour to landing pages with JavaScript.
Given the HTML and CSS of a landing page, propose JavaScript that improves the user experience.
Output strict JavaScript code only.`

func (a *Agents) Script(ctx context.Context, html, css string) (string, error) {
	prompt := fmt.Sprintf("**HTML**:\n%s\n\n**CSS**:\n%s", html, css)
	resp, err := a.claude.Complete(ctx, scriptSystem, prompt)
	if err != nil {
		return "", fmt.Errorf("js generation: %w", err)
	}
	return generator.StripFence(resp), nil
}

const imagePromptSystem = `You are an agent that writes image-generation prompts.
You are given the HTML of a landing page.
Propose one image for the hero section and write an English prompt to generate it.
Output a strict JSON object whose key is "placeholder_css_1.jpg" and whose value is the prompt.`

// HeroImages asks Gemini for per-file prompts, then renders the files with
// Imagen concurrently. A failed render is logged and skipped; the pipeline
// treats a missing image as non-fatal unless configured otherwise.
func (a *Agents) HeroImages(ctx context.Context, html string) ([]generator.Image, error) {
	resp, err := a.gemini.Generate(ctx, a.geminiModel, imagePromptSystem, html)
	if err != nil {
		return nil, fmt.Errorf("image prompt generation: %w", err)
	}

	var prompts map[string]string
	if err := generator.DecodeJSON(resp, &prompts); err != nil {
		return nil, fmt.Errorf("image prompt response: %w", err)
	}

	var (
		mu     sync.Mutex
		images []generator.Image
		wg     sync.WaitGroup
	)
	for name, prompt := range prompts {
		wg.Add(1)
		go func(name, prompt string) {
			defer wg.Done()
			data, err := a.imagen.GenerateImage(ctx, a.imagenModel, prompt, aspectRatioFor(name))
			if err != nil {
				log.Warn().Err(err).Str("file", name).Msg("hero image render failed")
				return
			}
			mu.Lock()
			images = append(images, generator.Image{Name: name, Data: data})
			mu.Unlock()
		}(name, prompt)
	}
	wg.Wait()

	return images, nil
}

const applyImageSystem = `You are an agent that applies images to HTML and CSS.
You are given HTML and CSS code. Assume an image named "placeholder_css_1.jpg"
becomes the background of the hero section; rewrite the code accordingly.
Output the full revised HTML and the full revised CSS.
Limit changes to the hero section; leave every other section untouched.
Keep text readable over the image (shadow or dark overlay).
The image is 16:9; size the hero container to the image height, around 800px.`

func (a *Agents) ApplyImage(ctx context.Context, html, css string) (string, string, error) {
	prompt := fmt.Sprintf("**HTML**:\n%s\n\n**CSS**:\n%s", html, css)
	resp, err := a.gemini.Generate(ctx, a.geminiModel, applyImageSystem, prompt)
	if err != nil {
		return "", "", fmt.Errorf("image application: %w", err)
	}

	blocks := generator.ExtractBlocks(resp)
	finalHTML, finalCSS := blocks["html"], blocks["css"]
	if finalHTML == "" || finalCSS == "" {
		return "", "", fmt.Errorf("image application response missing html or css block")
	}
	return finalHTML, finalCSS, nil
}

// aspectRatioFor follows the placeholder naming convention: css-named
// placeholders are wide hero backgrounds, everything else square.
func aspectRatioFor(name string) string {
	if strings.Contains(strings.ToLower(name), "css") {
		return "16:9"
	}
	return "1:1"
}
