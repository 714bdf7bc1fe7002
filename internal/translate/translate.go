package translate

import (
	"context"
	"fmt"
	"log"

	"arogya/internal/gateway"
)

// Supported language codes the assistant serves.
var Supported = map[string]string{
	"te": "Telugu", "hi": "Hindi", "ta": "Tamil",
	"kn": "Kannada", "ml": "Malayalam", "bn": "Bengali",
	"mr": "Marathi", "en": "English",
}

// Translator moves text between the caller's language and English. The
// workflow depends only on this seam; translation quality is an external
// concern.
type Translator interface {
	ToEnglish(ctx context.Context, text string, sourceLang string) string
	ToLocal(ctx context.Context, text string, targetLang string) string
}

// Passthrough returns text unchanged. Used in dev mode and whenever the
// caller already speaks English.
type Passthrough struct{}

func (Passthrough) ToEnglish(_ context.Context, text string, _ string) string { return text }
func (Passthrough) ToLocal(_ context.Context, text string, _ string) string   { return text }

// Gateway translates through the model gateway. Any failure falls back to
// the untranslated text.
type Gateway struct {
	Provider gateway.Provider
}

func (g Gateway) ToEnglish(ctx context.Context, text string, sourceLang string) string {
	if sourceLang == "en" || sourceLang == "" {
		return text
	}
	return g.translate(ctx, text, sourceLang, "en")
}

func (g Gateway) ToLocal(ctx context.Context, text string, targetLang string) string {
	if targetLang == "en" || targetLang == "" {
		return text
	}
	return g.translate(ctx, text, "en", targetLang)
}

func (g Gateway) translate(ctx context.Context, text, source, target string) string {
	sourceName, ok := Supported[source]
	if !ok {
		return text
	}
	targetName, ok := Supported[target]
	if !ok {
		return text
	}
	prompt := fmt.Sprintf(
		"Translate the following %s text to %s. Return only the translation.\n\n%s",
		sourceName, targetName, text)
	out, err := g.Provider.GenerateText(ctx, prompt, gateway.Options{MaxTokens: 800})
	if err != nil || out == "" {
		log.Printf("translation failed source=%s target=%s err=%v", source, target, err)
		return text
	}
	return out
}
