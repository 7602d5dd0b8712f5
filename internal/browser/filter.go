package browser

import (
	"log/slog"

	"github.com/playwright-community/playwright-go"
)

// blockedTypes are resource categories a throwaway headless session never needs.
var blockedTypes = map[string]bool{
	"image":      true,
	"media":      true,
	"font":       true,
	"stylesheet": true,
	"other":      true,
	"":           true,
}

// Blocked reports whether requests of the given resource type are aborted.
// Documents and scripts always pass.
func Blocked(resourceType string) bool {
	switch resourceType {
	case "document", "script":
		return false
	}
	return blockedTypes[resourceType]
}

// installFilter aborts blocked requests on every page of the context.
func installFilter(bc playwright.BrowserContext, log *slog.Logger) error {
	return bc.Route("**/*", func(route playwright.Route) {
		req := route.Request()
		if Blocked(req.ResourceType()) {
			if err := route.Abort(); err != nil {
				log.Debug("abort request", "url", req.URL(), "error", err)
			}
			return
		}
		if err := route.Continue(); err != nil {
			log.Debug("continue request", "url", req.URL(), "error", err)
		}
	})
}
