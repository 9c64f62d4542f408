package selector

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/rymdport/portal/openuri"
)

// openerCommands are tried in order when the desktop portal is unavailable.
var openerCommands = [][]string{
	{"gio", "open"},
	{"xdg-open"},
}

// portalOpen is a hook so tests can run the fallback chain without a portal.
var portalOpen = func(uri string) error {
	return openuri.OpenURI("", uri, &openuri.Options{})
}

// OpenURIs hands each URI to the desktop's default application. Errors are
// collected per URI; a failed open never affects the others.
func OpenURIs(uris []string) error {
	var errs []error
	for _, uri := range uris {
		logger.Info().Str("uri", uri).Msg("opening")
		if err := OpenURI(uri); err != nil {
			logger.Warn().Err(err).Str("uri", uri).Msg("open failed")
			errs = append(errs, fmt.Errorf("open %s: %w", uri, err))
		}
	}
	return errors.Join(errs...)
}

// OpenURI opens one URI, preferring the XDG desktop portal and falling back
// to common opener commands.
func OpenURI(uri string) error {
	portalErr := portalOpen(uri)
	if portalErr == nil {
		return nil
	}

	for _, argv := range openerCommands {
		if _, err := exec.LookPath(argv[0]); err != nil {
			continue
		}
		cmd := exec.Command(argv[0], append(argv[1:], uri)...)
		if err := cmd.Run(); err == nil {
			return nil
		}
	}
	return portalErr
}
