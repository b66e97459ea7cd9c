package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Purger deletes a room's generated artifacts that nobody starred.
type Purger struct {
	Dir string
}

func NewPurger(dir string) *Purger {
	return &Purger{Dir: dir}
}

func (p *Purger) Purge(roomID string, keep []string) error {
	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading artifact dir: %w", err)
	}

	kept := make(map[string]bool, len(keep))
	for _, ref := range keep {
		kept[path.Base(ref)] = true
	}

	prefix := "meme-" + roomID + "-"
	removed := 0
	var errs []error
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".png") || kept[name] {
			continue
		}
		if err := os.Remove(filepath.Join(p.Dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	log.Debug().Str("component", "artifacts").Str("game_id", roomID).Int("removed", removed).Int("kept", len(kept)).Msg("purged artifacts")
	return errors.Join(errs...)
}
