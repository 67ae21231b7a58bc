package repos

import (
	"os"
	"path/filepath"

	applog "cardshare/internal/log"
)

// OpenCardRepo prepares the directory holding the card document and checks
// that an existing document parses. A missing document is fine; it is
// created by the first mutation.
func OpenCardRepo(path string) (*CardRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	r := NewCardRepo(path)
	cards, err := r.Load()
	if err != nil {
		return nil, err
	}
	applog.Info(nil, "store.open", map[string]any{"path": path, "cards": len(cards)})
	return r, nil
}
