package repos

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cardshare/internal/domain"
	applog "cardshare/internal/log"
)

// CardRepo owns the JSON document holding every card. Mutations run a full
// read-modify-write cycle while holding both an in-process mutex and an
// advisory lock on <path>.lock, so concurrent writers never lose updates.
// Reads take no lock; they may be stale but never see a torn document
// because writes land via rename.
type CardRepo struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewCardRepo(path string) *CardRepo { return &CardRepo{path: path, now: time.Now} }

func (r *CardRepo) Path() string { return r.path }

// Load returns the stored cards in insertion order. A missing document is an
// empty store; a present but unparsable one is CorruptStore.
func (r *CardRepo) Load() ([]domain.Card, error) {
	cards, _, err := r.read()
	return cards, err
}

func (r *CardRepo) Find(id string) (domain.Card, error) {
	cards, err := r.Load()
	if err != nil {
		return domain.Card{}, err
	}
	if i := indexOf(cards, id); i >= 0 {
		return cards[i], nil
	}
	return domain.Card{}, domain.NotFound(id)
}

func (r *CardRepo) Count() (int, error) {
	cards, err := r.Load()
	return len(cards), err
}

func (r *CardRepo) Add(card domain.Card) error {
	return r.mutate("add", card.ID, func(cards []domain.Card) ([]domain.Card, bool, error) {
		if indexOf(cards, card.ID) >= 0 {
			return nil, false, domain.DuplicateID(card.ID)
		}
		return append(cards, card), true, nil
	})
}

// Edit replaces the whole record with id, keeping its position. The stored
// id is always id and uploadTime is reset to now.
func (r *CardRepo) Edit(id string, card domain.Card) error {
	return r.mutate("edit", id, func(cards []domain.Card) ([]domain.Card, bool, error) {
		i := indexOf(cards, id)
		if i < 0 {
			return nil, false, domain.NotFound(id)
		}
		card.ID = id
		card.UploadTime = r.now().UTC().Truncate(time.Second)
		cards[i] = card
		return cards, true, nil
	})
}

// Delete removes id. Deleting an id that is not stored succeeds and leaves
// the document untouched.
func (r *CardRepo) Delete(id string) error {
	return r.mutate("delete", id, func(cards []domain.Card) ([]domain.Card, bool, error) {
		out := cards[:0]
		for _, c := range cards {
			if c.ID != id {
				out = append(out, c)
			}
		}
		return out, len(out) != len(cards), nil
	})
}

func indexOf(cards []domain.Card, id string) int {
	for i := range cards {
		if cards[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *CardRepo) mutate(op, id string, fn func([]domain.Card) ([]domain.Card, bool, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return domain.StorageUnavailable("card store directory unavailable", err)
	}
	unlock, err := lockFile(r.path + ".lock")
	if err != nil {
		return domain.StorageUnavailable("could not lock card store", err)
	}
	defer unlock()

	cards, exists, err := r.read()
	if err != nil {
		return err
	}
	next, changed, err := fn(cards)
	if err != nil {
		return err
	}
	if !changed && exists {
		applog.Debug(nil, "repo.card."+op+".noop", map[string]any{"id": id})
		return nil
	}
	if err := r.write(next); err != nil {
		return err
	}
	applog.Debug(nil, "repo.card."+op, map[string]any{"id": id, "count": len(next)})
	return nil
}

func (r *CardRepo) read() ([]domain.Card, bool, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Card{}, false, nil
	}
	if err != nil {
		return nil, false, domain.StorageUnavailable("could not read card store", err)
	}
	cards, err := decode(data)
	if err != nil {
		applog.Error(nil, "repo.card.corrupt", err, map[string]any{"path": r.path})
		return nil, true, domain.CorruptStore(r.path, err)
	}
	return cards, true, nil
}

func decode(data []byte) ([]domain.Card, error) {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		return nil, errors.New("document is empty")
	case bytes.Equal(data, []byte("null")):
		return nil, errors.New("document is null")
	}
	cards := []domain.Card{}
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func encode(cards []domain.Card) ([]byte, error) {
	if cards == nil {
		cards = []domain.Card{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(cards); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// write replaces the document through a temp file in the same directory so
// a failed write leaves the previous document intact.
func (r *CardRepo) write(cards []domain.Card) error {
	data, err := encode(cards)
	if err != nil {
		return domain.StorageUnavailable("could not encode card store", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.path), "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return domain.StorageUnavailable("failed to write card store", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return domain.StorageUnavailable("failed to write card store", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return domain.StorageUnavailable("failed to write card store", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		_ = os.Remove(tmpName)
		return domain.StorageUnavailable("failed to write card store", err)
	}
	return nil
}
