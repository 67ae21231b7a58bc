package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"cardshare/internal/domain"
	applog "cardshare/internal/log"
	"cardshare/internal/media"
	"cardshare/internal/repos"
	"cardshare/internal/validate"
)

// CardInput is one add/edit submission as it arrives from a form or the CLI.
// Price is the raw decimal string.
type CardInput struct {
	Name        string
	Description string
	BackDetails string
	Price       string
	Front       media.Source
	Back        media.Source
}

// IngestService turns submissions into stored cards. Text fields are
// validated before any image is written, and the repository write is the
// only commit point: files written for a submission that fails later are
// discarded.
type IngestService struct {
	Cards  *repos.CardRepo
	Assets *media.Store

	now   func() time.Time
	newID func() string
}

func NewIngestService(cards *repos.CardRepo, assets *media.Store) *IngestService {
	return &IngestService{Cards: cards, Assets: assets, now: time.Now, newID: newCardID}
}

func newCardID() string { return "card-" + uuid.NewString() }

type imageSlot struct {
	field   string
	prefix  string
	src     media.Source
	current string
}

func slots(in CardInput, current *domain.Card) []imageSlot {
	s := []imageSlot{
		{field: "image", prefix: "front", src: in.Front},
		{field: "backImage", prefix: "back", src: in.Back},
	}
	if current != nil {
		s[0].current = current.Image
		s[1].current = current.BackImage
	}
	return s
}

// unchanged reports whether the slot resubmits the reference already stored
// on the card being edited.
func (sl imageSlot) unchanged() bool {
	return sl.current != "" && sl.src.Upload == nil && strings.TrimSpace(sl.src.URL) == sl.current
}

// Add validates and stores a new card, returning its id.
func (s *IngestService) Add(ctx context.Context, in CardInput) (string, error) {
	fields, err := validateFields(in)
	if err != nil {
		return "", err
	}
	sl := slots(in, nil)
	if err := s.checkImages(sl); err != nil {
		return "", err
	}
	refs, written, err := s.storeImages(sl)
	if err != nil {
		return "", err
	}
	fields.Image, fields.BackImage = refs[0], refs[1]

	card, err := domain.NewCard(s.newID(), fields, s.now())
	if err == nil {
		err = s.Cards.Add(card)
	}
	if err != nil {
		s.discard(written)
		applog.ErrorCtx(ctx, "card.add.fail", err, map[string]any{"name": fields.Name})
		return "", err
	}
	applog.Audit(ctx, "card.add", map[string]any{"id": card.ID, "name": card.Name, "price": card.Price})
	return card.ID, nil
}

// Edit fully replaces the card with id. Every field must be supplied again;
// an image field may resubmit its current stored reference to keep it.
func (s *IngestService) Edit(ctx context.Context, id string, in CardInput) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Validation("id", "no card ID provided")
	}
	fields, err := validateFields(in)
	if err != nil {
		return err
	}
	current, err := s.Cards.Find(id)
	if err != nil {
		return err
	}
	sl := slots(in, &current)
	if err := s.checkImages(sl); err != nil {
		return err
	}
	refs, written, err := s.storeImages(sl)
	if err != nil {
		return err
	}
	fields.Image, fields.BackImage = refs[0], refs[1]

	card, err := domain.NewCard(id, fields, s.now())
	if err == nil {
		err = s.Cards.Edit(id, card)
	}
	if err != nil {
		s.discard(written)
		applog.ErrorCtx(ctx, "card.edit.fail", err, map[string]any{"id": id})
		return err
	}
	applog.Audit(ctx, "card.edit", map[string]any{"id": id, "name": card.Name, "price": card.Price})
	return nil
}

// Delete removes id. Unknown ids succeed.
func (s *IngestService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Validation("id", "no card ID provided")
	}
	if err := s.Cards.Delete(id); err != nil {
		applog.ErrorCtx(ctx, "card.delete.fail", err, map[string]any{"id": id})
		return err
	}
	applog.Audit(ctx, "card.delete", map[string]any{"id": id})
	return nil
}

func validateFields(in CardInput) (domain.CardFields, error) {
	var f domain.CardFields
	var ok bool
	if f.Name, ok = validate.Text(in.Name); !ok {
		return f, domain.Validation("name", "name is required")
	}
	if f.Description, ok = validate.Text(in.Description); !ok {
		return f, domain.Validation("description", "description is required")
	}
	if f.BackDetails, ok = validate.Text(in.BackDetails); !ok {
		return f, domain.Validation("backDetails", "back details are required")
	}
	price, ok := validate.Price(in.Price)
	if !ok {
		return f, domain.Validation("price", "price must be a number greater than 0")
	}
	f.Price = price.InexactFloat64()
	if f.Price <= 0 || math.IsInf(f.Price, 0) || math.IsNaN(f.Price) {
		return f, domain.Validation("price", "price must be a number greater than 0")
	}
	return f, nil
}

// checkImages rejects a submission before anything is written: each slot
// needs an upload or a URL, URLs must be absolute and uploads must pass the
// store's size/type rules.
func (s *IngestService) checkImages(sl []imageSlot) error {
	for _, x := range sl {
		if x.unchanged() {
			continue
		}
		switch {
		case x.src.Upload != nil:
			if err := s.Assets.Check(x.src.Upload); err != nil {
				return domain.WithField(err, x.field)
			}
		case strings.TrimSpace(x.src.URL) != "":
			if _, ok := validate.AbsoluteURL(x.src.URL); !ok {
				return domain.Validation(x.field, "invalid URL for %s", x.field)
			}
		default:
			return domain.MissingAsset(x.field)
		}
	}
	return nil
}

func (s *IngestService) storeImages(sl []imageSlot) ([]string, []media.Ref, error) {
	refs := make([]string, len(sl))
	var written []media.Ref
	for i, x := range sl {
		if x.unchanged() {
			refs[i] = x.current
			continue
		}
		ref, err := s.Assets.Store(x.src, x.prefix)
		if err != nil {
			s.discard(written)
			return nil, nil, domain.WithField(err, x.field)
		}
		if ref.Owned {
			written = append(written, ref)
		}
		refs[i] = ref.Value
	}
	return refs, written, nil
}

func (s *IngestService) discard(refs []media.Ref) {
	for _, r := range refs {
		s.Assets.Discard(r)
	}
}
