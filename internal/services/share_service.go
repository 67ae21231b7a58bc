package services

import (
	"net/url"
	"strings"

	"cardshare/internal/domain"
	"cardshare/internal/repos"
	"cardshare/internal/validate"
)

// ShareService builds public, fully-qualified views of stored cards. It never
// writes to the store.
type ShareService struct {
	Cards *repos.CardRepo
}

func NewShareService(cards *repos.CardRepo) *ShareService {
	return &ShareService{Cards: cards}
}

func (s *ShareService) Resolve(id, baseURL string) (domain.PublicCardView, error) {
	card, err := s.Cards.Find(id)
	if err != nil {
		return domain.PublicCardView{}, err
	}
	return View(card, baseURL), nil
}

func (s *ShareService) List(baseURL string) ([]domain.PublicCardView, error) {
	cards, err := s.Cards.Load()
	if err != nil {
		return nil, err
	}
	out := make([]domain.PublicCardView, 0, len(cards))
	for _, c := range cards {
		out = append(out, View(c, baseURL))
	}
	return out, nil
}

// View expands card against baseURL.
func View(card domain.Card, baseURL string) domain.PublicCardView {
	base := strings.TrimRight(baseURL, "/")
	front := AbsoluteRef(card.Image, base)
	back := AbsoluteRef(card.BackImage, base)
	return domain.PublicCardView{
		ID:          card.ID,
		Name:        card.Name,
		Description: card.Description,
		BackDetails: card.BackDetails,
		Price:       card.Price,
		Image:       front,
		BackImage:   back,
		Images:      []string{front, back},
		FirstImage:  front,
		ShareLink:   ShareLink(base, card.ID),
		UploadTime:  card.UploadTime,
	}
}

// AbsoluteRef leaves absolute URLs alone and prefixes base to stored paths.
func AbsoluteRef(ref, baseURL string) string {
	if _, ok := validate.AbsoluteURL(ref); ok {
		return ref
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(ref, "/")
}

func ShareLink(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/share?view=" + url.QueryEscape(id)
}
