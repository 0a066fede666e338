// Package app wires the search orchestrator to session storage. It is the
// layer both the HTTP API and the CLI call into.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shpitdev/leadfinder/internal/export"
	"github.com/shpitdev/leadfinder/internal/lead"
	"github.com/shpitdev/leadfinder/internal/search"
	"github.com/shpitdev/leadfinder/internal/session"
)

// Searcher is the part of search.Orchestrator the service needs.
type Searcher interface {
	Discover(ctx context.Context, params lead.SearchParams) (search.Discovery, error)
	Enrich(ctx context.Context, leads []lead.Lead) (search.Enrichment, error)
}

type Service struct {
	store    session.Store
	searcher Searcher
	log      *zap.Logger
	now      func() time.Time
}

func NewService(store session.Store, searcher Searcher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, searcher: searcher, log: log.Named("app"), now: time.Now}
}

func (s *Service) CreateSession(ctx context.Context) (session.State, error) {
	st, err := s.store.Create(ctx)
	if err != nil {
		return session.State{}, err
	}
	s.log.Debug("session created", zap.String("session", st.ID))
	return st, nil
}

func (s *Service) Session(ctx context.Context, id string) (session.State, error) {
	return s.store.Get(ctx, id)
}

// Search runs a discovery for the session and prepends the new leads.
//
// Params are validated before the discovery flag is taken, so a bad request is
// rejected as such even while another discovery runs. On ErrNothingParsed the
// session is left unchanged and the current state is returned alongside the
// raw model text.
func (s *Service) Search(ctx context.Context, id string, params lead.SearchParams) (session.State, string, error) {
	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return session.State{}, "", err
	}
	if err := params.Validate(); err != nil {
		return cur, "", fmt.Errorf("%w: %w", search.ErrInvalidParams, err)
	}
	release, err := s.store.Acquire(ctx, id, session.ActionDiscover)
	if err != nil {
		return cur, "", err
	}
	defer release()

	disc, err := s.searcher.Discover(ctx, params)
	if err != nil {
		return cur, disc.RawText, err
	}
	next, err := session.Update(ctx, s.store, id, func(st session.State) (session.State, error) {
		return st.ApplyDiscovery(disc.Leads, s.now()), nil
	})
	if err != nil {
		return cur, disc.RawText, err
	}
	s.log.Info("leads added",
		zap.String("session", id),
		zap.Int("parsed", len(disc.Leads)),
		zap.Int("total", len(next.Leads)),
	)
	return next, disc.RawText, nil
}

// Enrich looks up missing contact details for the selected leads and clears
// the selection. An empty selection fails with search.ErrEmptySelection
// without contacting the model.
//
// When the reply contains no parsable rows the selection is still cleared and
// search.ErrNothingParsed is returned with the new state.
func (s *Service) Enrich(ctx context.Context, id string) (session.State, string, error) {
	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return session.State{}, "", err
	}
	selected := cur.SelectedLeads()
	if len(selected) == 0 {
		return cur, "", search.ErrEmptySelection
	}
	release, err := s.store.Acquire(ctx, id, session.ActionEnrich)
	if err != nil {
		return cur, "", err
	}
	defer release()

	res, enrichErr := s.searcher.Enrich(ctx, selected)
	if enrichErr != nil && !errors.Is(enrichErr, search.ErrNothingParsed) {
		return cur, res.RawText, enrichErr
	}
	next, err := session.Update(ctx, s.store, id, func(st session.State) (session.State, error) {
		return st.ApplyEnrichment(res.Results, s.now()), nil
	})
	if err != nil {
		return cur, res.RawText, err
	}
	s.log.Info("leads enriched",
		zap.String("session", id),
		zap.Int("selected", len(selected)),
		zap.Int("results", len(res.Results)),
	)
	return next, res.RawText, enrichErr
}

func (s *Service) Toggle(ctx context.Context, id, leadID string) (session.State, error) {
	return session.Update(ctx, s.store, id, func(st session.State) (session.State, error) {
		return st.Toggle(leadID, s.now())
	})
}

func (s *Service) SelectAll(ctx context.Context, id string, selected bool) (session.State, error) {
	return session.Update(ctx, s.store, id, func(st session.State) (session.State, error) {
		return st.SelectAll(selected, s.now()), nil
	})
}

func (s *Service) Clear(ctx context.Context, id string) (session.State, error) {
	return session.Update(ctx, s.store, id, func(st session.State) (session.State, error) {
		return st.Clear(s.now()), nil
	})
}

// Export renders the session's leads as CSV and returns the download name.
func (s *Service) Export(ctx context.Context, id string) (filename, body string, err error) {
	st, err := s.store.Get(ctx, id)
	if err != nil {
		return "", "", err
	}
	return export.Filename(s.now()), export.Render(st.Leads), nil
}
