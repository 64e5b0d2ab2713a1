package engine

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"

	"github.com/webtor-io/whattowatch/models"
	"github.com/webtor-io/whattowatch/services/store"
	"github.com/webtor-io/whattowatch/services/tmdb"
)

const firstPage = 1

type flag int

const (
	flagLiked flag = iota
	flagBookmarked
)

func (s flag) String() string {
	switch s {
	case flagLiked:
		return "liked"
	case flagBookmarked:
		return "bookmarked"
	default:
		return "unknown"
	}
}

// Engine keeps application state in sync with the remote catalog and the
// local preference store. Intents return immediately, their effects are
// observed through published snapshots.
type Engine struct {
	store         store.Store
	catalog       tmdb.Catalog
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	mux           sync.Mutex
	closed        bool
	queue         *movieQueue
	likedMux      sync.Mutex
	bookmarkedMux sync.Mutex
	pub           *publisher
}

func New(st store.Store, cat tmdb.Catalog) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		store:   st,
		catalog: cat,
		ctx:     ctx,
		cancel:  cancel,
		queue:   newMovieQueue(),
		pub:     newPublisher(models.NewAppState()),
	}
}

// Start publishes initial state and starts loading popular movies and
// stored preferences.
func (s *Engine) Start() {
	s.pub.update(func(st *models.AppState) {})
	s.LoadPopular()
	s.RefreshLiked()
	s.RefreshBookmarked()
}

// Close cancels running intents and waits for them.
func (s *Engine) Close() {
	s.mux.Lock()
	if s.closed {
		s.mux.Unlock()
		return
	}
	s.closed = true
	s.mux.Unlock()
	s.cancel()
	s.wg.Wait()
	s.pub.close()
}

// Wait blocks until all launched intents are finished. Intents issued
// meanwhile block until it returns.
func (s *Engine) Wait() {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.wg.Wait()
}

func (s *Engine) State() models.AppState {
	return s.pub.current()
}

// Subscribe returns channel receiving snapshots in publish order, starting
// with the current one. Slow receivers skip intermediate snapshots but
// always get the latest. cancel releases the subscription.
func (s *Engine) Subscribe() (<-chan models.AppState, func()) {
	return s.pub.subscribe()
}

func opLog(name string, fields log.Fields) *log.Entry {
	return log.WithFields(fields).WithFields(log.Fields{
		"op":    name,
		"op_id": uuid.NewV4().String(),
	})
}

func (s *Engine) launch(name string, fields log.Fields, f func(ctx context.Context, l *log.Entry)) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.closed {
		log.WithFields(fields).Warnf("engine closed, %v skipped", name)
		return
	}
	l := opLog(name, fields)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		f(s.ctx, l)
	}()
}

// launchMovie queues f behind earlier intents on the same movie, so they
// apply and publish in the order they were issued.
func (s *Engine) launchMovie(name string, id int, f func(ctx context.Context, l *log.Entry)) {
	fields := log.Fields{"movie_id": id}
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.closed {
		log.WithFields(fields).Warnf("engine closed, %v skipped", name)
		return
	}
	l := opLog(name, fields)
	if !s.queue.push(id, func() { f(s.ctx, l) }) {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.queue.drain(id)
	}()
}

func (s *Engine) LoadPopular() {
	s.launch("load_popular", nil, s.loadPopular)
}

// RetryPopular is the same as LoadPopular.
func (s *Engine) RetryPopular() {
	s.LoadPopular()
}

func (s *Engine) loadPopular(ctx context.Context, l *log.Entry) {
	s.pub.update(func(st *models.AppState) {
		st.Catalog = models.FeedLoading()
	})
	p, err := s.catalog.Popular(ctx, firstPage)
	if err != nil {
		l.WithError(err).Warn("failed to load popular movies")
		s.pub.update(func(st *models.AppState) {
			st.Catalog = models.FeedFailed()
		})
		return
	}
	s.pub.update(func(st *models.AppState) {
		st.Catalog = models.FeedSucceeded(p.Results)
	})
	l.Infof("loaded %v popular movies", len(p.Results))
}

// Search does not pass through Loading, previous results stay visible
// until the new ones arrive.
func (s *Engine) Search(query string) {
	s.launch("search", log.Fields{"query": query}, func(ctx context.Context, l *log.Entry) {
		s.search(ctx, l, query)
	})
}

// RetrySearch repeats the last search query as is, even an empty one.
func (s *Engine) RetrySearch() {
	s.Search(s.State().SearchQuery)
}

func (s *Engine) search(ctx context.Context, l *log.Entry, query string) {
	p, err := s.catalog.Search(ctx, query, firstPage)
	if err != nil {
		l.WithError(err).Warn("failed to search movies")
		s.pub.update(func(st *models.AppState) {
			st.SearchQuery = query
			st.Search = models.FeedFailed()
		})
		return
	}
	s.pub.update(func(st *models.AppState) {
		st.SearchQuery = query
		st.Search = models.FeedSucceeded(p.Results)
	})
	l.Infof("found %v movies", len(p.Results))
}

func (s *Engine) SelectMovie(m models.Movie) {
	s.launchMovie("select", m.ID, func(ctx context.Context, l *log.Entry) {
		liked, bookmarked := s.resolveFlags(ctx, l, m.ID)
		s.publishSelected(m, liked, bookmarked)
	})
}

func (s *Engine) Like(m models.Movie) {
	s.toggle("like", m, flagLiked, true)
}

func (s *Engine) Unlike(m models.Movie) {
	s.toggle("unlike", m, flagLiked, false)
}

func (s *Engine) Bookmark(m models.Movie) {
	s.toggle("bookmark", m, flagBookmarked, true)
}

func (s *Engine) Unbookmark(m models.Movie) {
	s.toggle("unbookmark", m, flagBookmarked, false)
}

func (s *Engine) toggle(name string, m models.Movie, f flag, value bool) {
	s.launchMovie(name, m.ID, func(ctx context.Context, l *log.Entry) {
		if err := s.apply(ctx, m, f, value); err != nil {
			l.WithError(err).Warnf("failed to set %v=%v", f, value)
		}
		liked, bookmarked := s.resolveFlags(ctx, l, m.ID)
		s.publishSelected(m, liked, bookmarked)
		switch f {
		case flagLiked:
			s.refreshLiked(ctx, l)
		case flagBookmarked:
			s.refreshBookmarked(ctx, l)
		}
	})
}

// apply sets single preference flag keeping a row only while it is liked
// or bookmarked. Must be called from the movie queue.
func (s *Engine) apply(ctx context.Context, m models.Movie, f flag, value bool) error {
	row, err := s.store.GetByID(ctx, m.ID)
	if errors.Is(err, store.ErrNotFound) {
		if !value {
			return nil
		}
		err = s.store.Insert(ctx, withFlag(models.ToStored(m, false, false), f, value))
		if !errors.Is(err, store.ErrConflict) {
			return err
		}
		row, err = s.store.GetByID(ctx, m.ID)
	}
	if err != nil {
		return err
	}
	if getFlag(row, f) == value {
		return nil
	}
	next := withFlag(*row, f, value)
	if !next.Retained() {
		return s.store.Delete(ctx, m.ID)
	}
	return s.store.Update(ctx, next)
}

func getFlag(row *models.StoredMovie, f flag) bool {
	if f == flagLiked {
		return row.Liked
	}
	return row.Bookmarked
}

func withFlag(row models.StoredMovie, f flag, value bool) *models.StoredMovie {
	if f == flagLiked {
		row.Liked = value
	} else {
		row.Bookmarked = value
	}
	return &row
}

func (s *Engine) resolveFlags(ctx context.Context, l *log.Entry, id int) (liked bool, bookmarked bool) {
	liked, err := s.store.IsLiked(ctx, id)
	if err != nil {
		l.WithError(err).Warn("failed to resolve liked flag")
		liked = false
	}
	bookmarked, err = s.store.IsBookmarked(ctx, id)
	if err != nil {
		l.WithError(err).Warn("failed to resolve bookmarked flag")
		bookmarked = false
	}
	return
}

func (s *Engine) publishSelected(m models.Movie, liked bool, bookmarked bool) {
	s.pub.update(func(st *models.AppState) {
		st.Selected = models.SelectedMovie{
			Movie:      m,
			Present:    true,
			Liked:      liked,
			Bookmarked: bookmarked,
		}
	})
}

func (s *Engine) RefreshLiked() {
	s.launch("refresh_liked", nil, s.refreshLiked)
}

func (s *Engine) RefreshBookmarked() {
	s.launch("refresh_bookmarked", nil, s.refreshBookmarked)
}

func (s *Engine) refreshLiked(ctx context.Context, l *log.Entry) {
	s.likedMux.Lock()
	defer s.likedMux.Unlock()
	list, err := s.store.GetAllLiked(ctx)
	if err != nil {
		l.WithError(err).Warn("failed to refresh liked movies")
		return
	}
	s.pub.update(func(st *models.AppState) {
		st.Liked = list
	})
}

func (s *Engine) refreshBookmarked(ctx context.Context, l *log.Entry) {
	s.bookmarkedMux.Lock()
	defer s.bookmarkedMux.Unlock()
	list, err := s.store.GetAllBookmarked(ctx)
	if err != nil {
		l.WithError(err).Warn("failed to refresh bookmarked movies")
		return
	}
	s.pub.update(func(st *models.AppState) {
		st.Bookmarked = list
	})
}

// FindMovie looks movie up by id in the current snapshot.
func (s *Engine) FindMovie(id int) (models.Movie, bool) {
	st := s.State()
	if m, ok := st.Catalog.Find(id); ok {
		return m, true
	}
	if m, ok := st.Search.Find(id); ok {
		return m, true
	}
	if st.Selected.Present && st.Selected.Movie.ID == id {
		return st.Selected.Movie, true
	}
	for _, list := range [][]models.StoredMovie{st.Liked, st.Bookmarked} {
		for _, row := range list {
			if row.ID != id {
				continue
			}
			m, err := models.ToRecord(row)
			if err != nil {
				log.WithError(err).WithField("movie_id", id).Warn("stored movie has malformed genres")
			}
			return m, true
		}
	}
	return models.Movie{}, false
}
