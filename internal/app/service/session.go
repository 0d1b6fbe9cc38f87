package service

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/restaurant-reviews/internal/app/model"
)

type NoticeKind string

const (
	NoticeInfo  NoticeKind = "info"
	NoticeError NoticeKind = "error"
)

// Notice is a toast shown once on the next render.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

func InfoNotice(msg string) Notice  { return Notice{Kind: NoticeInfo, Message: msg} }
func ErrorNotice(msg string) Notice { return Notice{Kind: NoticeError, Message: msg} }

// ReviewForm is the review form as the user last left it.
type ReviewForm struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
	Rating  int    `json:"rating"`
}

// EmptyForm has blank fields and the first rating option selected.
func EmptyForm() ReviewForm {
	return ReviewForm{Rating: model.DefaultRating()}
}

// PageSession is the state of one open detail page. It is created on page
// load and handed to the workflow and the renderer; nothing about the page
// lives in package-level variables.
type PageSession struct {
	ID           string
	RestaurantID uint
	CreatedAt    time.Time

	busy atomic.Bool

	mu         sync.Mutex
	lastSeen   time.Time
	restaurant *model.Restaurant
	reviews    *ReviewList
	form       ReviewForm
	notices    []Notice
}

func NewPageSession(restaurantID uint) *PageSession {
	now := time.Now()
	return &PageSession{
		ID:           uuid.NewString(),
		RestaurantID: restaurantID,
		CreatedAt:    now,
		lastSeen:     now,
		form:         EmptyForm(),
	}
}

// SessionSnapshot is a consistent copy for rendering.
type SessionSnapshot struct {
	ID           string
	RestaurantID uint
	Restaurant   *model.Restaurant
	Reviews      *ReviewList
	Form         ReviewForm
	Notices      []Notice
	Busy         bool
}

// Snapshot copies the session and drains its notices.
func (s *PageSession) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := SessionSnapshot{
		ID:           s.ID,
		RestaurantID: s.RestaurantID,
		Restaurant:   s.restaurant,
		Reviews:      s.reviews,
		Form:         s.form,
		Notices:      s.notices,
		Busy:         s.busy.Load(),
	}
	s.notices = nil
	return snap
}

func (s *PageSession) Restaurant() *model.Restaurant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restaurant
}

func (s *PageSession) SetRestaurant(r *model.Restaurant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restaurant = r
}

func (s *PageSession) Reviews() *ReviewList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reviews
}

func (s *PageSession) SetReviews(list *ReviewList) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews = list
}

func (s *PageSession) Form() ReviewForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *PageSession) SetForm(form ReviewForm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = form
}

func (s *PageSession) ResetForm() {
	s.SetForm(EmptyForm())
}

func (s *PageSession) AddNotice(n Notice) {
	if n.Message == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
}

// Busy reports whether a submission is in flight.
func (s *PageSession) Busy() bool {
	return s.busy.Load()
}

func (s *PageSession) beginSubmit() bool {
	return s.busy.CompareAndSwap(false, true)
}

func (s *PageSession) endSubmit() {
	s.busy.Store(false)
}

func (s *PageSession) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *PageSession) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// SessionStore keeps open page sessions until they go idle.
type SessionStore struct {
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*PageSession
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[string]*PageSession),
	}
}

func (st *SessionStore) Create(restaurantID uint) *PageSession {
	session := NewPageSession(restaurantID)
	st.mu.Lock()
	st.sessions[session.ID] = session
	st.mu.Unlock()
	return session
}

// Get returns a live session and marks it as seen.
func (st *SessionStore) Get(id string) (*PageSession, bool) {
	st.mu.RLock()
	session, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}
	now := time.Now()
	if session.idleSince(now) > st.ttl {
		st.remove(id)
		return nil, false
	}
	session.touch(now)
	return session, true
}

// Sweep drops idle sessions and returns how many were removed.
func (st *SessionStore) Sweep(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, session := range st.sessions {
		if session.idleSince(now) > st.ttl {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *SessionStore) remove(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}
