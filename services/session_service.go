package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/fencing-tableau/brackets"
	"github.com/Dosada05/fencing-tableau/models"
	"github.com/Dosada05/fencing-tableau/repositories"
	"github.com/Dosada05/fencing-tableau/storage"
)

// MainSetID is the id of the placement group deciding places 1 to N.
const MainSetID = "main"

// Broadcaster pushes session events to live clients.
type Broadcaster interface {
	BroadcastToRoom(roomID, eventType string, payload interface{})
}

type CreateSessionInput struct {
	Title         string `json:"title"`
	MaxScore      int    `json:"max_score"`
	AllowOverflow bool   `json:"allow_overflow"`
	Seed          int64  `json:"seed"`
	Placements    []int  `json:"placements"`
	OrganizerPIN  string `json:"organizer_pin"`
	RefereePIN    string `json:"referee_pin"`
}

type CompetitorInput struct {
	Name string `json:"name"`
	Club string `json:"club"`
	Rank int    `json:"rank"`
}

// ScoreInput carries the score sheet text of one or both sides of a bout.
type ScoreInput struct {
	SessionID  string `json:"-"`
	SetID      string `json:"set_id"`
	TableSize  int    `json:"table_size"`
	BoutNumber int    `json:"bout_number"`
	ScoreA     string `json:"score_a"`
	ScoreB     string `json:"score_b"`
}

type DropInput struct {
	SessionID    string `json:"-"`
	CompetitorID int    `json:"-"`
	Reason       string `json:"reason"`
}

type SessionService interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*models.SessionSummary, error)
	GetSession(ctx context.Context, sessionID string) (*models.SessionSummary, error)
	ListSessions(ctx context.Context, limit, offset int) ([]models.SessionSummary, error)
	DeleteSession(ctx context.Context, sessionID string) error

	RegisterCompetitors(ctx context.Context, sessionID string, inputs []CompetitorInput) ([]models.Competitor, error)
	ListCompetitors(ctx context.Context, sessionID string) ([]models.Competitor, error)
	StartElimination(ctx context.Context, sessionID string) ([]brackets.BracketSetView, error)

	SetScore(ctx context.Context, input ScoreInput) (*brackets.BoutView, error)
	DropCompetitor(ctx context.Context, input DropInput) error
	RestoreCompetitor(ctx context.Context, input DropInput) error

	GetTableau(ctx context.Context, sessionID string) ([]brackets.BracketSetView, error)
	GetClassification(ctx context.Context, sessionID string) ([]models.Placement, error)

	GeneratePoolSchedule(ctx context.Context, sessionID string, competitorIDs []int) (*PoolSchedule, error)
	GetPoolSchedule(ctx context.Context, sessionID, poolID string) (*PoolSchedule, error)
	PreviewBracket(ctx context.Context, sessionID string, format models.Format) ([]*brackets.BracketMatch, error)
	SearchBouts(ctx context.Context, sessionID, query string) ([]BoutSearchResult, error)
	PublishResults(ctx context.Context, sessionID string) (*PublishResult, error)
}

type SessionDefaults struct {
	MaxScore int
}

// liveSession is a loaded session with its engine state. mu serializes every
// access; the engine itself does no locking.
type liveSession struct {
	mu      sync.Mutex
	session *models.Session
	ids     *brackets.IDGenerator
	router  *brackets.Router
}

func (ls *liveSession) rules() brackets.ScoreRules {
	return brackets.ScoreRules{Max: ls.session.MaxScore, AllowOverflow: ls.session.AllowOverflow}
}

type sessionService struct {
	repo     repositories.SessionRepository
	uploader storage.FileUploader
	hub      Broadcaster
	logger   *slog.Logger
	defaults SessionDefaults

	mu   sync.Mutex
	live map[string]*liveSession

	now   func() time.Time
	newID func() string
}

// NewSessionService wires the session service. uploader and hub may be nil:
// publishing is then disabled and no events are pushed.
func NewSessionService(
	repo repositories.SessionRepository,
	uploader storage.FileUploader,
	hub Broadcaster,
	logger *slog.Logger,
	defaults SessionDefaults,
) SessionService {
	if defaults.MaxScore <= 0 {
		defaults.MaxScore = 15
	}
	return &sessionService{
		repo:     repo,
		uploader: uploader,
		hub:      hub,
		logger:   logger,
		defaults: defaults,
		live:     make(map[string]*liveSession),
		now:      time.Now,
		newID:    func() string { return generateRandomToken(12) },
	}
}

func (s *sessionService) CreateSession(ctx context.Context, input CreateSessionInput) (*models.SessionSummary, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	maxScore := input.MaxScore
	if maxScore == 0 {
		maxScore = s.defaults.MaxScore
	}
	if maxScore < 0 {
		return nil, ErrInvalidMaxScore
	}

	placements := slices.Clone(input.Placements)
	slices.Sort(placements)
	placements = slices.Compact(placements)
	for _, p := range placements {
		if p < 3 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidPlacement, p)
		}
	}

	if input.OrganizerPIN == "" {
		return nil, ErrPINTooShort
	}
	organizerHash, err := hashPIN(input.OrganizerPIN)
	if err != nil {
		return nil, err
	}
	refereeHash, err := hashPIN(input.RefereePIN)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session := &models.Session{
		ID:               s.newID(),
		Title:            title,
		Stage:            models.StageRegistration,
		MaxScore:         maxScore,
		AllowOverflow:    input.AllowOverflow,
		Seed:             input.Seed,
		Placements:       placements,
		OrganizerPINHash: organizerHash,
		RefereePINHash:   refereeHash,
		Competitors:      []models.Competitor{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, session); err != nil {
		if errors.Is(err, repositories.ErrSessionConflict) {
			return nil, ErrSessionExists
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.mu.Lock()
	s.live[session.ID] = &liveSession{session: session, ids: brackets.NewIDGenerator(0)}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "session created", slog.String("session_id", session.ID), slog.Int("max_score", maxScore))
	summary := session.Summary()
	return &summary, nil
}

func (s *sessionService) GetSession(ctx context.Context, sessionID string) (*models.SessionSummary, error) {
	var summary models.SessionSummary
	err := s.withSession(ctx, sessionID, func(ls *liveSession) error {
		summary = ls.session.Summary()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *sessionService) ListSessions(ctx context.Context, limit, offset int) ([]models.SessionSummary, error) {
	list, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return list, nil
}

func (s *sessionService) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	s.evict(sessionID)
	s.broadcast(sessionID, brackets.EventSessionDeleted, map[string]string{"session_id": sessionID})
	s.logger.InfoContext(ctx, "session deleted", slog.String("session_id", sessionID))
	return nil
}

func (s *sessionService) RegisterCompetitors(ctx context.Context, sessionID string, inputs []CompetitorInput) ([]models.Competitor, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no competitors given", ErrValidationFailed)
	}
	for i := range inputs {
		inputs[i].Name = strings.TrimSpace(inputs[i].Name)
		inputs[i].Club = strings.TrimSpace(inputs[i].Club)
		if inputs[i].Name == "" {
			return nil, fmt.Errorf("%w (entry %d)", ErrCompetitorName, i+1)
		}
		if inputs[i].Rank < 0 {
			return nil, fmt.Errorf("%w (entry %d)", ErrInvalidRank, i+1)
		}
	}

	var created []models.Competitor
	err := s.withSession(ctx, sessionID, func(ls *liveSession) error {
		if ls.session.Stage != models.StageRegistration {
			return fmt.Errorf("%w: elimination has started", ErrStageConflict)
		}
		now := s.now().UTC()
		for _, in := range inputs {
			c := models.Competitor{
				ID:        ls.ids.Next(),
				Name:      in.Name,
				Club:      in.Club,
				Rank:      in.Rank,
				CreatedAt: now,
			}
			ls.session.Competitors = append(ls.session.Competitors, c)
			created = append(created, c)
		}
		return s.persist(ctx, ls)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "competitors registered", slog.String("session_id", sessionID), slog.Int("count", len(created)))
	return created, nil
}

func (s *sessionService) ListCompetitors(ctx context.Context, sessionID string) ([]models.Competitor, error) {
	var out []models.Competitor
	err := s.withSession(ctx, sessionID, func(ls *liveSession) error {
		out = slices.Clone(ls.session.Competitors)
		return nil
	})
	if out == nil && err == nil {
		out = []models.Competitor{}
	}
	return out, err
}

func (s *sessionService) StartElimination(ctx context.Context, sessionID string) ([]brackets.BracketSetView, error) {
	var views []brackets.BracketSetView
	err := s.withSession(ctx, sessionID, func(ls *liveSession) error {
		if ls.session.Stage != models.StageRegistration {
			return fmt.Errorf("%w: elimination already started", ErrStageConflict)
		}
		competitors := ls.session.Competitors
		if len(competitors) < 2 {
			return ErrNotEnoughCompetitors
		}

		main := brackets.NewBracketSet(MainSetID, 1, ls.rules(), ls.ids)
		main.SetTitle(fmt.Sprintf("Places 1-%d", len(competitors)))
		main.SetAttendees(brackets.RankAttendees(attendeesOf(competitors), ls.session.Seed), nil)

		ls.router = brackets.NewRouter(main, brackets.NewPlacements(ls.session.Placements...))
		ls.session.Stage = models.StageElimination

		if err := s.persist(ctx, ls); err != nil {
			return err
		}
		views = ls.router.View()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "elimination started", slog.String("session_id", sessionID), slog.Int("groups", len(views)))
	s.broadcast(sessionID, brackets.EventTableauUpdated, views)
	return views, nil
}

type sideScore struct {
	side  brackets.Side
	value int
	best  bool
}

func (s *sessionService) SetScore(ctx context.Context, input ScoreInput) (*brackets.BoutView, error) {
	texts := [2]string{strings.TrimSpace(input.ScoreA), strings.TrimSpace(input.ScoreB)}
	if texts[0] == "" && texts[1] == "" {
		return nil, ErrEmptyScore
	}
	setID := input.SetID
	if setID == "" {
		setID = MainSetID
	}

	var (
		view           brackets.BoutView
		tableau        []brackets.BracketSetView
		classification []models.Placement
	)
	err := s.withSession(ctx, input.SessionID, func(ls *liveSession) error {
		if ls.router == nil {
			return fmt.Errorf("%w: elimination has not started", ErrStageConflict)
		}
		set, ok := ls.router.Set(setID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrBracketSetNotFound, setID)
		}
		bout, err := set.Bout(input.TableSize, input.BoutNumber)
		if err != nil {
			return mapEngineError(err)
		}
		if !bout.HasOpponents() {
			return ErrBoutNotReady
		}
		if bout.IsDropped() {
			return ErrBoutDropped
		}

		// Both sides are parsed before anything is applied.
		var scores []sideScore
		for i, text := range texts {
			if text == "" {
				continue
			}
			value, best, err := brackets.ParseScore(text, ls.rules())
			if err != nil {
				return mapEngineError(err)
			}
			scores = append(scores, sideScore{side: brackets.Side(i), value: value, best: best})
		}
		for _, sc := range scores {
			if err := set.SetScore(input.TableSize, input.BoutNumber, sc.side, sc.value, sc.best); err != nil {
				return mapEngineError(err)
			}
		}

		changed := ls.router.Refresh()
		if err := s.persist(ctx, ls); err != nil {
			return err
		}

		view, err = set.BoutView(input.TableSize, input.BoutNumber)
		if err != nil {
			return mapEngineError(err)
		}
		if len(changed) > 0 {
			tableau = ls.router.View()
		}
		if ls.router.Main().IsOver() {
			classification = withCompetitors(ls.session, ls.router.Classification())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "score recorded",
		slog.String("session_id", input.SessionID),
		slog.String("set_id", setID),
		slog.Int("table", input.TableSize),
		slog.Int("bout", input.BoutNumber),
		slog.Bool("over", view.IsOver),
	)
	s.broadcast(input.SessionID, brackets.EventBoutUpdated, view)
	if tableau != nil {
		s.broadcast(input.SessionID, brackets.EventTableauUpdated, tableau)
	}
	if classification != nil {
		s.broadcast(input.SessionID, brackets.EventClassificationUpdated, classification)
	}
	return &view, nil
}

func (s *sessionService) DropCompetitor(ctx context.Context, input DropInput) error {
	reason, err := brackets.ParseDropReason(input.Reason)
	if err != nil {
		return mapEngineError(err)
	}
	return s.changeCompetitor(ctx, input, "competitor dropped", func(ls *liveSession, id brackets.CompetitorID) error {
		set, _, _, ok := ls.router.FindBout(id)
		if !ok {
			return fmt.Errorf("%w: competitor %d", ErrNotInBout, input.CompetitorID)
		}
		return set.Drop(id, reason)
	})
}

func (s *sessionService) RestoreCompetitor(ctx context.Context, input DropInput) error {
	return s.changeCompetitor(ctx, input, "competitor restored", func(ls *liveSession, id brackets.CompetitorID) error {
		sets := ls.router.Sets()
		for i := len(sets) - 1; i >= 0; i-- {
			if err := sets[i].Restore(id); err == nil {
				return nil
			}
		}
		return fmt.Errorf("%w: competitor %d is not dropped", ErrNotInBout, input.CompetitorID)
	})
}

func (s *sessionService) changeCompetitor(ctx context.Context, input DropInput, event string, change func(*liveSession, brackets.CompetitorID) error) error {
	var tableau []brackets.BracketSetView
	err := s.withSession(ctx, input.SessionID, func(ls *liveSession) error {
		if ls.router == nil {
			return fmt.Errorf("%w: elimination has not started", ErrStageConflict)
		}
		if _, ok := ls.session.Competitor(input.CompetitorID); !ok {
			return fmt.Errorf("%w: %d", ErrCompetitorNotFound, input.CompetitorID)
		}
		if err := change(ls, brackets.CompetitorID(input.CompetitorID)); err != nil {
			return mapEngineError(err)
		}
		ls.router.Refresh()
		if err := s.persist(ctx, ls); err != nil {
			return err
		}
		tableau = ls.router.View()
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, event, slog.String("session_id", input.SessionID), slog.Int("competitor_id", input.CompetitorID))
	s.broadcast(input.SessionID, brackets.EventTableauUpdated, tableau)
	return nil
}

func (s *sessionService) GetTableau(ctx context.Context, sessionID string) ([]brackets.BracketSetView, error) {
	var views []brackets.BracketSetView
	err := s.withSession(ctx, sessionID, func(ls *liveSession) error {
		if ls.router == nil {
			return fmt.Errorf("%w: elimination has not started", ErrStageConflict)
		}
		views = ls.router.View()
		return nil
	})
	return views, err
}

func (s *sessionService) GetClassification(ctx context.Context, sessionID string) ([]models.Placement, error) {
	var placements []models.Placement
	err := s.withSession(ctx, sessionID, func(ls *liveSession) error {
		if ls.router == nil {
			return fmt.Errorf("%w: elimination has not started", ErrStageConflict)
		}
		placements = withCompetitors(ls.session, ls.router.Classification())
		return nil
	})
	return placements, err
}

// withSession runs fn with the session locked.
func (s *sessionService) withSession(ctx context.Context, sessionID string, fn func(*liveSession) error) error {
	ls, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return fn(ls)
}

func (s *sessionService) load(ctx context.Context, sessionID string) (*liveSession, error) {
	s.mu.Lock()
	ls, ok := s.live[sessionID]
	s.mu.Unlock()
	if ok {
		return ls, nil
	}

	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	ls, err = restoreLiveSession(session)
	if err != nil {
		s.logger.ErrorContext(ctx, "session state cannot be rebuilt", slog.String("session_id", sessionID), slog.Any("error", err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.live[sessionID]; ok {
		return existing, nil
	}
	s.live[sessionID] = ls
	return ls, nil
}

func restoreLiveSession(session *models.Session) (*liveSession, error) {
	ls := &liveSession{session: session, ids: brackets.NewIDGenerator(session.LastID)}
	if session.Stage != models.StageElimination {
		return ls, nil
	}
	router, err := brackets.RestoreRouter(session.BracketSets, brackets.NewPlacements(session.Placements...), ls.rules(), ls.ids)
	if err != nil {
		return nil, fmt.Errorf("failed to restore brackets of session %s: %w", session.ID, err)
	}
	ls.router = router
	return ls, nil
}

// persist writes the session back. On failure the cached copy is dropped so
// the next access reloads the last stored state.
func (s *sessionService) persist(ctx context.Context, ls *liveSession) error {
	ls.session.LastID = ls.ids.Last()
	if ls.router != nil {
		ls.session.BracketSets = ls.router.Snapshot()
	}
	ls.session.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, nil, ls.session); err != nil {
		s.evict(ls.session.ID)
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to save session %s: %w", ls.session.ID, err)
	}
	return nil
}

func (s *sessionService) evict(sessionID string) {
	s.mu.Lock()
	delete(s.live, sessionID)
	s.mu.Unlock()
}

func (s *sessionService) broadcast(sessionID, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(sessionID, eventType, payload)
}
