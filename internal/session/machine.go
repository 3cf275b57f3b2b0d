package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/jask/releasetour/internal/logger"
	"github.com/jask/releasetour/internal/service"
	"github.com/jask/releasetour/internal/tour"
)

// defaultOverlayTimeout bounds the saved-code lookup made when a lesson is
// opened. The lookup runs inside Handle, so a slow store stalls input for at
// most this long before the canonical code is shown.
const defaultOverlayTimeout = 2 * time.Second

// VersionLister reports the versions the catalog serves.
type VersionLister interface {
	Versions(ctx context.Context) ([]string, error)
}

// Deps are the components the machine drives.
type Deps struct {
	Cache          *service.LessonCache
	Overlays       *service.OverlayStore
	Dispatcher     *service.Dispatcher
	Versions       VersionLister
	DefaultVersion string
	Logger         *logger.Logger
	// OverlayTimeout overrides defaultOverlayTimeout when positive.
	OverlayTimeout time.Duration
}

// Machine owns the session state. Handle must only be called from one
// goroutine; commands it returns may run anywhere and only touch the cache,
// the overlay store and the dispatcher.
type Machine struct {
	ctx  context.Context
	deps Deps
	log  *logger.Logger

	state    State
	selector string
	versions []tour.VersionInfo
	lesson   *tour.Lesson
	code     string
	result   service.ExecutionResult
	banner   string
	loading  string
	edited   map[tour.Key]bool

	running        bool
	flushScheduled bool
}

func New(ctx context.Context, deps Deps) *Machine {
	if strings.TrimSpace(deps.DefaultVersion) == "" {
		deps.DefaultVersion = tour.DefaultVersion
	}
	if deps.OverlayTimeout <= 0 {
		deps.OverlayTimeout = defaultOverlayTimeout
	}
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Machine{
		ctx:      ctx,
		deps:     deps,
		log:      log.With("component", "session"),
		state:    Welcome(),
		selector: deps.DefaultVersion,
		versions: tour.KnownVersions(),
		edited:   make(map[tour.Key]bool),
	}
}

// Init returns the commands to run at start-up.
func (m *Machine) Init() []Cmd {
	return m.Handle(LoadVersions{})
}

func (m *Machine) State() State { return m.state }

// Handle applies one action and returns the commands it started.
func (m *Machine) Handle(a Action) []Cmd {
	before := m.state
	var cmds []Cmd
	switch a := a.(type) {
	case ReturnToCatalog:
		cmds = m.returnToCatalog()
	case StartVersion:
		cmds = m.enterVersion(a.Version)
	case SwitchVersion:
		cmds = m.enterVersion(a.Version)
	case SelectLesson:
		cmds = m.selectLesson(a.Version, a.LessonID)
	case EditCode:
		cmds = m.editCode(a.Code)
	case ResetCode:
		cmds = m.resetCode()
	case Run:
		cmds = m.run()
	case Reload:
		cmds = m.reload()
	case LoadVersions:
		cmds = m.loadVersions()
	case LessonsLoaded:
		cmds = m.lessonsLoaded(a)
	case RunFinished:
		m.runFinished(a)
	case OverlayFlushed:
		cmds = m.overlayFlushed(a)
	case VersionsLoaded:
		if a.Err != nil {
			m.log.Warn("version list unavailable", "error", a.Err)
		} else {
			m.versions = tour.MergeVersions(tour.KnownVersions(), a.Versions)
		}
	case EditedLoaded:
		if a.Err != nil {
			m.log.Warn("saved code listing failed", "version", a.Version, "error", a.Err)
			break
		}
		for id, ok := range a.IDs {
			if ok {
				m.edited[tour.Key{Version: a.Version, ID: id}] = true
			}
		}
	default:
		m.log.Warn("unknown action", "type", fmt.Sprintf("%T", a))
	}
	m.reconcile()
	if m.state != before {
		m.log.Debug("transition", "from", before.String(), "to", m.state.String(), "action", fmt.Sprintf("%T", a))
	}
	return cmds
}

// Snapshot builds the render view. It has no side effects.
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		State:    m.state,
		Selector: m.selector,
		Versions: append([]tour.VersionInfo(nil), m.versions...),
		Result:   m.result,
		Running:  m.running,
		Banner:   m.banner,
	}
	if m.state.Kind == KindWelcome {
		return s
	}
	s.Loading = m.loading == m.state.Version
	if lessons, ok := m.deps.Cache.Lookup(m.state.Version); ok {
		s.Lessons = lessons
		s.Edited = make(map[int]bool)
		for _, l := range lessons {
			if m.edited[l.Key()] {
				s.Edited[l.ID] = true
			}
		}
	}
	if m.state.Kind == KindViewing && m.lesson != nil {
		l := *m.lesson
		s.Lesson = &l
		s.Code = m.code
	}
	return s
}

// Close persists saved code that has not been flushed yet.
func (m *Machine) Close(ctx context.Context) error {
	return m.deps.Overlays.Flush(ctx)
}

func (m *Machine) returnToCatalog() []Cmd {
	m.state = Welcome()
	m.lesson = nil
	m.code = ""
	m.result = nil
	m.banner = ""
	m.loading = ""
	m.selector = m.deps.DefaultVersion
	return m.scheduleFlush()
}

func (m *Machine) enterVersion(version string) []Cmd {
	version = strings.TrimSpace(version)
	if version == "" {
		m.banner = "choose a version first"
		return nil
	}
	m.state = Browsing(version)
	m.selector = version
	m.lesson = nil
	m.code = ""
	m.result = nil
	m.banner = ""

	cmds := m.scheduleFlush()
	if lessons, ok := m.deps.Cache.Lookup(version); ok {
		m.loading = ""
		m.autoSelect(version, lessons)
		return cmds
	}
	m.loading = version
	ctx, cache := m.ctx, m.deps.Cache
	return append(cmds, func() Action {
		lessons, err := cache.EnsureLoaded(ctx, version)
		return LessonsLoaded{Version: version, Lessons: lessons, Err: err}
	}, m.loadEdited(version))
}

func (m *Machine) lessonsLoaded(a LessonsLoaded) []Cmd {
	if m.loading == a.Version {
		m.loading = ""
	}
	if m.state.Version != a.Version {
		m.log.Debug("stale lesson list dropped", "version", a.Version, "state", m.state.String())
		return nil
	}
	if a.Refresh {
		if a.Err != nil {
			m.banner = a.Err.Error()
			return nil
		}
		m.banner = ""
		switch m.state.Kind {
		case KindBrowsing:
			m.autoSelect(a.Version, a.Lessons)
		case KindViewing:
			if l, err := m.deps.Cache.Get(a.Version, m.state.LessonID); err == nil {
				m.lesson = &l
			}
		}
		return nil
	}
	if m.state.Kind != KindBrowsing {
		return nil
	}
	if a.Err != nil {
		m.banner = a.Err.Error()
		return nil
	}
	m.autoSelect(a.Version, a.Lessons)
	return nil
}

func (m *Machine) autoSelect(version string, lessons []tour.Lesson) {
	if len(lessons) == 0 {
		m.banner = fmt.Sprintf("Go %s has no lessons yet", version)
		return
	}
	m.enterLesson(version, lessons[0].ID)
}

func (m *Machine) selectLesson(version string, id int) []Cmd {
	version = strings.TrimSpace(version)
	if m.state == Viewing(version, id) {
		return nil
	}
	if _, err := m.deps.Cache.Get(version, id); err != nil {
		m.banner = err.Error()
		return nil
	}
	cmds := m.scheduleFlush()
	m.enterLesson(version, id)
	return cmds
}

// enterLesson requires (version, id) to be cached.
func (m *Machine) enterLesson(version string, id int) {
	lesson, err := m.deps.Cache.Get(version, id)
	if err != nil {
		m.banner = err.Error()
		return
	}
	ctx, cancel := context.WithTimeout(m.ctx, m.deps.OverlayTimeout)
	defer cancel()
	code, err := m.deps.Overlays.Resolve(ctx, version, id, lesson.EditorCode())
	if err != nil {
		m.banner = err.Error()
	} else {
		m.banner = ""
	}
	m.state = Viewing(version, id)
	m.selector = version
	m.lesson = &lesson
	m.code = code
	m.result = nil
}

func (m *Machine) editCode(code string) []Cmd {
	if m.state.Kind != KindViewing || m.lesson == nil || code == m.code {
		return nil
	}
	m.code = code
	m.deps.Overlays.Save(m.state.Version, m.state.LessonID, code)
	m.edited[m.lesson.Key()] = true
	return m.scheduleFlush()
}

// resetCode restores the canonical code and drops the saved copy.
func (m *Machine) resetCode() []Cmd {
	if m.state.Kind != KindViewing || m.lesson == nil {
		return nil
	}
	m.code = m.lesson.EditorCode()
	m.deps.Overlays.Discard(m.state.Version, m.state.LessonID)
	delete(m.edited, m.lesson.Key())
	return m.scheduleFlush()
}

func (m *Machine) run() []Cmd {
	if m.state.Kind != KindViewing || m.lesson == nil {
		return nil
	}
	if m.running {
		m.log.Debug("run refused, another run is in flight")
		return nil
	}
	p, err := m.deps.Dispatcher.Prepare(service.Submission{
		Code:            m.code,
		SelectorVersion: m.selector,
		LessonFilePath:  m.lesson.FilePath,
	})
	if err != nil {
		m.result = service.Failure{ErrorMessage: err.Error(), Err: err}
		return nil
	}
	m.running = true
	m.result = nil
	key := m.lesson.Key()
	ctx, d := m.ctx, m.deps.Dispatcher
	return []Cmd{func() Action {
		return RunFinished{Key: key, Result: d.Send(ctx, p)}
	}}
}

func (m *Machine) runFinished(a RunFinished) {
	m.running = false
	if m.state != Viewing(a.Key.Version, a.Key.ID) {
		m.log.Debug("run result dropped", "lesson", a.Key.String(), "state", m.state.String())
		return
	}
	m.result = a.Result
}

func (m *Machine) reload() []Cmd {
	if m.state.Kind == KindWelcome {
		return m.loadVersions()
	}
	version := m.state.Version
	m.loading = version
	m.banner = ""
	ctx, cache := m.ctx, m.deps.Cache
	return []Cmd{func() Action {
		lessons, err := cache.Refresh(ctx, version)
		return LessonsLoaded{Version: version, Lessons: lessons, Err: err, Refresh: true}
	}, m.loadEdited(version)}
}

func (m *Machine) loadVersions() []Cmd {
	if m.deps.Versions == nil {
		return nil
	}
	ctx, lister := m.ctx, m.deps.Versions
	return []Cmd{func() Action {
		vs, err := lister.Versions(ctx)
		return VersionsLoaded{Versions: vs, Err: err}
	}}
}

func (m *Machine) loadEdited(version string) Cmd {
	ctx, overlays := m.ctx, m.deps.Overlays
	return func() Action {
		ids, err := overlays.Edited(ctx, version)
		return EditedLoaded{Version: version, IDs: maps.Clone(ids), Err: err}
	}
}

// scheduleFlush starts a flush unless one is already on its way.
func (m *Machine) scheduleFlush() []Cmd {
	if m.flushScheduled || m.deps.Overlays.Pending() == 0 {
		return nil
	}
	m.flushScheduled = true
	ctx, overlays := m.ctx, m.deps.Overlays
	return []Cmd{func() Action {
		return OverlayFlushed{Err: overlays.Flush(ctx)}
	}}
}

func (m *Machine) overlayFlushed(a OverlayFlushed) []Cmd {
	m.flushScheduled = false
	if a.Err != nil {
		m.banner = a.Err.Error()
		return nil
	}
	return m.scheduleFlush()
}

// reconcile falls back to Browsing when the viewed lesson left the cache.
func (m *Machine) reconcile() {
	if m.state.Kind != KindViewing {
		return
	}
	if _, err := m.deps.Cache.Get(m.state.Version, m.state.LessonID); err != nil {
		if !errors.Is(err, service.ErrLessonNotFound) {
			return
		}
		m.log.Info("viewed lesson disappeared", "state", m.state.String())
		m.state = Browsing(m.state.Version)
		m.lesson = nil
		m.code = ""
		m.result = nil
		m.banner = "This lesson is no longer available."
	}
}
