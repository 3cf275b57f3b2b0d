package session

import (
	"github.com/jask/releasetour/internal/service"
	"github.com/jask/releasetour/internal/tour"
)

// Action is an input to Machine.Handle: either a user intent or the
// completion of a command.
type Action interface {
	isAction()
}

// Cmd runs outside the event loop and reports back with an Action.
type Cmd func() Action

type (
	// ReturnToCatalog goes back to the welcome screen from any state.
	ReturnToCatalog struct{}
	// StartVersion opens a version from the welcome screen.
	StartVersion struct{ Version string }
	// SwitchVersion changes version while browsing or viewing.
	SwitchVersion struct{ Version string }
	SelectLesson  struct {
		Version  string
		LessonID int
	}
	EditCode struct{ Code string }
	// ResetCode replaces the saved code with the lesson's canonical code.
	ResetCode struct{}
	Run       struct{}
	// Reload refetches the active version's lessons.
	Reload       struct{}
	LoadVersions struct{}
)

type (
	LessonsLoaded struct {
		Version string
		Lessons []tour.Lesson
		Err     error
		Refresh bool
	}
	RunFinished struct {
		Key    tour.Key
		Result service.ExecutionResult
	}
	OverlayFlushed struct{ Err error }
	VersionsLoaded struct {
		Versions []string
		Err      error
	}
	EditedLoaded struct {
		Version string
		IDs     map[int]bool
		Err     error
	}
)

func (ReturnToCatalog) isAction() {}
func (StartVersion) isAction()    {}
func (SwitchVersion) isAction()   {}
func (SelectLesson) isAction()    {}
func (EditCode) isAction()        {}
func (ResetCode) isAction()       {}
func (Run) isAction()             {}
func (Reload) isAction()          {}
func (LoadVersions) isAction()    {}
func (LessonsLoaded) isAction()   {}
func (RunFinished) isAction()     {}
func (OverlayFlushed) isAction()  {}
func (VersionsLoaded) isAction()  {}
func (EditedLoaded) isAction()    {}
