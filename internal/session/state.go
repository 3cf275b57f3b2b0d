// Package session sequences screen transitions of the tour: Welcome, browsing a
// version's lessons and viewing one lesson. All transitions go through
// Machine.Handle; network work is returned as commands whose completion comes
// back as another action.
package session

import (
	"fmt"

	"github.com/jask/releasetour/internal/service"
	"github.com/jask/releasetour/internal/tour"
)

type Kind int

const (
	KindWelcome Kind = iota
	KindBrowsing
	KindViewing
)

func (k Kind) String() string {
	switch k {
	case KindBrowsing:
		return "browsing"
	case KindViewing:
		return "viewing"
	default:
		return "welcome"
	}
}

// State is exactly one of Welcome, Browsing(version) or Viewing(version, lesson).
type State struct {
	Kind     Kind
	Version  string
	LessonID int
}

func Welcome() State                { return State{Kind: KindWelcome} }
func Browsing(version string) State { return State{Kind: KindBrowsing, Version: version} }
func Viewing(version string, id int) State {
	return State{Kind: KindViewing, Version: version, LessonID: id}
}

func (s State) String() string {
	switch s.Kind {
	case KindBrowsing:
		return fmt.Sprintf("Browsing(%s)", s.Version)
	case KindViewing:
		return fmt.Sprintf("Viewing(%s, %d)", s.Version, s.LessonID)
	default:
		return "Welcome"
	}
}

// Snapshot is the read-only view handed to the renderer.
type Snapshot struct {
	State    State
	Selector string
	Versions []tour.VersionInfo
	// Lessons is the cached list of the active version, nil while loading or in Welcome.
	Lessons []tour.Lesson
	Edited  map[int]bool
	// Lesson and Code are set only while viewing.
	Lesson  *tour.Lesson
	Code    string
	Result  service.ExecutionResult
	Running bool
	Loading bool
	Banner  string
}
