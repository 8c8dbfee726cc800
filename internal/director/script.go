package director

// Script is a hand-written scene description. File paths inside a script
// are relative to the script's directory.
type Script struct {
	Name       string        `yaml:"name"`
	Background string        `yaml:"background,omitempty"`
	Page       int           `yaml:"page,omitempty"` // PDF backgrounds only
	DPI        int           `yaml:"dpi,omitempty"`
	Duration   float64       `yaml:"duration,omitempty"` // seconds
	Camera     CameraScript  `yaml:"camera,omitempty"`
	Actors     []ActorScript `yaml:"actors"`
}

// Point is an [x, y] pair.
type Point [2]int

// IsZero lets omitempty drop [0, 0].
func (p Point) IsZero() bool { return p == Point{} }

type CameraScript struct {
	Width  int          `yaml:"width,omitempty"`
	Height int          `yaml:"height,omitempty"`
	Start  Point        `yaml:"start,flow,omitempty"`
	Moves  []MoveScript `yaml:"moves,omitempty"`
}

// MoveScript pans the camera by (X, Y), or follows the scene actor with
// index Follow.
type MoveScript struct {
	X        int     `yaml:"x,omitempty"`
	Y        int     `yaml:"y,omitempty"`
	Follow   *int    `yaml:"follow,omitempty"`
	Duration float64 `yaml:"duration,omitempty"`
}

// ActorScript places an actor loaded from a JSON document (Actor) or cut
// from a sprite sheet (Sheet).
type ActorScript struct {
	Actor    string           `yaml:"actor,omitempty"`
	Sheet    *SheetScript     `yaml:"sheet,omitempty"`
	At       Point            `yaml:"at,flow"`
	Schedule []ScheduleScript `yaml:"schedule,omitempty"`
}

// SheetScript builds a one-action actor from a sprite sheet. Each sprite
// becomes a component lasting FrameDuration and moving by Step.
type SheetScript struct {
	Path          string  `yaml:"path"`
	Name          string  `yaml:"name,omitempty"`
	Action        string  `yaml:"action,omitempty"`
	Detector      string  `yaml:"detector,omitempty"`
	Grid          *Point  `yaml:"grid,flow,omitempty"` // cell size; overrides Detector
	FrameDuration float64 `yaml:"frame_duration,omitempty"`
	Step          Point   `yaml:"step,flow,omitempty"`
}

// ScheduleScript schedules an action by name. A zero Duration plays the
// action once.
type ScheduleScript struct {
	Action   string  `yaml:"action"`
	Duration float64 `yaml:"duration,omitempty"`
	Offset   float64 `yaml:"offset,omitempty"`
	Hidden   bool    `yaml:"hidden,omitempty"`
}

const (
	DefaultFrameDuration = 0.1
	DefaultSheetAction   = "loop"
)

// Template is the starter script written by the CLI.
func Template() *Script {
	follow := 0
	return &Script{
		Name:       "Untitled",
		Background: "background.png",
		Duration:   5,
		Camera: CameraScript{
			Width:  816,
			Height: 624,
			Moves: []MoveScript{
				{X: 200, Duration: 2},
				{Follow: &follow, Duration: 3},
			},
		},
		Actors: []ActorScript{{
			Sheet: &SheetScript{
				Path:          "hero_walk.png",
				Name:          "Hero",
				Action:        "walk",
				FrameDuration: DefaultFrameDuration,
				Step:          Point{4, 0},
			},
			Schedule: []ScheduleScript{{Action: "walk", Duration: 5}},
		}},
	}
}
