package glide

import (
	"errors"
	"fmt"
	"os"

	"github.com/akmonengine/glide/slide"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pelletier/go-toml"
)

var (
	ErrSettingsExist   = errors.New("settings file already exists")
	ErrSettingsMissing = errors.New("settings file doesn't exist")
	ErrInvalidSettings = errors.New("invalid settings")
)

// Settings contains everything that can be tuned for a World.
type Settings struct {
	Collision struct {
		// MaxDepth is the number of slides after the first contact of a sweep
		MaxDepth int
		// VeryCloseDist is the gap kept between a character and what it hits, in
		// ellipsoid space
		VeryCloseDist float64
	}
	World struct {
		// FixedUpdateTime is the duration of one simulation tick, in seconds
		FixedUpdateTime float64
		// MaxStepsPerFrame caps the ticks run by one Step. Past it the remaining time
		// is dropped.
		MaxStepsPerFrame int
		// Gravity is the distance fallen per second. It is applied as a constant
		// displacement, not as an acceleration.
		Gravity []float64
		// GroundProbeDistance is how far below a character the ground is looked for
		GroundProbeDistance float64
		// Workers is the number of goroutines characters are spread across
		Workers int
	}
	Grid struct {
		// Enabled restricts collision queries to the static triangles near a character
		Enabled  bool
		CellSize float64
		NumCells int
	}
}

// DefaultSettings returns the settings matching the reference game tuning.
func DefaultSettings() Settings {
	settings := Settings{}

	settings.Collision.MaxDepth = slide.DefaultMaxDepth
	settings.Collision.VeryCloseDist = slide.DefaultVeryCloseDist

	settings.World.FixedUpdateTime = 1.0 / 60.0
	settings.World.MaxStepsPerFrame = 5
	settings.World.Gravity = []float64{0, 0, -200}
	settings.World.GroundProbeDistance = 7
	settings.World.Workers = DEFAULT_WORKERS

	settings.Grid.Enabled = false
	settings.Grid.CellSize = 64
	settings.Grid.NumCells = 4096
	return settings
}

// Validate reports the first setting that cannot be used.
func (s Settings) Validate() error {
	switch {
	case s.Collision.MaxDepth < 0:
		return fmt.Errorf("%w: Collision.MaxDepth must not be negative", ErrInvalidSettings)
	case s.Collision.VeryCloseDist <= 0:
		return fmt.Errorf("%w: Collision.VeryCloseDist must be positive", ErrInvalidSettings)
	case s.World.FixedUpdateTime <= 0:
		return fmt.Errorf("%w: World.FixedUpdateTime must be positive", ErrInvalidSettings)
	case s.World.MaxStepsPerFrame <= 0:
		return fmt.Errorf("%w: World.MaxStepsPerFrame must be positive", ErrInvalidSettings)
	case len(s.World.Gravity) != 3:
		return fmt.Errorf("%w: World.Gravity needs 3 components, got %d", ErrInvalidSettings, len(s.World.Gravity))
	case s.World.GroundProbeDistance <= 0:
		return fmt.Errorf("%w: World.GroundProbeDistance must be positive", ErrInvalidSettings)
	case s.World.Workers <= 0:
		return fmt.Errorf("%w: World.Workers must be positive", ErrInvalidSettings)
	case s.Grid.Enabled && s.Grid.CellSize <= 0:
		return fmt.Errorf("%w: Grid.CellSize must be positive", ErrInvalidSettings)
	case s.Grid.Enabled && s.Grid.NumCells <= 0:
		return fmt.Errorf("%w: Grid.NumCells must be positive", ErrInvalidSettings)
	}
	return nil
}

// Resolver returns the slide resolver described by the Collision section
func (s Settings) Resolver() slide.Resolver {
	return slide.Resolver{
		MaxDepth:      s.Collision.MaxDepth,
		VeryCloseDist: s.Collision.VeryCloseDist,
	}
}

// GravityVec returns World.Gravity as a vector, zero if it is malformed
func (s Settings) GravityVec() mgl64.Vec3 {
	if len(s.World.Gravity) != 3 {
		return mgl64.Vec3{}
	}
	return mgl64.Vec3{s.World.Gravity[0], s.World.Gravity[1], s.World.Gravity[2]}
}

// SaveDefaultSettings creates the default settings file. If the file already
// exists, it returns ErrSettingsExist.
func SaveDefaultSettings(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return ErrSettingsExist
	}

	data, err := toml.Marshal(DefaultSettings())
	if err != nil {
		return fmt.Errorf("failed encoding default settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed creating settings file: %w", err)
	}
	return nil
}

// LoadSettings reads and validates the settings file at path.
func LoadSettings(path string) (Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Settings{}, ErrSettingsMissing
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("error reading settings: %w", err)
	}

	var settings Settings
	if err = toml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("error decoding settings: %w", err)
	}
	if err = settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}
