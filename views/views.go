// Package views keeps named camera views and a copy/paste clipboard. Views are
// held in a Y-up canonical space so a view saved in one scene can be recalled
// in a scene with a different up axis.
package views

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/camrig/camera"
	"github.com/pthm-cable/camrig/geom"
	"github.com/pthm-cable/camrig/lens"
)

var (
	ErrNotFound  = errors.New("view not found")
	ErrDuplicate = errors.New("view name already in use")
	ErrNoCopy    = errors.New("no camera view to paste")
)

// View is a stored camera in canonical space. FOV is in degrees.
type View struct {
	Name       string            `yaml:"name"`
	Eye        r3.Vec            `yaml:"eye"`
	Target     r3.Vec            `yaml:"target"`
	Up         r3.Vec            `yaml:"up"`
	FOV        float64           `yaml:"fov"`
	Projection camera.Projection `yaml:"projection"`
}

type file struct {
	Views []View `yaml:"views"`
}

// Store holds named views for one scene.
type Store struct {
	canon geom.Canonical
	views []View
	clip  *View
}

// New creates an empty store for a world whose up axis is worldUp.
func New(worldUp r3.Vec) (*Store, error) {
	c, err := geom.NewCanonical(worldUp)
	if err != nil {
		return nil, err
	}
	return &Store{canon: c}, nil
}

func (s *Store) toView(name string, st camera.State) View {
	return View{
		Name:       name,
		Eye:        s.canon.ToCanonical(st.Eye),
		Target:     s.canon.ToCanonical(st.Target),
		Up:         s.canon.ToCanonical(st.Up),
		FOV:        lens.Degrees(st.FOV),
		Projection: st.Projection,
	}
}

func (s *Store) toState(v View) (camera.State, error) {
	st := camera.State{
		Eye:        s.canon.FromCanonical(v.Eye),
		Target:     s.canon.FromCanonical(v.Target),
		Up:         s.canon.FromCanonical(v.Up),
		FOV:        lens.Radians(v.FOV),
		Projection: v.Projection,
	}
	st, err := st.Level()
	if err != nil {
		return camera.State{}, fmt.Errorf("view %q: %w", v.Name, err)
	}
	if err := st.Validate(); err != nil {
		return camera.State{}, fmt.Errorf("view %q: %w", v.Name, err)
	}
	return st, nil
}

func (s *Store) index(name string) int {
	return slices.IndexFunc(s.views, func(v View) bool { return v.Name == name })
}

// UniqueName returns the first free default name for a view with projection p:
// "Persp View", then "Persp View 1", "Persp View 2" and so on.
func (s *Store) UniqueName(p camera.Projection) string {
	base := "Persp View"
	if p == camera.Orthographic {
		base = "Ortho View"
	}
	name := base
	for i := 1; s.index(name) >= 0; i++ {
		name = fmt.Sprintf("%s %d", base, i)
	}
	return name
}

// Save stores st under name. An empty name picks a unique default.
func (s *Store) Save(name string, st camera.State) (string, error) {
	if err := st.Validate(); err != nil {
		return "", err
	}
	if name == "" {
		name = s.UniqueName(st.Projection)
	}
	if s.index(name) >= 0 {
		return "", fmt.Errorf("%q: %w", name, ErrDuplicate)
	}
	s.views = append(s.views, s.toView(name, st))
	return name, nil
}

// Get returns the world-space camera stored under name.
func (s *Store) Get(name string) (camera.State, error) {
	i := s.index(name)
	if i < 0 {
		return camera.State{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return s.toState(s.views[i])
}

// Delete removes the view called name.
func (s *Store) Delete(name string) error {
	i := s.index(name)
	if i < 0 {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	s.views = slices.Delete(s.views, i, i+1)
	return nil
}

// Names lists the stored views in the order they were saved.
func (s *Store) Names() []string {
	names := make([]string, len(s.views))
	for i, v := range s.views {
		names[i] = v.Name
	}
	return names
}

// Copy places st on the clipboard.
func (s *Store) Copy(st camera.State) error {
	if err := st.Validate(); err != nil {
		return err
	}
	v := s.toView("", st)
	s.clip = &v
	return nil
}

// Paste returns the copied camera in this store's world space.
func (s *Store) Paste() (camera.State, error) {
	if s.clip == nil {
		return camera.State{}, ErrNoCopy
	}
	return s.toState(*s.clip)
}

// Clipboard returns the copied view so it can be handed to another store.
func (s *Store) Clipboard() (View, bool) {
	if s.clip == nil {
		return View{}, false
	}
	return *s.clip, true
}

// SetClipboard replaces the copied view.
func (s *Store) SetClipboard(v View) { s.clip = &v }

// Load replaces the stored views with those in a YAML file.
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading views file: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing views file: %w", err)
	}

	seen := make(map[string]bool, len(f.Views))
	for _, v := range f.Views {
		if seen[v.Name] {
			return fmt.Errorf("views file: %q: %w", v.Name, ErrDuplicate)
		}
		seen[v.Name] = true
		if _, err := s.toState(v); err != nil {
			return fmt.Errorf("views file: %w", err)
		}
	}
	s.views = f.Views
	return nil
}

// WriteYAML writes the stored views to a YAML file.
func (s *Store) WriteYAML(path string) error {
	data, err := yaml.Marshal(file{Views: s.views})
	if err != nil {
		return fmt.Errorf("marshaling views: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing views file: %w", err)
	}
	return nil
}
