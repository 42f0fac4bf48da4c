// Package profiles describes the audio encoding profiles the splitter can
// target. Built-in profiles cover the common lossless and lossy formats; a
// YAML file can add or override profiles without rebuilding.
package profiles

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"mediatoc/internal/engine"
)

// Profile names the engine elements one output format needs.
type Profile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Encoder is the engine encoder element. Muxer is empty for formats
	// whose encoder writes its own container.
	Encoder string `yaml:"encoder"`
	Muxer   string `yaml:"muxer"`

	// Extension is the output file extension without the leading dot.
	Extension string `yaml:"extension"`
}

// Requirements lists the engine elements that must be available before a
// split using this profile can start.
func (p Profile) Requirements() []engine.Requirement {
	reqs := []engine.Requirement{
		{Name: p.Encoder, Description: fmt.Sprintf("%s encoding", p.Name)},
	}
	if p.Muxer != "" {
		reqs = append(reqs, engine.Requirement{
			Name:        p.Muxer,
			Description: fmt.Sprintf("%s muxing", p.Name),
		})
	}
	return reqs
}

func (p Profile) validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile without a name")
	}
	if p.Encoder == "" {
		return fmt.Errorf("profile %s: encoder is required", p.Name)
	}
	if p.Extension == "" {
		return fmt.Errorf("profile %s: extension is required", p.Name)
	}
	return nil
}

// builtin profiles mirror the formats the splitter supports out of the box.
var builtin = []Profile{
	{Name: "flac", Description: "FLAC lossless", Encoder: "flacenc", Extension: "flac"},
	{Name: "wav", Description: "Waveform PCM", Encoder: "wavenc", Extension: "wav"},
	{Name: "ogg-vorbis", Description: "Ogg Vorbis", Encoder: "vorbisenc", Muxer: "oggmux", Extension: "ogg"},
	{Name: "ogg-opus", Description: "Ogg Opus", Encoder: "opusenc", Muxer: "oggmux", Extension: "opus"},
	{Name: "mp3", Description: "MPEG layer 3", Encoder: "lamemp3enc", Muxer: "id3mux", Extension: "mp3"},
}

// Registry resolves profiles by name.
type Registry struct {
	byName map[string]Profile
}

// NewRegistry returns a registry holding only the built-in profiles.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Profile, len(builtin))}
	for _, p := range builtin {
		r.byName[p.Name] = p
	}
	return r
}

// Load merges profiles from a YAML file over the registry. Entries sharing a
// built-in name replace it.
func (r *Registry) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read profiles: %w", err)
	}
	var file struct {
		Profiles []Profile `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse profiles %s: %w", path, err)
	}
	for _, p := range file.Profiles {
		if err := p.validate(); err != nil {
			return fmt.Errorf("profiles %s: %w", path, err)
		}
		r.byName[p.Name] = p
	}
	return nil
}

// Get resolves a profile by name.
func (r *Registry) Get(name string) (Profile, error) {
	p, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q (available: %s)",
			name, strings.Join(r.Names(), ", "))
	}
	return p, nil
}

// Names lists the registered profile names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered profiles sorted by name.
func (r *Registry) All() []Profile {
	all := make([]Profile, 0, len(r.byName))
	for _, name := range r.Names() {
		all = append(all, r.byName[name])
	}
	return all
}
