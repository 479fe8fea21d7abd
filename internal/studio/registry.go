// Package studio defines the studio surfaces a session can target and loads
// user-defined presets from YAML files.
package studio

import (
	"fmt"
	"sort"
	"sync"

	"studiochat/internal/domain"
)

// Registry holds the known studio presets: builtins plus any loaded from the
// presets directory. User presets override builtins of the same name.
type Registry struct {
	mu      sync.RWMutex
	presets map[string]domain.StudioPreset
}

func NewRegistry() *Registry {
	r := &Registry{presets: make(map[string]domain.StudioPreset)}
	for _, p := range builtins() {
		r.presets[p.Name] = p
	}
	return r
}

func builtins() []domain.StudioPreset {
	return []domain.StudioPreset{
		{
			Name:        "campaign",
			Title:       "Campaign Studio",
			Description: "Multi-channel campaign copy and asset planning",
			Accepts:     []string{"image", "file"},
		},
		{
			Name:        "flyer",
			Title:       "Flyer Studio",
			Description: "Single-page promotional flyer generation",
			Accepts:     []string{"image"},
		},
		{
			Name:        "image",
			Title:       "Image Playground",
			Description: "Freeform image generation and editing",
			Accepts:     []string{"image"},
		},
		{
			Name:        "video",
			Title:       "Video Playground",
			Description: "Short-form video generation",
			Accepts:     []string{"image", "video"},
		},
	}
}

func (r *Registry) Register(p domain.StudioPreset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presets[p.Name] = p
}

func (r *Registry) Get(name string) (domain.StudioPreset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.presets[name]
	if !ok {
		return domain.StudioPreset{}, fmt.Errorf("unknown studio type: %s", name)
	}
	return p, nil
}

func (r *Registry) List() []domain.StudioPreset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.StudioPreset, 0, len(r.presets))
	for _, p := range r.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AcceptsAttachment reports whether the preset allows the attachment type.
// A preset with no Accepts list allows everything.
func AcceptsAttachment(p domain.StudioPreset, t domain.AttachmentType) bool {
	if len(p.Accepts) == 0 {
		return true
	}
	for _, a := range p.Accepts {
		if a == string(t) {
			return true
		}
	}
	return false
}
