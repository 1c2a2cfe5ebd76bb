package systems

// SystemInfo describes a simulation system for diagnostics and UI display.
type SystemInfo struct {
	ID          string // Internal identifier (used for perf tracking)
	Name        string // Display name
	Description string // What this system does
	Category    string // Grouping (e.g., "regulatory", "pattern")
}

// SystemRegistry holds metadata about all systems.
// This centralizes system naming so diagnostics and the UI stay in sync.
type SystemRegistry struct {
	systems []SystemInfo
	byID    map[string]SystemInfo
}

// NewSystemRegistry creates a registry with all known systems.
func NewSystemRegistry() *SystemRegistry {
	reg := &SystemRegistry{
		byID: make(map[string]SystemInfo),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds all known systems to the registry, in tick order.
// Update this when adding new systems.
func (r *SystemRegistry) registerDefaults() {
	r.Register(SystemInfo{ID: "commands", Name: "Commands", Description: "Drains the queued control surface", Category: "core"})
	r.Register(SystemInfo{ID: "stages", Name: "Stage Controller", Description: "Advances developmental age and pushes kinetics", Category: "regulatory"})
	r.Register(SystemInfo{ID: "diffusion", Name: "Field Diffusion", Description: "Diffuses and decays morphogen grids", Category: "regulatory"})
	r.Register(SystemInfo{ID: "injection", Name: "Segment Injection", Description: "Adds segment-local morphogen sources", Category: "regulatory"})
	r.Register(SystemInfo{ID: "genes", Name: "Gene Evaluation", Description: "Recomputes gene expression from field averages", Category: "regulatory"})
	r.Register(SystemInfo{ID: "matrix", Name: "Interaction Matrix", Description: "Regenerates the pairwise rule set", Category: "regulatory"})
	r.Register(SystemInfo{ID: "engine", Name: "Particle Engine", Description: "Integrates particle motion", Category: "physics"})
	r.Register(SystemInfo{ID: "segments", Name: "Segment Assignment", Description: "Buckets particles along the body axis", Category: "regulatory"})
	r.Register(SystemInfo{ID: "modules", Name: "Developmental Modules", Description: "Runs time-windowed activation rules", Category: "pattern"})
	r.Register(SystemInfo{ID: "evodevo", Name: "Evo-Devo", Description: "Applies homeotic, heterochronic, and allometric transforms", Category: "pattern"})
	r.Register(SystemInfo{ID: "telemetry", Name: "Telemetry", Description: "Flushes windowed stats", Category: "internal"})
}

// Register adds a system to the registry.
func (r *SystemRegistry) Register(info SystemInfo) {
	r.systems = append(r.systems, info)
	r.byID[info.ID] = info
}

// Get returns system info by ID.
func (r *SystemRegistry) Get(id string) (SystemInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for a system ID.
// Falls back to the ID itself if not found.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// All returns all registered systems.
func (r *SystemRegistry) All() []SystemInfo {
	return r.systems
}

// ByCategory returns systems filtered by category.
func (r *SystemRegistry) ByCategory(category string) []SystemInfo {
	var result []SystemInfo
	for _, info := range r.systems {
		if info.Category == category {
			result = append(result, info)
		}
	}
	return result
}

// IDs returns all system IDs in registration order.
func (r *SystemRegistry) IDs() []string {
	ids := make([]string, len(r.systems))
	for i, info := range r.systems {
		ids[i] = info.ID
	}
	return ids
}
