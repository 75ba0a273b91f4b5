package experiment

// Snapshot is the serializable view of an experiment used by session dumps.
// Raw sample vectors are left out; the ordering table and file list are
// enough to rebuild the experiment from the original upload files.
type Snapshot struct {
	Name         string             `yaml:"name" json:"name"`
	Instrument   string             `yaml:"instrument" json:"instrument"`
	Volume       float64            `yaml:"volume,omitempty" json:"volume,omitempty"`
	Area         float64            `yaml:"area,omitempty" json:"area,omitempty"`
	BaseColor    string             `yaml:"basecolor" json:"basecolor"`
	Clean        bool               `yaml:"clean" json:"clean"`
	SkippedFiles int                `yaml:"skippedfiles,omitempty" json:"skippedfiles,omitempty"`
	Files        []FileSnapshot     `yaml:"files" json:"files"`
	CycleCount   int                `yaml:"cyclecount" json:"cyclecount"`
}

// FileSnapshot describes one halfcycle file and its slot in the ordering
// table.
type FileSnapshot struct {
	Filename   string `yaml:"filename" json:"filename"`
	Type       string `yaml:"type" json:"type"`
	CycleIndex int    `yaml:"cycleindex" json:"cycleindex"`
	SlotIndex  int    `yaml:"slotindex" json:"slotindex"`
	Points     int    `yaml:"points" json:"points"`
}

// Snapshot captures the experiment's current state for serialization.
func (e *Experiment) Snapshot() Snapshot {
	s := Snapshot{
		Name:         e.name,
		Instrument:   string(e.instrument),
		Volume:       e.volume,
		Area:         e.area,
		BaseColor:    e.baseColor.Hex(),
		Clean:        e.clean,
		SkippedFiles: e.skippedFiles,
		Files:        make([]FileSnapshot, 0, len(e.fileOrder)),
		CycleCount:   len(e.cycles),
	}
	for _, name := range e.fileOrder {
		rec := e.records[name]
		entry := e.ordering[name]
		s.Files = append(s.Files, FileSnapshot{
			Filename:   name,
			Type:       string(rec.Type),
			CycleIndex: entry.CycleIndex,
			SlotIndex:  entry.SlotIndex,
			Points:     len(rec.Voltage),
		})
	}
	return s
}
