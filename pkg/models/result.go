package models

import "time"

// Pass records a single action applied to the session buffer
type Pass struct {
	Key        string    `json:"key"`
	Rule       string    `json:"rule"`
	SizeBefore int       `json:"size_before"`
	SizeAfter  int       `json:"size_after"`
	Changed    bool      `json:"changed"`
	AppliedAt  time.Time `json:"applied_at"`
}

// Delta returns the size change in bytes (negative when the buffer shrank)
func (p *Pass) Delta() int {
	return p.SizeAfter - p.SizeBefore
}

// Save records a buffer write
type Save struct {
	Path    string    `json:"path"`
	Size    int       `json:"size"`
	SavedAt time.Time `json:"saved_at"`
}

// SessionLog contains everything that happened during a session
type SessionLog struct {
	// Summary
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Duration    time.Duration `json:"duration"`
	InputPath   string        `json:"input_path"`
	Encoding    string        `json:"encoding,omitempty"`
	InitialSize int           `json:"initial_size"`
	FinalSize   int           `json:"final_size"`

	// Activity
	Passes []*Pass `json:"passes"`
	Saves  []*Save `json:"saves,omitempty"`
	Undos  int     `json:"undos"`
	Resets int     `json:"resets"`

	Version string `json:"version"`
}

// NewSessionLog creates an empty log for the given input
func NewSessionLog(inputPath string) *SessionLog {
	return &SessionLog{
		StartTime: time.Now(),
		InputPath: inputPath,
		Passes:    make([]*Pass, 0),
	}
}

// AddPass appends a pass to the log
func (l *SessionLog) AddPass(p *Pass) {
	l.Passes = append(l.Passes, p)
}

// ChangedPasses returns the number of passes that modified the buffer
func (l *SessionLog) ChangedPasses() int {
	n := 0
	for _, p := range l.Passes {
		if p.Changed {
			n++
		}
	}
	return n
}

// Finish stamps the end time and final buffer size
func (l *SessionLog) Finish(finalSize int) {
	l.EndTime = time.Now()
	l.Duration = l.EndTime.Sub(l.StartTime)
	l.FinalSize = finalSize
}
