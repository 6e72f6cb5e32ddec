package driver

import (
	"encoding/gob"
	"os"
)

// Checkpoint holds enough state to resume a RunAll call that was
// interrupted partway through its graph list, grounded on this codebase's
// search-checkpoint format but tracking completed graph labels instead of
// a target-sequence cursor.
type Checkpoint struct {
	Completed []string
	Outcomes  []Outcome
}

func init() {
	gob.Register(Outcome{})
}

// SaveCheckpoint writes ckpt to path.
func SaveCheckpoint(path string, ckpt *Checkpoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(ckpt)
}

// LoadCheckpoint reads a Checkpoint previously written by SaveCheckpoint.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var ckpt Checkpoint
	if err := gob.NewDecoder(f).Decode(&ckpt); err != nil {
		return nil, err
	}
	return &ckpt, nil
}

// Pending filters labels down to those not yet in ckpt.Completed, so a
// resumed RunAll skips work it already finished.
func (c *Checkpoint) Pending(labels []string) []string {
	done := make(map[string]bool, len(c.Completed))
	for _, l := range c.Completed {
		done[l] = true
	}
	var pending []string
	for _, l := range labels {
		if !done[l] {
			pending = append(pending, l)
		}
	}
	return pending
}
