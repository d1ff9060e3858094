package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the engine knobs read from tuning.yaml. Zero values mean
// "use the default"; Normalize fills them in.
type Tuning struct {
	TickRateHz         int   `yaml:"tick_rate_hz"`
	HistoryCap         int   `yaml:"history_cap"`
	MaxLoopIterations  int   `yaml:"max_loop_iterations"`
	JournalEveryTicks  int   `yaml:"journal_every_ticks"`
	SnapshotEveryTicks int   `yaml:"snapshot_every_ticks"`
	MaxActorsPerStage  int   `yaml:"max_actors_per_stage"`
	RNGSeed            int64 `yaml:"rng_seed"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:         5,
		HistoryCap:         64,
		MaxLoopIterations:  100,
		JournalEveryTicks:  1,
		SnapshotEveryTicks: 600,
		MaxActorsPerStage:  512,
		RNGSeed:            0,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Normalize replaces unset (zero) knobs with their defaults. Explicitly
// bad values are left for Validate to reject.
func (t *Tuning) Normalize() {
	if t == nil {
		return
	}
	def := Defaults()
	if t.TickRateHz == 0 {
		t.TickRateHz = def.TickRateHz
	}
	if t.HistoryCap == 0 {
		t.HistoryCap = def.HistoryCap
	}
	if t.MaxLoopIterations == 0 {
		t.MaxLoopIterations = def.MaxLoopIterations
	}
	if t.JournalEveryTicks == 0 {
		t.JournalEveryTicks = def.JournalEveryTicks
	}
	if t.MaxActorsPerStage == 0 {
		t.MaxActorsPerStage = def.MaxActorsPerStage
	}
}

func (t Tuning) Validate() error {
	if t.TickRateHz < 1 || t.TickRateHz > 240 {
		return fmt.Errorf("tick_rate_hz must be in [1, 240], got %d", t.TickRateHz)
	}
	if t.HistoryCap < 1 || t.HistoryCap > 4096 {
		return fmt.Errorf("history_cap must be in [1, 4096], got %d", t.HistoryCap)
	}
	if t.MaxLoopIterations < 1 || t.MaxLoopIterations > 100000 {
		return fmt.Errorf("max_loop_iterations must be in [1, 100000], got %d", t.MaxLoopIterations)
	}
	if t.JournalEveryTicks < 1 {
		return fmt.Errorf("journal_every_ticks must be >= 1, got %d", t.JournalEveryTicks)
	}
	if t.SnapshotEveryTicks < 0 {
		return fmt.Errorf("snapshot_every_ticks must be >= 0, got %d", t.SnapshotEveryTicks)
	}
	if t.MaxActorsPerStage < 1 {
		return fmt.Errorf("max_actors_per_stage must be >= 1, got %d", t.MaxActorsPerStage)
	}
	return nil
}
