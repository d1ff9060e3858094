package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"stagecraft.dev/internal/interchange"
	"stagecraft.dev/internal/persistence/indexdb"
	"stagecraft.dev/internal/persistence/journal"
	"stagecraft.dev/internal/persistence/snapshot"
	"stagecraft.dev/internal/sim/tuning"
	"stagecraft.dev/internal/sim/world"
)

func main() {
	var (
		worldPath  = flag.String("world", "", "path to world document (.json)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		seed       = flag.Int64("seed", 0, "rng seed (0: tuning rng_seed, then wall clock)")
		ticks      = flag.Uint64("ticks", 0, "step this many ticks then exit (0: run at tick rate until signal)")
		snapPath   = flag.String("snapshot", "", "path to snapshot to resume from (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "resume from latest snapshot in data dir if present (when -snapshot is empty)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite run index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[sim] ", log.LstdFlags|log.Lmicroseconds)

	if *worldPath == "" {
		logger.Fatalf("missing -world")
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	b, err := os.ReadFile(*worldPath)
	if err != nil {
		logger.Fatalf("read world: %v", err)
	}
	w, err := world.DecodeWorld(b)
	if err != nil {
		logger.Fatalf("decode world: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", w.ID)
	_ = os.MkdirAll(worldDir, 0o755)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = tune.RNGSeed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := world.NewRNG(rngSeed)

	// The world document names the run; a snapshot, when present, carries
	// the later state and the exact rng position.
	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(worldDir)
	}
	if snapshotToLoad != "" {
		sw, hdr, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if hdr.WorldID != "" && hdr.WorldID != w.ID {
			logger.Fatalf("snapshot world id mismatch: doc=%s snap=%s", w.ID, hdr.WorldID)
		}
		w = sw
		rng = world.RestoreRNG(hdr.RNGSeed, hdr.RNGPos)
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), w.Tick)
	}

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertWorld(w); err != nil {
			logger.Printf("index: upsert world: %v", err)
		}
	}

	tickLog := journal.NewTickLogger(worldDir)
	defer tickLog.Close()

	actors := 0
	for _, sid := range w.StageOrder {
		if st := w.Stage(sid); st != nil {
			actors += len(st.Actors)
		}
	}
	logger.Printf("world=%s stages=%d actors=%d tick=%d seed=%d rate=%dHz",
		w.ID, len(w.Stages), actors, w.Tick, rng.Seed(), tune.TickRateHz)

	opts := world.Options{MaxLoopIterations: tune.MaxLoopIterations}

	writeSnap := func() {
		path := filepath.Join(worldDir, "snapshots", fmt.Sprintf("%09d.wrld.zst", w.Tick))
		hdr, err := snapshot.WriteSnapshot(path, w, rng.Seed(), rng.Position())
		if err != nil {
			logger.Printf("snapshot write: %v", err)
			return
		}
		logger.Printf("snapshot tick=%d -> %s", hdr.Tick, filepath.Base(path))
		if idx != nil {
			idx.RecordSnapshot(w.ID, path, hdr)
		}
	}

	step := func() {
		tick := w.Tick
		rngPos := rng.Position()
		input := w.Input

		next, _ := world.AdvanceOpts(w, rng, opts)
		w = next

		if tune.JournalEveryTicks > 0 && tick%uint64(tune.JournalEveryTicks) == 0 {
			e := journal.TickEntry{Tick: tick, RNGPos: rngPos, Digest: world.Digest(w)}
			if input != (world.InputState{}) {
				e.Input = &interchange.InputDoc{ClickedActorID: input.ClickedActorID, Key: input.Key}
			}
			if err := tickLog.WriteTick(e); err != nil {
				logger.Printf("journal: %v", err)
			}
			if idx != nil {
				_ = idx.WriteTick(w.ID, e)
			}
		}
		if tune.SnapshotEveryTicks > 0 && w.Tick%uint64(tune.SnapshotEveryTicks) == 0 {
			writeSnap()
		}
	}

	if *ticks > 0 {
		for i := uint64(0); i < *ticks; i++ {
			step()
		}
	} else {
		ctx, cancel := signalContext()
		defer cancel()
		tk := time.NewTicker(time.Second / time.Duration(tune.TickRateHz))
		defer tk.Stop()
	run:
		for {
			select {
			case <-ctx.Done():
				break run
			case <-tk.C:
				step()
			}
		}
	}

	writeSnap()
	if idx != nil {
		if err := idx.UpsertWorld(w); err != nil {
			logger.Printf("index: upsert world: %v", err)
		}
	}
	logger.Printf("stopped tick=%d digest=%s", w.Tick, world.Digest(w))
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func latestSnapshot(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".wrld.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".wrld.zst")
		tick, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}
