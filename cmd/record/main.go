package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"stagecraft.dev/internal/persistence/indexdb"
	"stagecraft.dev/internal/persistence/journal"
	"stagecraft.dev/internal/sim/world"
)

func main() {
	var (
		beforePath = flag.String("before", "", "path to world document before the demonstration")
		afterPath  = flag.String("after", "", "path to world document after the demonstration")
		stageID    = flag.String("stage", "", "stage id (default: selected stage of the before world)")
		extentSpec = flag.String("extent", "", "extent as x0,y0,x1,y1 (default: whole stage)")
		opsSpec    = flag.String("ops", "", "arithmetic prefs as id=add,id=subtract (default: all sets)")
		recID      = flag.String("id", "rec_1", "recording id")
		recName    = flag.String("name", "", "recording name")
		outPath    = flag.String("out", "", "output path (default: stdout)")
		dataDir    = flag.String("data", "", "runtime data directory; when set, the recording is journaled and indexed")
	)
	flag.Parse()

	if *beforePath == "" || *afterPath == "" {
		fmt.Fprintln(os.Stderr, "missing -before or -after")
		os.Exit(2)
	}

	before := readWorld(*beforePath)
	after := readWorld(*afterPath)

	sid := strings.TrimSpace(*stageID)
	if sid == "" {
		sid = before.SelectedStageID
	}
	if sid == "" {
		fmt.Fprintln(os.Stderr, "no stage: -stage empty and before world has no selected stage")
		os.Exit(2)
	}
	st := before.Stage(sid)
	if st == nil {
		fmt.Fprintf(os.Stderr, "stage %q not found in before world\n", sid)
		os.Exit(1)
	}

	extent := world.Extent{XMin: 0, YMin: 0, XMax: st.Width - 1, YMax: st.Height - 1}
	if strings.TrimSpace(*extentSpec) != "" {
		var err error
		extent, err = parseExtent(*extentSpec)
		if err != nil {
			fmt.Fprintln(os.Stderr, "parse extent:", err)
			os.Exit(2)
		}
	}

	prefs := world.RecordingPrefs{}
	if strings.TrimSpace(*opsSpec) != "" {
		var err error
		prefs.VariableOps, err = parseOps(*opsSpec)
		if err != nil {
			fmt.Fprintln(os.Stderr, "parse ops:", err)
			os.Exit(2)
		}
	}

	rec, err := world.DiffWorlds(before, after, sid, extent, prefs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "diff:", err)
		os.Exit(1)
	}

	b, err := world.EncodeRecording(rec, prefs, *recID, *recName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "encode recording:", err)
		os.Exit(1)
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, b, 0o644); err != nil {
			fmt.Fprintln(os.Stderr, "write recording:", err)
			os.Exit(1)
		}
	} else {
		_, _ = os.Stdout.Write(b)
	}

	fmt.Fprintf(os.Stderr, "recording %s: stage=%s anchor=%s extent=[%d,%d %d,%d] conditions=%d actions=%d\n",
		*recID, rec.StageID, rec.AnchorActorID,
		rec.Extent.XMin, rec.Extent.YMin, rec.Extent.XMax, rec.Extent.YMax,
		len(rec.Conditions), len(rec.Actions))

	if strings.TrimSpace(*dataDir) != "" {
		logRecording(*dataDir, before, rec, b, *recID, *recName)
	}
}

func readWorld(path string) *world.World {
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read world:", err)
		os.Exit(1)
	}
	w, err := world.DecodeWorld(b)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode %s: %v\n", filepath.Base(path), err)
		os.Exit(1)
	}
	return w
}

func parseExtent(s string) (world.Extent, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return world.Extent{}, fmt.Errorf("want x0,y0,x1,y1, got %q", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return world.Extent{}, fmt.Errorf("bad coordinate %q", p)
		}
		vals[i] = v
	}
	return world.Extent{XMin: vals[0], YMin: vals[1], XMax: vals[2], YMax: vals[3]}, nil
}

func parseOps(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, kv := range strings.Split(s, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("want id=op, got %q", kv)
		}
		v = strings.TrimSpace(v)
		if v != "add" && v != "subtract" {
			return nil, fmt.Errorf("op for %q must be add or subtract, got %q", k, v)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

func logRecording(dataDir string, before *world.World, rec *world.Recording, raw []byte, id, name string) {
	worldDir := filepath.Join(dataDir, "worlds", before.ID)
	_ = os.MkdirAll(worldDir, 0o755)

	entry := journal.RecordingEntry{
		Tick:        before.Tick,
		RecordingID: id,
		Name:        name,
		StageID:     rec.StageID,
		Actions:     len(rec.Actions),
		Conditions:  len(rec.Conditions),
	}

	recLog := journal.NewRecordingLogger(worldDir)
	if err := recLog.WriteRecording(entry); err != nil {
		fmt.Fprintln(os.Stderr, "journal recording:", err)
	}
	_ = recLog.Close()

	idx, err := indexdb.OpenSQLite(filepath.Join(worldDir, "index.db"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "open index:", err)
		return
	}
	idx.RecordRecording(before.ID, entry, raw)
	if err := idx.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "close index:", err)
	}
}
