package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"
)

// Digest returns a stable fingerprint of the simulation state. Two runs of
// the same project with the same seed must digest identically tick by tick;
// replay verification compares nothing else.
func Digest(w *World) string {
	h := sha256.New()
	var tmp [8]byte

	digestHeader(h, &tmp, w)
	digestGlobals(h, &tmp, w)
	digestStages(h, &tmp, w)

	return hex.EncodeToString(h.Sum(nil))
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

func digestHeader(h hashWriter, tmp *[8]byte, w *World) {
	digestWriteString(h, tmp, w.ID)
	digestWriteU64(h, tmp, w.Tick)
	digestWriteU64(h, tmp, uint64(w.NextActorNum))
	digestWriteString(h, tmp, w.SelectedStageID)
	digestWriteString(h, tmp, w.Input.ClickedActorID)
	digestWriteString(h, tmp, w.Input.Key)
	digestWriteU64(h, tmp, uint64(len(w.CharacterOrder)))
	for _, id := range w.CharacterOrder {
		digestWriteString(h, tmp, id)
	}
}

func digestGlobals(h hashWriter, tmp *[8]byte, w *World) {
	digestWriteU64(h, tmp, uint64(len(w.GlobalOrder)))
	for _, id := range w.GlobalOrder {
		digestWriteString(h, tmp, id)
		if g := w.Globals[id]; g != nil {
			digestWriteString(h, tmp, g.Value)
		} else {
			digestWriteString(h, tmp, "")
		}
	}
}

func digestStages(h hashWriter, tmp *[8]byte, w *World) {
	digestWriteU64(h, tmp, uint64(len(w.StageOrder)))
	for _, sid := range w.StageOrder {
		st := w.Stages[sid]
		digestWriteString(h, tmp, sid)
		if st == nil {
			continue
		}
		digestWriteU64(h, tmp, uint64(st.Width))
		digestWriteU64(h, tmp, uint64(st.Height))
		digestWriteString(h, tmp, st.Background)
		digestWriteU64(h, tmp, uint64(len(st.ActorOrder)))
		for _, aid := range st.ActorOrder {
			a := st.Actors[aid]
			digestWriteString(h, tmp, aid)
			if a == nil {
				continue
			}
			digestWriteString(h, tmp, a.CharacterID)
			digestWriteI64(h, tmp, int64(a.Pos.X))
			digestWriteI64(h, tmp, int64(a.Pos.Y))
			digestWriteString(h, tmp, a.Appearance)
			digestWriteString(h, tmp, a.Transform)
			digestWriteU64(h, tmp, uint64(a.Frame))
			digestVariables(h, tmp, a.Variables)
		}
	}
}

func digestVariables(h hashWriter, tmp *[8]byte, vars map[string]string) {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	digestWriteU64(h, tmp, uint64(len(keys)))
	for _, k := range keys {
		digestWriteString(h, tmp, k)
		digestWriteString(h, tmp, vars[k])
	}
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteString(h hashWriter, tmp *[8]byte, s string) {
	digestWriteU64(h, tmp, uint64(len(s)))
	h.Write([]byte(s))
}
