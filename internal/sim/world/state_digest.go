package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteU64(h, &tmp, math.Float64bits(w.clock.Elapsed()))
	digestWriteU64(h, &tmp, math.Float64bits(w.clock.Scale()))
	h.Write([]byte{boolByte(w.clock.Paused()), byte(w.resolver.Rotation())})
	h.Write([]byte(w.resolver.Tool().String()))

	w.digestChunks(h, &tmp)
	w.digestInventory(h, &tmp)
	w.digestDrops(h, &tmp)

	return hex.EncodeToString(h.Sum(nil))
}

func (w *World) digestChunks(h hashWriter, tmp *[8]byte) {
	for _, c := range w.store.ChunkCoords() {
		ch, _ := w.store.Chunk(c)
		digestWriteI64(h, tmp, int64(c.X))
		digestWriteI64(h, tmp, int64(c.Y))
		sum := ch.Digest()
		h.Write(sum[:])
	}
}

func (w *World) digestInventory(h hashWriter, tmp *[8]byte) {
	stacks := w.inventory.Items()
	digestWriteU64(h, tmp, uint64(len(stacks)))
	for _, st := range stacks {
		h.Write([]byte(st.Item.String()))
		digestWriteU64(h, tmp, uint64(st.Amount))
	}
}

func (w *World) digestDrops(h hashWriter, tmp *[8]byte) {
	drops := w.Drops()
	digestWriteU64(h, tmp, w.nextDropID)
	digestWriteU64(h, tmp, uint64(len(drops)))
	for _, d := range drops {
		digestWriteU64(h, tmp, d.ID)
		h.Write([]byte(d.Item.String()))
		digestWriteU64(h, tmp, uint64(d.Amount))
		x, y := d.WorldPos()
		digestWriteI64(h, tmp, int64(x))
		digestWriteI64(h, tmp, int64(y))
	}
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}
