package transformsync

// SnapshotBuffer is a bounded, time-ordered queue of snapshots used by
// snapshot interpolation. Entries are appended at the tail only when newer
// than every snapshot accepted before; when full, the oldest entry is dropped.
type SnapshotBuffer struct {
	items []SyncData
	head  int
	count int

	lastTimestamp float64
	hasLast       bool
}

func NewSnapshotBuffer(capacity int) *SnapshotBuffer {
	if capacity < 2 {
		capacity = 2
	}
	return &SnapshotBuffer{items: make([]SyncData, capacity)}
}

// Push appends d and reports whether it was accepted.
func (b *SnapshotBuffer) Push(d SyncData) bool {
	if b.hasLast && d.RemoteTimestamp <= b.lastTimestamp {
		return false
	}
	if b.count == len(b.items) {
		b.popFront()
	}
	b.items[(b.head+b.count)%len(b.items)] = d
	b.count++
	b.lastTimestamp = d.RemoteTimestamp
	b.hasLast = true
	return true
}

// Len returns the number of buffered snapshots.
func (b *SnapshotBuffer) Len() int {
	return b.count
}

// At returns the i-th snapshot, oldest first.
func (b *SnapshotBuffer) At(i int) SyncData {
	return b.items[(b.head+i)%len(b.items)]
}

// Latest returns the newest snapshot.
func (b *SnapshotBuffer) Latest() (SyncData, bool) {
	if b.count == 0 {
		return SyncData{}, false
	}
	return b.At(b.count - 1), true
}

// Snapshots copies the buffer, oldest first.
func (b *SnapshotBuffer) Snapshots() []SyncData {
	out := make([]SyncData, b.count)
	for i := range out {
		out[i] = b.At(i)
	}
	return out
}

// Sample finds the snapshots bracketing playbackTime: higher is the first
// entry at or after it and lower the entry just before higher. When every
// entry is older than playbackTime both are the newest entry; when the oldest
// entry is already at or after it both are the oldest.
func (b *SnapshotBuffer) Sample(playbackTime float64) (lower, higher SyncData, ok bool) {
	if b.count == 0 {
		return SyncData{}, SyncData{}, false
	}
	for i := 0; i < b.count; i++ {
		d := b.At(i)
		if d.RemoteTimestamp >= playbackTime {
			if i == 0 {
				return d, d, true
			}
			return b.At(i - 1), d, true
		}
	}
	latest := b.At(b.count - 1)
	return latest, latest, true
}

// EvictBefore drops snapshots strictly older than timestamp.
func (b *SnapshotBuffer) EvictBefore(timestamp float64) int {
	n := 0
	for b.count > 0 && b.At(0).RemoteTimestamp < timestamp {
		b.popFront()
		n++
	}
	return n
}

// Clear empties the buffer. The acceptance cursor is kept, so snapshots older
// than the last accepted one are still refused.
func (b *SnapshotBuffer) Clear() {
	clear(b.items)
	b.head = 0
	b.count = 0
}

func (b *SnapshotBuffer) popFront() {
	b.items[b.head] = SyncData{}
	b.head = (b.head + 1) % len(b.items)
	b.count--
}
