package engine

// KeyTracker tells object keys apart from string values for decoders (such
// as encoding/json and go-json) whose Token APIs report both as strings.
type KeyTracker struct {
	stack []trackFrame
}

type trackFrame struct {
	object       bool
	expectingKey bool
}

// Open records a container start.
func (k *KeyTracker) Open(object bool) {
	k.stack = append(k.stack, trackFrame{object: object, expectingKey: object})
}

// Close records a container end; the container counts as the parent's value.
func (k *KeyTracker) Close() {
	if n := len(k.stack); n > 0 {
		k.stack = k.stack[:n-1]
	}
	k.valueDone()
}

// String classifies a string token, returning KindKey or KindString.
func (k *KeyTracker) String() Kind {
	if n := len(k.stack); n > 0 {
		top := &k.stack[n-1]
		if top.object && top.expectingKey {
			top.expectingKey = false
			return KindKey
		}
	}
	k.valueDone()
	return KindString
}

// Scalar records a non-string scalar value.
func (k *KeyTracker) Scalar() { k.valueDone() }

func (k *KeyTracker) valueDone() {
	if n := len(k.stack); n > 0 {
		top := &k.stack[n-1]
		if top.object {
			top.expectingKey = true
		}
	}
}
