// Package blob serializes flattened shader layouts to a compact binary
// format and back.
//
// The format is a little-endian stream of fixed-width uint32 records with a
// trailing string table. Names are stored as (offset, length) pairs into the
// table, so the blob contains no pointers and can be written to disk or
// memory-mapped as-is.
//
// Layout:
//
//	header     8 words: magic, version, entry point count, set count,
//	           binding count, string table offset, string table size,
//	           reserved
//	entries    9 words each
//	sets       5 words each
//	bindings   5 words each
//	strings    raw bytes, deduplicated
//
// Encoding the same layout twice yields byte-identical output.
package blob

import (
	"encoding/binary"
	"fmt"

	"github.com/Mcgode/KryneEngineTools/layout"
)

const (
	// Magic identifies a shader reflection blob ("KSRF" little-endian).
	Magic uint32 = 0x4653524B

	// Version is the current format version.
	Version uint32 = 1
)

const (
	headerWords       = 8
	entryPointWords   = 9
	descriptorSetWord = 5
	bindingWords      = 5
	wordSize          = 4
)

// stringTable accumulates deduplicated string data during encoding.
type stringTable struct {
	data    []byte
	offsets map[string]uint32
}

func newStringTable() *stringTable {
	return &stringTable{offsets: make(map[string]uint32)}
}

// intern returns the (offset, length) of s in the table, appending it on
// first use.
func (st *stringTable) intern(s string) (uint32, uint32) {
	if off, ok := st.offsets[s]; ok {
		return off, uint32(len(s))
	}
	off := uint32(len(st.data))
	st.offsets[s] = off
	st.data = append(st.data, s...)
	return off, uint32(len(s))
}

// wordWriter appends uint32 words to a little-endian byte stream.
type wordWriter struct {
	buf []byte
}

func (w *wordWriter) u32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// Encode serializes the layout.
func Encode(l *layout.ShaderLayout) []byte {
	strings := newStringTable()

	// Intern every name first so the string table size is known before
	// the header is written. Iteration order is the record order, so the
	// table layout is deterministic.
	for i := range l.EntryPoints {
		strings.intern(l.EntryPoints[i].Name)
		if pc := l.EntryPoints[i].PushConstant; pc != nil {
			strings.intern(pc.Name)
		}
	}
	for i := range l.Sets {
		strings.intern(l.Sets[i].Name)
	}
	for i := range l.Bindings {
		strings.intern(l.Bindings[i].Name)
	}

	recordWords := headerWords +
		len(l.EntryPoints)*entryPointWords +
		len(l.Sets)*descriptorSetWord +
		len(l.Bindings)*bindingWords
	stringsOffset := uint32(recordWords * wordSize)

	w := &wordWriter{buf: make([]byte, 0, recordWords*wordSize+len(strings.data))}

	w.u32(Magic)
	w.u32(Version)
	w.u32(uint32(len(l.EntryPoints)))
	w.u32(uint32(len(l.Sets)))
	w.u32(uint32(len(l.Bindings)))
	w.u32(stringsOffset)
	w.u32(uint32(len(strings.data)))
	w.u32(0) // reserved

	for i := range l.EntryPoints {
		ep := &l.EntryPoints[i]
		nameOff, nameLen := strings.intern(ep.Name)
		w.u32(nameOff)
		w.u32(nameLen)
		w.u32(uint32(ep.Stage))
		w.u32(ep.Sets.Begin)
		w.u32(ep.Sets.End)
		if pc := ep.PushConstant; pc != nil {
			pcOff, pcLen := strings.intern(pc.Name)
			w.u32(1)
			w.u32(pcOff)
			w.u32(pcLen)
			w.u32(pc.Size)
		} else {
			w.u32(0)
			w.u32(0)
			w.u32(0)
			w.u32(0)
		}
	}

	for i := range l.Sets {
		set := &l.Sets[i]
		nameOff, nameLen := strings.intern(set.Name)
		w.u32(nameOff)
		w.u32(nameLen)
		w.u32(set.BindingIndex)
		w.u32(set.Bindings.Begin)
		w.u32(set.Bindings.End)
	}

	for i := range l.Bindings {
		b := &l.Bindings[i]
		nameOff, nameLen := strings.intern(b.Name)
		w.u32(nameOff)
		w.u32(nameLen)
		w.u32(b.BindingIndex)
		w.u32(uint32(b.Kind))
		w.u32(uint32(b.Dimensionality))
	}

	w.buf = append(w.buf, strings.data...)
	return w.buf
}

// wordReader consumes uint32 words from a little-endian byte stream.
type wordReader struct {
	buf []byte
	pos int
}

func (r *wordReader) u32() (uint32, error) {
	if r.pos+wordSize > len(r.buf) {
		return 0, fmt.Errorf("truncated blob: need %d bytes at offset %d, have %d",
			wordSize, r.pos, len(r.buf)-r.pos)
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += wordSize
	return v, nil
}

// Decode parses a blob produced by Encode, validating the header, every
// string reference, and every child range.
func Decode(data []byte) (*layout.ShaderLayout, error) {
	r := &wordReader{buf: data}

	magic, err := r.u32()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("bad magic 0x%08X, want 0x%08X", magic, Magic)
	}
	version, err := r.u32()
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("unsupported format version %d, want %d", version, Version)
	}

	var header [6]uint32
	for i := range header {
		if header[i], err = r.u32(); err != nil {
			return nil, err
		}
	}
	entryPointCount := header[0]
	setCount := header[1]
	bindingCount := header[2]
	stringsOffset := header[3]
	stringsSize := header[4]

	if uint64(stringsOffset)+uint64(stringsSize) != uint64(len(data)) {
		return nil, fmt.Errorf("string table [%d,%d) does not end the %d-byte blob",
			stringsOffset, stringsOffset+stringsSize, len(data))
	}

	// The counts drive the output allocations, so they must be proven
	// against the record area before anything is sized from them.
	recordBytes := uint64(headerWords)*wordSize +
		uint64(entryPointCount)*entryPointWords*wordSize +
		uint64(setCount)*descriptorSetWord*wordSize +
		uint64(bindingCount)*bindingWords*wordSize
	if recordBytes != uint64(stringsOffset) {
		return nil, fmt.Errorf("header counts (%d entry points, %d sets, %d bindings) need %d record bytes, string table starts at %d",
			entryPointCount, setCount, bindingCount, recordBytes, stringsOffset)
	}
	stringData := data[stringsOffset:]

	readString := func(off, length uint32) (string, error) {
		if uint64(off)+uint64(length) > uint64(len(stringData)) {
			return "", fmt.Errorf("string reference [%d,%d) outside %d-byte string table",
				off, off+length, len(stringData))
		}
		return string(stringData[off : off+length]), nil
	}

	l := &layout.ShaderLayout{
		EntryPoints: make([]layout.EntryPoint, entryPointCount),
		Sets:        make([]layout.DescriptorSet, setCount),
		Bindings:    make([]layout.DescriptorBinding, bindingCount),
	}

	for i := range l.EntryPoints {
		var words [entryPointWords]uint32
		for j := range words {
			if words[j], err = r.u32(); err != nil {
				return nil, err
			}
		}
		name, err := readString(words[0], words[1])
		if err != nil {
			return nil, fmt.Errorf("entry point %d: %w", i, err)
		}
		if words[2] > uint32(layout.StageTask) {
			return nil, fmt.Errorf("entry point %q: invalid stage %d", name, words[2])
		}
		sets := layout.Range{Begin: words[3], End: words[4]}
		if sets.Begin > sets.End || sets.End > setCount {
			return nil, fmt.Errorf("entry point %q: set range [%d,%d) exceeds %d sets",
				name, sets.Begin, sets.End, setCount)
		}
		ep := layout.EntryPoint{
			Name:  name,
			Stage: layout.ShaderStage(words[2]),
			Sets:  sets,
		}
		if words[5] != 0 {
			pcName, err := readString(words[6], words[7])
			if err != nil {
				return nil, fmt.Errorf("entry point %q push constant: %w", name, err)
			}
			ep.PushConstant = &layout.PushConstant{Name: pcName, Size: words[8]}
		}
		l.EntryPoints[i] = ep
	}

	for i := range l.Sets {
		var words [descriptorSetWord]uint32
		for j := range words {
			if words[j], err = r.u32(); err != nil {
				return nil, err
			}
		}
		name, err := readString(words[0], words[1])
		if err != nil {
			return nil, fmt.Errorf("descriptor set %d: %w", i, err)
		}
		bindings := layout.Range{Begin: words[3], End: words[4]}
		if bindings.Begin > bindings.End || bindings.End > bindingCount {
			return nil, fmt.Errorf("descriptor set %q: binding range [%d,%d) exceeds %d bindings",
				name, bindings.Begin, bindings.End, bindingCount)
		}
		l.Sets[i] = layout.DescriptorSet{
			Name:         name,
			BindingIndex: words[2],
			Bindings:     bindings,
		}
	}

	for i := range l.Bindings {
		var words [bindingWords]uint32
		for j := range words {
			if words[j], err = r.u32(); err != nil {
				return nil, err
			}
		}
		name, err := readString(words[0], words[1])
		if err != nil {
			return nil, fmt.Errorf("binding %d: %w", i, err)
		}
		if words[3] > uint32(layout.KindStorageReadWriteBuffer) {
			return nil, fmt.Errorf("binding %q: invalid kind %d", name, words[3])
		}
		if words[4] > uint32(layout.DimArrayCube) {
			return nil, fmt.Errorf("binding %q: invalid dimensionality %d", name, words[4])
		}
		l.Bindings[i] = layout.DescriptorBinding{
			Name:           name,
			BindingIndex:   words[2],
			Kind:           layout.BindingKind(words[3]),
			Dimensionality: layout.TextureDimensionality(words[4]),
		}
	}

	return l, nil
}
