package ncnn

import "io"

type sourceKind int

const (
	sourcePath sourceKind = iota
	sourceBytes
	sourceReader
)

// Source is one of the three ways to hand topology or weights to a Net:
// a filesystem path, an in-memory buffer, or a stream.
type Source struct {
	kind   sourceKind
	path   string
	data   []byte
	r      io.Reader
	binary bool
}

// FromPath loads from a file on disk. For topology the file is the text
// .param format.
func FromPath(path string) Source { return Source{kind: sourcePath, path: path} }

// FromBinaryPath loads a binary .param.bin topology from disk. For weights
// it is the same as FromPath.
func FromBinaryPath(path string) Source { return Source{kind: sourcePath, path: path, binary: true} }

// FromBytes loads from memory. The buffer is bridged through a temporary
// file that is always removed afterwards.
func FromBytes(b []byte) Source { return Source{kind: sourceBytes, data: b} }

// FromBinaryBytes is FromBytes for a binary topology.
func FromBinaryBytes(b []byte) Source { return Source{kind: sourceBytes, data: b, binary: true} }

// FromReader streams from r. Weights and binary topologies are pulled chunk
// by chunk through the native datareader; a text topology is read fully and
// loaded as FromBytes.
func FromReader(r io.Reader) Source { return Source{kind: sourceReader, r: r} }

// FromBinaryReader is FromReader for a binary topology.
func FromBinaryReader(r io.Reader) Source { return Source{kind: sourceReader, r: r, binary: true} }

func (s Source) String() string {
	switch s.kind {
	case sourceBytes:
		return "<bytes>"
	case sourceReader:
		return "<reader>"
	default:
		return s.path
	}
}
