package bytecode

import (
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/funvibe/clever/internal/opcode"
)

// WriteFile persists stream's wire form to path, the bytecode cache entry
// for a given source file (internal/config's BytecodeCacheDir).
func WriteFile(path string, stream *opcode.Stream) error {
	return os.WriteFile(path, Encode(stream), 0o644)
}

// ReadFile loads and decodes a .cvmb file, memory-mapping it read-only
// rather than copying it into a heap-allocated byte slice — the cache file
// can be read by the loader without ever holding the whole thing resident,
// and the mapping is released as soon as Decode has walked it once.
func ReadFile(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer m.Unmap()

	return Decode([]byte(m))
}
