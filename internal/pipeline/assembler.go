package pipeline

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// BibliographyName is the reserved blob name the bibliography is stored
// under. Documents reference it as #bibliography("refs.yml").
const BibliographyName = "refs.yml"

// Input is a consistent snapshot of the editor state.
type Input struct {
	Source       string
	Bibliography string
	Images       map[string]string // identifier -> data URL or bare base64
}

// Blob is a named binary resource of a unit.
type Blob struct {
	Name string
	Data []byte
}

// SkippedImage records an image that could not be decoded and was left out
// of the unit.
type SkippedImage struct {
	ID  string
	Err error
}

// Unit is an immutable compilation unit: the source plus its named blobs.
// Blobs are kept sorted by name; accessors return copies.
type Unit struct {
	source string
	blobs  []Blob
}

// Assemble builds a unit from a snapshot. A blank source fails with
// ErrEmptySource. Images that fail to decode are skipped and reported;
// they never fail the assembly.
func Assemble(in Input) (*Unit, []SkippedImage, error) {
	if strings.TrimSpace(in.Source) == "" {
		return nil, nil, ErrEmptySource
	}

	u := &Unit{source: in.Source}
	if strings.TrimSpace(in.Bibliography) != "" {
		u.blobs = append(u.blobs, Blob{Name: BibliographyName, Data: []byte(in.Bibliography)})
	}

	var skipped []SkippedImage
	for id, payload := range in.Images {
		if id == BibliographyName {
			skipped = append(skipped, SkippedImage{ID: id, Err: fmt.Errorf("%w: %s", ErrReservedName, id)})
			continue
		}
		data, err := DecodeImage(payload)
		if err != nil {
			skipped = append(skipped, SkippedImage{ID: id, Err: err})
			continue
		}
		u.blobs = append(u.blobs, Blob{Name: id, Data: data})
	}

	sort.Slice(u.blobs, func(i, j int) bool { return u.blobs[i].Name < u.blobs[j].Name })
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].ID < skipped[j].ID })
	return u, skipped, nil
}

// DecodeImage extracts the binary body of an image payload. The body is
// everything after the first comma, or the whole payload if there is none,
// decoded as standard base64.
func DecodeImage(payload string) ([]byte, error) {
	body := payload
	if i := strings.IndexByte(payload, ','); i >= 0 {
		body = payload[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return data, nil
}

// Source returns the markup source of the unit.
func (u *Unit) Source() string {
	return u.source
}

// Blobs returns a copy of the unit's blobs, sorted by name.
func (u *Unit) Blobs() []Blob {
	out := make([]Blob, len(u.blobs))
	for i, b := range u.blobs {
		out[i] = Blob{Name: b.Name, Data: append([]byte(nil), b.Data...)}
	}
	return out
}

// Blob returns a copy of the named blob's data.
func (u *Unit) Blob(name string) ([]byte, bool) {
	i := sort.Search(len(u.blobs), func(i int) bool { return u.blobs[i].Name >= name })
	if i < len(u.blobs) && u.blobs[i].Name == name {
		return append([]byte(nil), u.blobs[i].Data...), true
	}
	return nil, false
}

// Names returns the blob names in order.
func (u *Unit) Names() []string {
	names := make([]string, len(u.blobs))
	for i, b := range u.blobs {
		names[i] = b.Name
	}
	return names
}

// Len returns the number of blobs.
func (u *Unit) Len() int {
	return len(u.blobs)
}

// Digest returns a hex-encoded BLAKE3 hash of the unit's content.
// Units assembled from equal inputs have equal digests.
func (u *Unit) Digest() string {
	h := blake3.New()
	writeField(h, []byte(u.source))
	for _, b := range u.blobs {
		writeField(h, []byte(b.Name))
		writeField(h, b.Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// writeField writes a length-prefixed field so that field boundaries are
// part of the hash.
func writeField(h *blake3.Hasher, p []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(p)))
	_, _ = h.Write(n[:])
	_, _ = h.Write(p)
}
