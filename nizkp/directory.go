// Package nizkp implements the proof-directory layout of spec section 6: a
// bit-exact, file-based artifact a mix-net session writes and an
// independent verifier later re-checks without talking to any party. It
// provides the directory reader/writer and the verifier itself (mix,
// shuffle, decrypt and sloppy subcommands, with -noposc/-noccpos/-nopos/
// -nodec flags to disable individual checks).
//
// Grounded on the teacher's own on-disk artifact conventions: `ring`/`rlwe`
// read and write self-describing binary blobs via plain os.File I/O with
// no archive/serialization framework, which is the same choice made here
// for a directory of named .bt files.
package nizkp

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tuneinsight-mixnet/mixnet/bytetree"
	"github.com/tuneinsight-mixnet/mixnet/protoerr"
)

// Directory is a proof directory rooted at Path (spec 6's `<nizkp>/`
// layout).
type Directory struct {
	Path string
}

// Open wraps an existing or to-be-created directory path.
func Open(path string) *Directory { return &Directory{Path: path} }

// Create makes the directory (and its proofs/ subdirectory) on disk.
func (d *Directory) Create() error {
	if err := os.MkdirAll(filepath.Join(d.Path, "proofs"), 0o755); err != nil {
		return fmt.Errorf("nizkp: creating proof directory: %w", err)
	}
	return nil
}

func (d *Directory) writeFile(name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(d.Path, name), data, 0o644); err != nil {
		return fmt.Errorf("nizkp: writing %s: %w", name, err)
	}
	return nil
}

func (d *Directory) readFile(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.Path, name))
	if err != nil {
		return nil, fmt.Errorf("nizkp: reading %s: %w", name, err)
	}
	return data, nil
}

func (d *Directory) exists(name string) bool {
	_, err := os.Stat(filepath.Join(d.Path, name))
	return err == nil
}

func (d *Directory) writeString(name, value string) error {
	return d.writeFile(name, []byte(value))
}

func (d *Directory) readString(name string) (string, error) {
	data, err := d.readFile(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (d *Directory) writeInt(name string, value int) error {
	return d.writeString(name, strconv.Itoa(value))
}

func (d *Directory) readInt(name string) (int, error) {
	s, err := d.readString(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, protoerr.NewInputFormatError("nizkp", fmt.Sprintf("%s is not a valid integer: %s", name, s))
	}
	return v, nil
}

func (d *Directory) writeTree(name string, t bytetree.Tree) error {
	return d.writeFile(name, bytetree.Encode(t))
}

func (d *Directory) readTree(name string) (bytetree.Tree, error) {
	data, err := d.readFile(name)
	if err != nil {
		return bytetree.Tree{}, err
	}
	t, err := bytetree.Decode(data)
	if err != nil {
		return bytetree.Tree{}, fmt.Errorf("nizkp: decoding %s: %w", name, err)
	}
	return t, nil
}

// partyFile names a per-party artifact file: base + a two-digit decimal
// party index + ".bt" (spec 6: "LL is a two-digit decimal party index").
func partyFile(base string, l int) string {
	return fmt.Sprintf("proofs/%s%02d.bt", base, l)
}
