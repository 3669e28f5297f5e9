package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Key is the full persistent-cache key. Keys can only be built through
// NewKey, which rejects empty identifier fields, so an empty fingerprint can
// never reach a lookup and be mistaken for valid.
type Key struct {
	Project      string
	Character    string
	StartChapter int
	EndChapter   int
	Fingerprint  string
	ConfigHash   string
}

func NewKey(project, character string, startChapter, endChapter int, fingerprint, configHash string) (Key, error) {
	project = strings.TrimSpace(project)
	character = strings.TrimSpace(character)
	fingerprint = strings.TrimSpace(fingerprint)
	configHash = strings.TrimSpace(configHash)

	switch {
	case project == "":
		return Key{}, fmt.Errorf("cache key: empty project")
	case character == "":
		return Key{}, fmt.Errorf("cache key: empty character")
	case fingerprint == "":
		return Key{}, fmt.Errorf("cache key: empty fingerprint")
	case configHash == "":
		return Key{}, fmt.Errorf("cache key: empty config hash")
	case startChapter < 1 || endChapter < startChapter:
		return Key{}, fmt.Errorf("cache key: invalid chapter range [%d,%d]", startChapter, endChapter)
	}

	return Key{
		Project:      project,
		Character:    character,
		StartChapter: startChapter,
		EndChapter:   endChapter,
		Fingerprint:  fingerprint,
		ConfigHash:   configHash,
	}, nil
}

// ContentHash is the in-memory tier's key: a digest of the window's
// concatenated dialogue text, salted with the document fingerprint and the
// config hash so runs over a revised document or with different settings
// sharing a process never exchange entries.
func ContentHash(fingerprint, configHash, windowText string) string {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(configHash))
	h.Write([]byte{0})
	h.Write([]byte(windowText))
	return hex.EncodeToString(h.Sum(nil))
}
