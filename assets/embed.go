package assets

import (
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed words/*.json
var FS embed.FS

// WordListFile is the file name used for the list of n-letter words, both
// inside the embedded FS and in an external WORDS_DIR.
func WordListFile(n int) string {
	return fmt.Sprintf("%d-letter-words.json", n)
}

// WordList returns the raw embedded list for length n (not normalized).
func WordList(n int) ([]string, error) {
	b, err := FS.ReadFile("words/" + WordListFile(n))
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", WordListFile(n), err)
	}
	return out, nil
}
