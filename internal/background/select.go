package background

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrNoBackgroundAsset means the background directory holds no usable clip.
var ErrNoBackgroundAsset = errors.New("background: no eligible background video")

// DefaultExtensions lists the container types accepted when none are configured.
var DefaultExtensions = []string{".mp4", ".mov", ".mkv"}

// Candidates lists eligible clips in dir, sorted by name. Extension matching is
// case-insensitive.
func Candidates(dir string, extensions []string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w in %s: directory does not exist", ErrNoBackgroundAsset, dir)
		}
		return nil, fmt.Errorf("background: read %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	slices.Sort(files)
	return files, nil
}

// Select picks one eligible clip from dir uniformly at random. A nil rng uses
// the package-level source.
func Select(dir string, extensions []string, rng *rand.Rand) (string, error) {
	files, err := Candidates(dir, extensions)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoBackgroundAsset, dir)
	}
	if rng == nil {
		return files[rand.IntN(len(files))], nil
	}
	return files[rng.IntN(len(files))], nil
}
