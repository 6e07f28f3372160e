package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Image is one entry of the image catalog.
type Image struct {
	File    string   `json:"file"`
	Tags    []string `json:"tags"`
	Caption string   `json:"caption"`
	Alt     string   `json:"alt"`
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true, ".webp": true,
}

// LoadImages reads the image catalog from a JSON metadata file. When the file
// is missing the image directory is scanned and tags are taken from file
// names. A missing directory yields an empty catalog.
func LoadImages(metadataPath, dir string) ([]Image, error) {
	if metadataPath != "" {
		data, err := os.ReadFile(metadataPath)
		switch {
		case err == nil:
			var images []Image
			if err := json.Unmarshal(data, &images); err != nil {
				return nil, fmt.Errorf("decoding image metadata %s: %w", metadataPath, err)
			}
			return images, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("reading image metadata %s: %w", metadataPath, err)
		}
	}
	return ScanImages(dir)
}

// ScanImages builds catalog entries for every image file in dir.
func ScanImages(dir string) ([]Image, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning image dir %s: %w", dir, err)
	}

	var images []Image
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || !imageExtensions[ext] {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(stem))

		var tags []string
		for _, w := range words {
			if len(w) > 2 {
				tags = append(tags, strings.ToLower(w))
			}
		}
		images = append(images, Image{
			File:    e.Name(),
			Tags:    tags,
			Caption: "Image: " + titleCase(words),
			Alt:     "Image related to " + strings.Join(tags, " "),
		})
	}
	return images, nil
}

func titleCase(words []string) string {
	out := make([]string, len(words))
	for i, w := range words {
		w = strings.ToLower(w)
		if w != "" {
			w = strings.ToUpper(w[:1]) + w[1:]
		}
		out[i] = w
	}
	return strings.Join(out, " ")
}

// MatchImages scores catalog entries against the query: two points for every
// tag found in the query text, one for every query word shared with the
// tags. The best two entries with a positive score are returned, ties in
// catalog order.
func (f *Formatter) MatchImages(query string) []Image {
	if len(f.images) == 0 {
		return nil
	}
	lower := strings.ToLower(query)
	queryWords := map[string]bool{}
	for _, w := range strings.Fields(lower) {
		queryWords[w] = true
	}

	type scored struct {
		score int
		img   Image
	}
	var candidates []scored
	for _, img := range f.images {
		score := 0
		tagWords := map[string]bool{}
		for _, tag := range img.Tags {
			tag = strings.ToLower(tag)
			if tag != "" && strings.Contains(lower, tag) {
				score += 2
			}
			for _, w := range strings.Fields(tag) {
				tagWords[w] = true
			}
		}
		for w := range tagWords {
			if queryWords[w] {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, scored{score, img})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > maxImages {
		candidates = candidates[:maxImages]
	}

	out := make([]Image, len(candidates))
	for i, c := range candidates {
		out[i] = c.img
	}
	return out
}
