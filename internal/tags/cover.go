package tags

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// folderImageNames are the image base names FolderImage accepts, in order of
// preference.
var folderImageNames = []string{"cover", "folder", "album", "front", "artwork"}

var imageMIMETypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// FolderImage looks for a cover image in dir, matching names such as
// cover.jpg or Folder.PNG regardless of case. It returns nil data when there
// is none.
func FolderImage(dir string) (data []byte, mimeType string, err error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	found := make(map[string]string, len(folderImageNames))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if _, ok := imageMIMETypes[ext]; !ok {
			continue
		}
		base := strings.ToLower(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		if _, seen := found[base]; !seen {
			found[base] = e.Name()
		}
	}

	for _, base := range folderImageNames {
		name, ok := found[base]
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil || len(data) == 0 {
			continue
		}
		return data, imageMIMETypes[strings.ToLower(filepath.Ext(name))], nil
	}
	return nil, "", nil
}
