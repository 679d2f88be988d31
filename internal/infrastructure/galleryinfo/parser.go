// Package galleryinfo parses the galleryinfo.txt sidecar format into a
// h2h.GalleryInfo value. Parsing is a pure function of the sidecar's
// bytes plus the folder name they came from; it has no
// database or filesystem dependency beyond the bytes handed to it.
package galleryinfo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

// commentsMarker is the line that switches parsing from "Key: Value"
// headers to free-form comment text.
const commentsMarker = "Uploader's Comments"

// requiredKeys are the galleryinfo.txt headers that must be present.
var requiredKeys = []string{"Title", "Upload Time", "Uploaded By", "Downloaded", "Tags"}

// ParseFile reads galleryinfo.txt from folder and parses it, also
// listing every regular file under folder as the Gallery's Files.
func ParseFile(folder string) (h2h.GalleryInfo, error) {
	gid, err := h2h.ParseGIDFromFolderName(filepath.Base(folder))
	if err != nil {
		return h2h.GalleryInfo{}, fmt.Errorf("%w: %v", h2h.ErrIO, err)
	}

	sidecar := filepath.Join(folder, "galleryinfo.txt")
	f, err := os.Open(sidecar)
	if err != nil {
		return h2h.GalleryInfo{}, fmt.Errorf("%w: open %s: %v", h2h.ErrIO, sidecar, err)
	}
	defer f.Close()

	info, err := Parse(f)
	if err != nil {
		return h2h.GalleryInfo{}, err
	}
	info.GID = gid

	files, err := listFiles(folder)
	if err != nil {
		return h2h.GalleryInfo{}, err
	}
	info.Files = files

	return info, nil
}

// Parse parses the galleryinfo.txt textual format from r. The GID and
// Files fields are left zero; ParseFile fills them in from the folder.
func Parse(r io.Reader) (h2h.GalleryInfo, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	headers := make(map[string]string)
	var comment strings.Builder
	inComments := false

	for scanner.Scan() {
		line := scanner.Text()
		if !inComments && strings.Contains(line, commentsMarker) {
			inComments = true
			continue
		}
		if inComments {
			if comment.Len() > 0 {
				comment.WriteByte('\n')
			}
			comment.WriteString(line)
			continue
		}
		key, value, ok := splitHeaderLine(line)
		if !ok {
			continue
		}
		headers[key] = value
	}
	if err := scanner.Err(); err != nil {
		return h2h.GalleryInfo{}, fmt.Errorf("%w: scan galleryinfo.txt: %v", h2h.ErrIO, err)
	}

	for _, key := range requiredKeys {
		if _, ok := headers[key]; !ok {
			return h2h.GalleryInfo{}, fmt.Errorf("%w: galleryinfo.txt missing required key %q", h2h.ErrIO, key)
		}
	}

	uploadTime, err := h2h.ParseDateTime(headers["Upload Time"])
	if err != nil {
		return h2h.GalleryInfo{}, fmt.Errorf("%w: parse Upload Time: %v", h2h.ErrIO, err)
	}
	downloadTime, err := h2h.ParseDateTime(headers["Downloaded"])
	if err != nil {
		return h2h.GalleryInfo{}, fmt.Errorf("%w: parse Downloaded: %v", h2h.ErrIO, err)
	}

	tags, err := parseTags(headers["Tags"])
	if err != nil {
		return h2h.GalleryInfo{}, err
	}

	return h2h.GalleryInfo{
		Title:         headers["Title"],
		UploadAccount: headers["Uploaded By"],
		UploadTime:    uploadTime,
		DownloadTime:  downloadTime,
		Tags:          tags,
		Comment:       comment.String(),
	}, nil
}

// splitHeaderLine splits a "Key: Value" line. Lines with no colon are
// skipped (ok=false) rather than erroring, tolerating stray blank lines.
func splitHeaderLine(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

// parseTags splits the comma-separated "name:value" Tags header into
// TagPair values.
func parseTags(raw string) ([]h2h.TagPair, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]h2h.TagPair, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		tag, err := h2h.ParseTagPair(p)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// listFiles lists every regular file directly under folder, including
// galleryinfo.txt.
func listFiles(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("%w: read dir %s: %v", h2h.ErrIO, folder, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
