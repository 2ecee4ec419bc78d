package kitti

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ListImages returns the sorted paths of files in dir that start with "u" and end with ext.
func ListImages(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var retVal []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "u") || !strings.HasSuffix(name, ext) {
			continue
		}
		retVal = append(retVal, filepath.Join(dir, name))
	}
	sort.Strings(retVal)
	return retVal, nil
}

// Category is the road scene category encoded in a KITTI file name.
type Category int

const (
	UrbanMarked         Category = iota // um_
	UrbanMultipleMarked                 // umm_
	UrbanUnmarked                       // uu_
)

// NumCategories is the number of road scene categories.
const NumCategories = 3

func (c Category) String() string {
	switch c {
	case UrbanMarked:
		return "um"
	case UrbanMultipleMarked:
		return "umm"
	case UrbanUnmarked:
		return "uu"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// CategoryOf returns the category of the file at path.
func CategoryOf(path string) (Category, error) {
	name := filepath.Base(path)
	switch {
	case strings.HasPrefix(name, "um_"):
		return UrbanMarked, nil
	case strings.HasPrefix(name, "umm_"):
		return UrbanMultipleMarked, nil
	case strings.HasPrefix(name, "uu_"):
		return UrbanUnmarked, nil
	}
	return -1, errors.Errorf("%q has no known road category prefix", name)
}

// Labels returns the category of every path.
func Labels(paths []string) ([]Category, error) {
	retVal := make([]Category, len(paths))
	var errs manyErr
	for i, p := range paths {
		c, err := CategoryOf(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		retVal[i] = c
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return retVal, nil
}

// FileKey identifies a frame independently of its modality: the base name without extension,
// with the "road" part of ground truth names dropped (um_road_000001.png is um_000001).
func FileKey(path string) string {
	key := filepath.Base(path)
	if i := strings.Index(key, "."); i >= 0 {
		key = key[:i]
	}
	parts := strings.Split(key, "_")
	for _, p := range parts {
		if p == "road" && len(parts) > 2 {
			return parts[0] + "_" + parts[2]
		}
	}
	return key
}

// CheckAligned checks that parallel lists of paths refer to the same frames, position by position.
func CheckAligned(lists ...[]string) error {
	if len(lists) == 0 {
		return nil
	}
	var errs manyErr
	first := lists[0]
	for l, list := range lists[1:] {
		if len(list) != len(first) {
			errs = append(errs, errors.Errorf("list %d has %d paths. Expected %d", l+1, len(list), len(first)))
			continue
		}
		for i := range list {
			if a, b := FileKey(first[i]), FileKey(list[i]); a != b {
				errs = append(errs, errors.Errorf("list %d, position %d: %q does not match %q", l+1, i, b, a))
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// WritePaths writes one path per line into dir/name.
func WritePaths(dir, name string, paths []string) error {
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, p := range paths {
		fmt.Fprintln(w, p)
	}
	if err := w.Flush(); err != nil {
		return errors.WithStack(err)
	}
	return f.Close()
}

// ReadPaths reads a file written by WritePaths.
func ReadPaths(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	var retVal []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		if line := strings.TrimSpace(s.Text()); line != "" {
			retVal = append(retVal, line)
		}
	}
	return retVal, errors.WithStack(s.Err())
}
