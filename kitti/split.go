package kitti

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// Fold is one train/validation partition, as indices into the dataset.
type Fold struct {
	Train, Val []int
}

// StratifiedKFold partitions the samples into k folds such that every category is spread as
// evenly as possible across the folds. The assignment is fully determined by seed.
func StratifiedKFold(labels []Category, k int, seed int64) ([]Fold, error) {
	if k < 2 {
		return nil, errors.Errorf("need at least 2 folds. Got %d", k)
	}
	if k > len(labels) {
		return nil, errors.Errorf("cannot make %d folds out of %d samples", k, len(labels))
	}

	byCategory := make(map[Category][]int)
	var categories []Category
	for i, c := range labels {
		if _, ok := byCategory[c]; !ok {
			categories = append(categories, c)
		}
		byCategory[c] = append(byCategory[c], i)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	r := rand.New(rand.NewSource(seed))
	assignment := make([]int, len(labels))
	var next int // carried across categories so fold sizes stay within one of each other
	for _, c := range categories {
		idx := byCategory[c]
		r.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for _, sample := range idx {
			assignment[sample] = next % k
			next++
		}
	}

	retVal := make([]Fold, k)
	for sample, f := range assignment {
		for i := range retVal {
			if i == f {
				retVal[i].Val = append(retVal[i].Val, sample)
			} else {
				retVal[i].Train = append(retVal[i].Train, sample)
			}
		}
	}
	return retVal, nil
}

// Modality is one of the aligned image streams of the dataset.
type Modality string

const (
	Camera Modality = "cam"
	Velo   Modality = "velo"
	Target Modality = "target"
)

// Modalities lists the streams in the order they are loaded.
var Modalities = []Modality{Camera, Velo, Target}

// Splits maps split names such as "train_cam_1" or "val_target_10" to paths.
type Splits map[string][]string

// TrainKey is the name of the training list of m in the given 1-based fold.
func TrainKey(m Modality, fold int) string { return fmt.Sprintf("train_%s_%d", m, fold) }

// ValKey is the name of the validation list of m in the given 1-based fold.
func ValKey(m Modality, fold int) string { return fmt.Sprintf("val_%s_%d", m, fold) }

// Fold returns the aligned camera, LiDAR and target lists of the 1-based fold i.
func (s Splits) Fold(i int, validation bool) (cam, velo, target []string, err error) {
	key := TrainKey
	if validation {
		key = ValKey
	}
	var ok bool
	if cam, ok = s[key(Camera, i)]; !ok {
		return nil, nil, nil, errors.Errorf("no split named %q", key(Camera, i))
	}
	if velo, ok = s[key(Velo, i)]; !ok {
		return nil, nil, nil, errors.Errorf("no split named %q", key(Velo, i))
	}
	if target, ok = s[key(Target, i)]; !ok {
		return nil, nil, nil, errors.Errorf("no split named %q", key(Target, i))
	}
	return cam, velo, target, nil
}

// Keys returns the split names in sorted order.
func (s Splits) Keys() []string {
	retVal := make([]string, 0, len(s))
	for k := range s {
		retVal = append(retVal, k)
	}
	sort.Strings(retVal)
	return retVal
}

// Write writes every split into dir as <name>.txt.
func (s Splits) Write(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WithStack(err)
	}
	for _, k := range s.Keys() {
		if err := WritePaths(dir, k+".txt", s[k]); err != nil {
			return errors.Wrapf(err, "writing split %q", k)
		}
	}
	return nil
}

// ReadSplits reads back the files of folds 1..folds written by Write.
func ReadSplits(dir string, folds int) (Splits, error) {
	retVal := make(Splits)
	for i := 1; i <= folds; i++ {
		for _, m := range Modalities {
			for _, k := range []string{TrainKey(m, i), ValKey(m, i)} {
				paths, err := ReadPaths(filepath.Join(dir, k+".txt"))
				if err != nil {
					return nil, errors.Wrapf(err, "reading split %q", k)
				}
				retVal[k] = paths
			}
		}
	}
	return retVal, nil
}

// TrainValSplit lists the camera, LiDAR and ground truth PNGs and splits them into folds
// stratified by road category. Lists are shuffled with a fixed seed; the same permutation is
// used for every modality so the three lists stay aligned.
func TrainValSplit(camDir, veloDir, targetDir string, folds int, seed int64) (Splits, error) {
	lists := make(map[Modality][]string)
	for m, dir := range map[Modality]string{Camera: camDir, Velo: veloDir, Target: targetDir} {
		paths, err := ListImages(dir, ".png")
		if err != nil {
			return nil, errors.Wrapf(err, "listing %s images", m)
		}
		lists[m] = paths
	}
	if err := CheckAligned(lists[Camera], lists[Velo], lists[Target]); err != nil {
		return nil, errors.WithMessage(err, "modalities are not aligned")
	}

	labels, err := Labels(lists[Camera])
	if err != nil {
		return nil, err
	}
	fs, err := StratifiedKFold(labels, folds, seed)
	if err != nil {
		return nil, err
	}

	retVal := make(Splits)
	for i, f := range fs {
		trainPerm := rand.New(rand.NewSource(0)).Perm(len(f.Train))
		valPerm := rand.New(rand.NewSource(0)).Perm(len(f.Val))
		for _, m := range Modalities {
			retVal[TrainKey(m, i+1)] = pick(lists[m], f.Train, trainPerm)
			retVal[ValKey(m, i+1)] = pick(lists[m], f.Val, valPerm)
		}
	}
	return retVal, nil
}

func pick(paths []string, idx, perm []int) []string {
	retVal := make([]string, len(idx))
	for i, p := range perm {
		retVal[i] = paths[idx[p]]
	}
	return retVal
}
