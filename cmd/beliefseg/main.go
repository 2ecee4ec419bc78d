// Command beliefseg prepares KITTI road cross validation splits, evaluates the decision layer
// on them, and renders decisions for stored belief tensors.
//
//	beliefseg split -cam image_2 -velo velodyne -target gt_image_2 -out splits
//	beliefseg eval -splits splits -stats stats.csv
//	beliefseg decide -in belief.gob -gif decision.gif -explain 120,400
package main

import (
	"encoding/gob"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/gorgonia/beliefseg"
	"github.com/gorgonia/beliefseg/decision"
	"github.com/gorgonia/beliefseg/encoding/gif"
	"github.com/gorgonia/beliefseg/kitti"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s split|eval|decide [flags]\n", os.Args[0])
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	var err error
	switch os.Args[1] {
	case "split":
		err = split(os.Args[2:])
	case "eval":
		err = evaluate(os.Args[2:])
	case "decide":
		err = decide(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func split(args []string) error {
	conf := kitti.DefaultConf()
	fs := flag.NewFlagSet("split", flag.ExitOnError)
	cam := fs.String("cam", "image_2", "directory of camera images")
	velo := fs.String("velo", "velodyne", "directory of projected LiDAR images")
	target := fs.String("target", "gt_image_2", "directory of ground truth images")
	out := fs.String("out", "splits", "directory the split lists are written to")
	fs.IntVar(&conf.Folds, "folds", conf.Folds, "number of folds")
	fs.Int64Var(&conf.Seed, "seed", conf.Seed, "fold assignment seed")
	fs.Parse(args)

	splits, err := kitti.TrainValSplit(*cam, *velo, *target, conf.Folds, conf.Seed)
	if err != nil {
		return err
	}
	if err = splits.Write(*out); err != nil {
		return err
	}
	log.Printf("Wrote %d split lists to %s", len(splits), *out)
	return nil
}

func evaluate(args []string) error {
	conf := beliefseg.DefaultConf("KITTI road")
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	dir := fs.String("splits", "splits", "directory holding the split lists")
	stats := fs.String("stats", "stats.csv", "file the per-fold scores are written to")
	fs.IntVar(&conf.DataConf.Folds, "folds", conf.DataConf.Folds, "number of folds")
	fs.IntVar(&conf.DataConf.BatchSize, "batch", conf.DataConf.BatchSize, "batch size")
	fs.IntVar(&conf.DataConf.Height, "height", conf.DataConf.Height, "frame height")
	fs.IntVar(&conf.DataConf.Width, "width", conf.DataConf.Width, "frame width")
	cardinalities(fs, &conf.DecisionConf)
	fs.Parse(args)

	if err := checkCardinalities(conf.DecisionConf); err != nil {
		return err
	}
	if !conf.DataConf.IsValid() {
		return errors.Errorf("invalid dataset config %+v", conf.DataConf)
	}
	splits, err := kitti.ReadSplits(*dir, conf.DataConf.Folds)
	if err != nil {
		return err
	}
	s := beliefseg.New(conf, nil)
	defer s.Close()
	if err = s.CrossValidate(splits); err != nil {
		return err
	}
	return s.Dump(*stats)
}

func decide(args []string) error {
	conf := decision.DefaultConf()
	fs := flag.NewFlagSet("decide", flag.ExitOnError)
	in := fs.String("in", "belief.gob", "gob encoded belief tensor of shape (h, w, 4)")
	out := fs.String("gif", "decision.gif", "file the rendered decisions are written to")
	var y, x int
	explain := fs.String("explain", "", "y,x of a pixel whose decision is printed as DOT")
	cardinalities(fs, &conf)
	fs.Parse(args)
	if err := checkCardinalities(conf); err != nil {
		return err
	}

	belief, err := readBelief(*in)
	if err != nil {
		return err
	}
	decisions, err := decision.New(conf).Decide(belief)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	enc := gif.NewEncoder(f)
	if err = enc.Encode(decisions, *in); err != nil {
		return err
	}
	if err = enc.Flush(); err != nil {
		return err
	}

	if *explain != "" {
		if _, err = fmt.Sscanf(*explain, "%d,%d", &y, &x); err != nil {
			return errors.Wrapf(err, "parsing pixel %q", *explain)
		}
		b, err := beliefAt(belief, y, x)
		if err != nil {
			return err
		}
		fmt.Println(decision.Explain(b, conf.Cardinalities()))
	}
	return f.Close()
}

func cardinalities(fs *flag.FlagSet, conf *decision.Config) {
	fs.IntVar(&conf.CardRoad, "card-road", conf.CardRoad, "cardinality of Road")
	fs.IntVar(&conf.CardVehicle, "card-vehicle", conf.CardVehicle, "cardinality of Vehicle")
	fs.IntVar(&conf.CardBackground, "card-background", conf.CardBackground, "cardinality of Background")
	fs.IntVar(&conf.CardIgnorance, "card-ignorance", conf.CardIgnorance, "cardinality of the ignorance set")
}

func checkCardinalities(conf decision.Config) error {
	if !conf.IsValid() {
		return errors.Errorf("invalid cardinalities %+v. Every cardinality must be at least 1", conf)
	}
	return nil
}

func readBelief(filename string) (*tensor.Dense, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	retVal := new(tensor.Dense)
	if err = gob.NewDecoder(f).Decode(retVal); err != nil {
		return nil, errors.Wrapf(err, "decoding %q", filename)
	}
	return retVal, nil
}

func beliefAt(t *tensor.Dense, y, x int) (retVal decision.Belief, err error) {
	for _, h := range decision.Hypotheses {
		var v interface{}
		if v, err = t.At(y, x, int(h)); err != nil {
			return retVal, errors.WithStack(err)
		}
		switch f := v.(type) {
		case float32:
			retVal[h] = float64(f)
		case float64:
			retVal[h] = f
		default:
			return retVal, errors.Errorf("unsupported belief dtype %v", t.Dtype())
		}
	}
	return retVal, nil
}
