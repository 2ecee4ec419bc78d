package kitti

// Config configures dataset splitting and batch loading.
type Config struct {
	BatchSize     int // images per batch
	Height, Width int // frame size every image is padded into

	Folds    int     // number of cross validation folds
	Seed     int64   // fold assignment seed
	MaxAngle float64 // maximum rotation in degrees during training
}

func DefaultConf() Config {
	return Config{
		BatchSize: 4,
		Height:    384,
		Width:     1248,
		Folds:     10,
		Seed:      1,
		MaxAngle:  20,
	}
}

func (conf Config) IsValid() bool {
	return conf.BatchSize >= 1 &&
		conf.Height > 0 && conf.Width > 0 &&
		conf.Folds >= 2 &&
		conf.MaxAngle >= 0
}
