package main

import "github.com/urfave/cli/v3"

var (
	configFile  string
	samples     int
	features    int
	classes     int
	noiseRate   float64
	seed        uint64
	beta        float64
	hardMode    bool
	normalize   bool
	ignoreLabel int64
	epochs      int
	learnRate   float64
	reportPath  string
	logLevel    string
	logFormat   string
)

func dataFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "samples", Usage: "number of generated samples", Destination: &samples},
		&cli.IntFlag{Name: "features", Usage: "feature dimension", Destination: &features},
		&cli.IntFlag{Name: "classes", Usage: "number of classes", Destination: &classes},
		&cli.Float64Flag{Name: "noise", Usage: "probability of flipping a label", Destination: &noiseRate},
		&cli.Uint64Flag{Name: "seed", Usage: "dataset seed", Destination: &seed},
	}
}

func lossFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{Name: "beta", Usage: "weight of the noisy label against the prediction", Destination: &beta},
		&cli.BoolFlag{Name: "hard", Usage: "mix the one-hot prediction instead of probabilities", Destination: &hardMode},
		&cli.BoolFlag{Name: "normalize", Usage: "divide the loss by valid positions instead of batch size", Destination: &normalize},
		&cli.Int64Flag{Name: "ignore-label", Usage: "label value excluded from the loss", Destination: &ignoreLabel},
	}
}

func trainFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "YAML config file; flags override its values",
			Destination: &configFile,
		},
		&cli.IntFlag{Name: "epochs", Usage: "training epochs", Destination: &epochs},
		&cli.Float64Flag{Name: "lr", Usage: "learning rate", Destination: &learnRate},
		&cli.StringFlag{Name: "report", Usage: "write a JSON training report to this path", Destination: &reportPath},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (text, json)",
			Value:       "text",
			Destination: &logFormat,
		},
	}
}
