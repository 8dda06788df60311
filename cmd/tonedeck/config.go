package main

import (
	"errors"
	"flag"
	"io"
	"os"
	"runtime"

	tonedeck "github.com/HsiehTing/ToneDeck-sub000"
)

type configuration struct {
	sourceDirectory      string
	destinationDirectory string
	referencePath        string
	cardPath             string
	threads              int
	jpegQuality          int
	brightnessIntensity  float64
	contrastIntensity    float64
	saturationIntensity  float64
	hueMode              string
	describe             bool
	histogram            bool
	verbose              bool
}

func collectConfigInformation(args []string, output io.Writer) (configuration, error) {
	var config configuration
	defaults := tonedeck.DefaultConfig()
	flags := flag.NewFlagSet("tonedeck", flag.ContinueOnError)
	flags.SetOutput(output)
	flags.StringVar(&config.sourceDirectory, "source", "", "Directory with the pictures to adjust.")
	flags.StringVar(&config.destinationDirectory, "destination", "", "Directory to put the adjusted pictures in.")
	flags.StringVar(&config.referencePath, "reference", "", "Reference picture to learn the tone from.")
	flags.StringVar(&config.cardPath, "card", "", "JSON card record holding a stored tone (brightness, contrast, saturation, dominantHue).")
	flags.IntVar(&config.threads, "threads", runtime.NumCPU(), "Number of threads to use. Default is the detected number of cores.")
	flags.IntVar(&config.jpegQuality, "jpegQuality", 95, "Quality of JPEG output. Must be between 1 - 100. Default is 95.")
	flags.Float64Var(&config.brightnessIntensity, "brightnessIntensity", defaults.Intensity.Brightness, "How strongly brightness differences are corrected.")
	flags.Float64Var(&config.contrastIntensity, "contrastIntensity", defaults.Intensity.Contrast, "How strongly contrast differences are corrected.")
	flags.Float64Var(&config.saturationIntensity, "saturationIntensity", defaults.Intensity.Saturation, "How strongly saturation differences are corrected.")
	flags.StringVar(&config.hueMode, "hueMode", defaults.HueMode.String(), "Hue difference: signed or absolute.")
	flags.BoolVar(&config.histogram, "histogram", false, "Reshape colour histograms to the reference picture instead of matching its tone.")
	flags.BoolVar(&config.describe, "describe", false, "Print the tone card of the reference picture and exit.")
	flags.BoolVar(&config.verbose, "verbose", false, "Log every adjustment.")
	err := flags.Parse(args)
	return config, err
}

func validateConfigInformation(config configuration) error {
	description := ""
	//Test for illegal inputs
	if config.referencePath == "" && config.cardPath == "" {
		description += "Either a reference picture or a card must be specified.\n"
	} else if config.referencePath != "" && config.cardPath != "" {
		description += "Only one of reference picture and card may be specified.\n"
	}
	if config.referencePath != "" && !testForFile(config.referencePath) {
		description += "The reference picture could not be found.\n"
	}
	if config.cardPath != "" && !testForFile(config.cardPath) {
		description += "The card could not be found.\n"
	}
	if config.histogram && config.referencePath == "" {
		description += "Histogram matching requires a reference picture.\n"
	}
	if config.describe {
		if config.referencePath == "" {
			description += "Describing requires a reference picture.\n"
		}
		if description != "" {
			return errors.New(description)
		}
		return nil
	}
	if config.jpegQuality < 1 || config.jpegQuality > 100 {
		description += "Invalid JPEG quality setting. Value must be between 1 and 100 (inclusive).\n"
	}
	if config.threads < 1 {
		description += "Invalid number of threads. There must be at least one thread.\n"
	}
	if _, err := tonedeck.ParseHueMode(config.hueMode); err != nil {
		description += "Invalid hue mode. Value must be signed or absolute.\n"
	}
	if config.sourceDirectory == "" {
		description += "No source directory specified.\n"
	} else if !testForDirectory(config.sourceDirectory) {
		description += "The source directory could not be found.\n"
	}
	if config.destinationDirectory == "" {
		description += "No destination directory specified.\n"
	} else if !testForDirectory(config.destinationDirectory) {
		description += "The destination directory could not be found.\n"
	}
	if description != "" {
		return errors.New(description)
	}
	return nil
}

// matcherConfig converts the command line settings into a matcher Config.
func (c configuration) matcherConfig() (tonedeck.Config, error) {
	config := tonedeck.DefaultConfig()
	config.Intensity = tonedeck.Intensity{
		Brightness: c.brightnessIntensity,
		Contrast:   c.contrastIntensity,
		Saturation: c.saturationIntensity,
	}
	mode, err := tonedeck.ParseHueMode(c.hueMode)
	if err != nil {
		return config, err
	}
	config.HueMode = mode
	return config, config.Validate()
}

func testForDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func testForFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
