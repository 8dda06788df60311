package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"

	tonedeck "github.com/HsiehTing/ToneDeck-sub000"
)

type picture struct {
	currentPath string
	targetPath  string
}

func main() {
	config, err := collectConfigInformation(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	level := zerolog.InfoLevel
	if config.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	if err := runToneTransfer(config, logger, os.Stdout); err != nil {
		logger.Error().Err(err).Msg("Tone transfer failed")
		os.Exit(1)
	}
}

func runToneTransfer(config configuration, logger zerolog.Logger, stdout io.Writer) error {
	//Prepare
	if err := validateConfigInformation(config); err != nil {
		return err
	}
	matcherConfig, err := config.matcherConfig()
	if err != nil {
		return err
	}
	matcher, err := tonedeck.NewMatcher(matcherConfig, logger)
	if err != nil {
		return err
	}

	var referenceBitmap *tonedeck.Bitmap
	if config.histogram {
		if referenceBitmap, err = tonedeck.Load(config.referencePath); err != nil {
			return err
		}
	}
	reference, err := loadReference(config, matcher, referenceBitmap)
	if err != nil {
		return err
	}
	logger.Info().
		Float64("brightness", reference.Brightness).
		Float64("contrast", reference.Contrast).
		Float64("saturation", reference.Saturation).
		Float64("dominant_hue", reference.DominantHue).
		Msg("Loaded reference tone")

	if config.describe {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(reference.Record())
	}

	pictures, err := readDirectory(config.sourceDirectory, config.destinationDirectory)
	if err != nil {
		return err
	}
	logger.Info().Int("pictures", len(pictures)).Int("threads", config.threads).Msg("Applying tone")

	//Adjust every picture
	pictures, err = forEveryPicture(pictures, config.threads, func(pic picture) (picture, error) {
		bitmap, err := tonedeck.Load(pic.currentPath)
		if err != nil {
			return pic, err
		}
		var adjusted *tonedeck.Bitmap
		if referenceBitmap != nil {
			adjusted, err = matcher.MatchHistograms(bitmap, referenceBitmap)
		} else {
			adjusted, err = matcher.Apply(bitmap, reference)
		}
		if err != nil {
			return pic, fmt.Errorf("%s: %w", pic.currentPath, err)
		}
		if err := tonedeck.Save(pic.targetPath, adjusted, imaging.JPEGQuality(config.jpegQuality)); err != nil {
			return pic, fmt.Errorf("saving %s: %w", pic.targetPath, err)
		}
		logger.Debug().Str("source", pic.currentPath).Str("target", pic.targetPath).Msg("Saved picture")
		return pic, nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Saved %v pictures into %v\n", len(pictures), config.destinationDirectory)
	return nil
}

// loadReference returns the tone stored in the card, or the tone of the
// reference picture. bitmap is the already loaded reference picture, if any.
func loadReference(config configuration, matcher *tonedeck.Matcher, bitmap *tonedeck.Bitmap) (tonedeck.ToneDescriptor, error) {
	if config.cardPath != "" {
		data, err := os.ReadFile(config.cardPath)
		if err != nil {
			return tonedeck.ToneDescriptor{}, err
		}
		var record map[string]any
		if err := json.Unmarshal(data, &record); err != nil {
			return tonedeck.ToneDescriptor{}, fmt.Errorf("%s: %w", config.cardPath, err)
		}
		return tonedeck.DescriptorFromRecord(record)
	}

	if bitmap == nil {
		var err error
		if bitmap, err = tonedeck.Load(config.referencePath); err != nil {
			return tonedeck.ToneDescriptor{}, err
		}
	}
	tone, err := matcher.Describe(bitmap)
	if err != nil {
		return tonedeck.ToneDescriptor{}, fmt.Errorf("%s: %w", config.referencePath, err)
	}
	return tone, nil
}

// outputExtensions maps input extensions to the extension the adjusted
// picture is written with.
var outputExtensions = map[string]string{
	".jpg":  ".jpg",
	".jpeg": ".jpeg",
	".png":  ".png",
	".tif":  ".tif",
	".tiff": ".tiff",
	".bmp":  ".bmp",
	".gif":  ".gif",
	".webp": ".png",
}

func readDirectory(currentDirectory string, targetDirectory string) ([]picture, error) {
	entries, err := os.ReadDir(currentDirectory)
	if err != nil {
		return nil, err
	}
	var pictures []picture
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		outExt, ok := outputExtensions[ext]
		if !ok {
			continue
		}
		pictures = append(pictures, picture{
			currentPath: filepath.Join(currentDirectory, name),
			targetPath:  filepath.Join(targetDirectory, strings.TrimSuffix(name, filepath.Ext(name))+outExt),
		})
	}
	if len(pictures) < 1 {
		return nil, errors.New("the source directory does not contain any pictures")
	}
	return pictures, nil
}

// forEveryPicture runs operation on every picture with the given number of
// workers. The first error encountered is returned after all workers finish.
func forEveryPicture(pictures []picture, threads int, operation func(picture) (picture, error)) ([]picture, error) {
	jobs := make(chan int)
	errs := make(chan error, len(pictures))
	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				pic, err := operation(pictures[i])
				if err != nil {
					errs <- err
					continue
				}
				pictures[i] = pic
			}
		}()
	}
	for i := range pictures {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(errs)
	return pictures, <-errs
}
