package converter

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"dicom2tiff/config"
	"dicom2tiff/contracts"
	"dicom2tiff/files_manager"
)

// DICOMConverter converts a directory, file or zip archive of DICOM
// pyramid levels into one BigTIFF file.
type DICOMConverter struct {
	cfg     config.Config
	log     *logrus.Logger
	decoder contracts.Decoder
}

var _ contracts.Converter = (*DICOMConverter)(nil)

func NewDICOMConverter(cfg config.Config, log *logrus.Logger) *DICOMConverter {
	return &DICOMConverter{cfg: cfg, log: log}
}

// WithDecoder replaces the DICOM reader used to parse the input files.
func (c *DICOMConverter) WithDecoder(dec contracts.Decoder) *DICOMConverter {
	c.decoder = dec
	return c
}

func (c *DICOMConverter) Convert(request contracts.ConversionRequest) (err error) {
	log := c.log.WithFields(logrus.Fields{
		"input":  request.InputPath,
		"output": request.OutputPath,
	})
	startTime := time.Now()

	inputs, err := files_manager.ResolveInput(request.InputPath)
	if err != nil {
		return fmt.Errorf("error resolving input: %w", err)
	}
	defer inputs.Close()
	log.WithField("files", len(inputs.Files)).Debug("found DICOM files")

	out, err := os.Create(request.OutputPath)
	if err != nil {
		return fmt.Errorf("error creating output: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("error closing output: %w", cerr)
		}
		if err != nil && !c.cfg.KeepFailedOutput {
			if rerr := os.Remove(request.OutputPath); rerr != nil {
				log.WithError(rerr).Warn("could not remove failed output")
			}
		}
	}()

	err = ConvertSources(inputs.Sources(), out, Options{
		Decoder:    c.decoder,
		Logger:     log,
		JPEGTables: c.cfg.JPEGTables,
	})
	if err != nil {
		return err
	}
	log.WithField("elapsed", time.Since(startTime).String()).Info("conversion completed")
	return nil
}
