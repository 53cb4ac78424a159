package pyramid

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"dicom2tiff/contracts"
	"dicom2tiff/logging"
	"dicom2tiff/shared_source"
)

// Image type values that mark a document as a pyramid level.
var levelImageTypes = [][4]string{
	{"ORIGINAL", "PRIMARY", "VOLUME", "NONE"},
	{"DERIVED", "PRIMARY", "VOLUME", "NONE"},
	{"DERIVED", "PRIMARY", "VOLUME", "RESAMPLED"},
}

// IsLevelImageType reports whether the trimmed image type values equal one
// of the accepted pyramid level types.
func IsLevelImageType(values []string) bool {
	if len(values) != 4 {
		return false
	}
	var trimmed [4]string
	for i, v := range values {
		trimmed[i] = strings.TrimSpace(v)
	}
	for _, want := range levelImageTypes {
		if trimmed == want {
			return true
		}
	}
	return false
}

type candidate struct {
	source  *shared_source.SharedSource
	columns uint64
}

// Select keeps the sources whose header marks them as pyramid levels and
// orders them by descending total column count, keeping input order for
// equal counts. Every returned source is rewound to its start.
func Select(sources []*shared_source.SharedSource, dec contracts.Decoder, log logrus.FieldLogger) ([]*shared_source.SharedSource, error) {
	if log == nil {
		log = logging.Discard()
	}

	var candidates []candidate
	for i, src := range sources {
		ds, err := dec.DecodeHeader(src.Clone())
		if err != nil {
			return nil, fmt.Errorf("error reading header of source %d: %w", i, err)
		}
		imageType, err := ds.Strings(contracts.ImageType)
		if err != nil || !IsLevelImageType(imageType) {
			log.WithFields(logrus.Fields{
				"source":     i,
				"image_type": strings.Join(imageType, `\`),
			}).Debug("skipping source that is not a pyramid level")
			continue
		}
		candidates = append(candidates, candidate{source: src, columns: columnCount(ds)})
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w among %d sources", contracts.ErrInputClassification, len(sources))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].columns > candidates[j].columns
	})

	selected := make([]*shared_source.SharedSource, len(candidates))
	for i, c := range candidates {
		if err := c.source.Rewind(); err != nil {
			return nil, fmt.Errorf("error rewinding source: %w", err)
		}
		selected[i] = c.source
		log.WithFields(logrus.Fields{
			"level":   i,
			"columns": c.columns,
		}).Debug("selected pyramid level")
	}
	return selected, nil
}

// columnCount treats a missing or unreadable count as 0.
func columnCount(ds *contracts.Dataset) uint64 {
	n, err := ds.Uint(contracts.TotalPixelMatrixColumns, math.MaxUint32)
	if err != nil {
		return 0
	}
	return n
}
