package latex

import (
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doctex/internal/textenc"
)

// WriteBibliography writes the collected entries to the .bib sidecar next
// to the main artifact, each entry followed by a blank line. A write
// failure here never fails the conversion: the primary artifact is already
// in place, so the problem is logged and swallowed.
func WriteBibliography(texPath string, entries []string, encodingName string, logger *zap.Logger) {
	if len(entries) == 0 {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bibPath := strings.TrimSuffix(texPath, ".tex") + ".bib"

	var sb strings.Builder
	for _, entry := range entries {
		sb.WriteString(entry)
		sb.WriteString("\n\n")
	}

	data, err := textenc.Encode(sb.String(), encodingName)
	if err == nil {
		err = os.WriteFile(bibPath, data, 0o644)
	}
	if err != nil {
		logger.Warn("failed to write bibliography sidecar",
			zap.String("path", bibPath), zap.Error(err))
		return
	}

	logger.Info("wrote bibliography sidecar", zap.String("path", bibPath))
}
