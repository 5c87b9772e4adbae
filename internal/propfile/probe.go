// Package propfile implements the property-file probe (C2): it shells out
// to the external "runzip" archive extractor to pull a module.prop entry out
// of a release's zip asset, then parses it into a PropertyMap.
//
// The extractor subprocess itself is an external collaborator (§1, §6) —
// this package's job is invoking it correctly, bounding what it reads back,
// and parsing the key=value format, not reimplementing zip decoding.
package propfile

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MaxPropertyBytes is the cap on bytes read from the extractor's stdout
// before the probe gives up and reports an empty PropertyMap (§4.2, §5).
const MaxPropertyBytes = 65536

const propertyFileName = "module.prop"

// Prober extracts and parses module.prop from a release asset's download
// URL via the "runzip" helper.
type Prober struct {
	runzipPath string
	logger     *logrus.Logger
}

// NewProber creates a Prober. runzipPath is the path (or bare name, resolved
// via PATH) to the runzip binary.
func NewProber(runzipPath string, logger *logrus.Logger) *Prober {
	if runzipPath == "" {
		runzipPath = "runzip"
	}
	return &Prober{runzipPath: runzipPath, logger: logger}
}

// Probe fetches module.prop from the zip archive at downloadURL and parses
// it. Any I/O error, non-zero exit, empty output, or absent entry yields an
// empty, non-nil PropertyMap — downstream validation treats that uniformly
// as MISSING_MODULE_PROP (§4.2).
func (p *Prober) Probe(ctx context.Context, downloadURL string) map[string]string {
	logger := p.logger.WithField("downloadUrl", downloadURL)

	cmd := exec.CommandContext(ctx, p.runzipPath, "-p", downloadURL, propertyFileName)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		logger.WithError(err).Warn("failed to attach stdout pipe for runzip")
		return map[string]string{}
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		logger.WithError(err).Warn("failed to start runzip")
		return map[string]string{}
	}

	// Read one byte past the cap: if it's present, the real output exceeded
	// MaxPropertyBytes and the read aborts rather than parsing a truncated
	// module.prop (§4.2, §5).
	limited := io.LimitReader(stdout, MaxPropertyBytes+1)
	content, readErr := io.ReadAll(limited)
	overflowed := len(content) > MaxPropertyBytes
	if overflowed {
		// Drain whatever's left so runzip isn't left blocked writing into a
		// full pipe; we've already decided to discard its output.
		io.Copy(io.Discard, stdout)
	}

	waitErr := cmd.Wait()
	if waitErr != nil {
		logger.WithError(errors.Wrap(waitErr, stderr.String())).Warn("runzip extraction failed")
		return map[string]string{}
	}
	if readErr != nil {
		logger.WithError(readErr).Warn("failed to read runzip output")
		return map[string]string{}
	}
	if overflowed {
		logger.Warn("runzip output exceeded property buffer cap, aborting")
		return map[string]string{}
	}
	if len(content) == 0 {
		logger.Debug("runzip produced empty output")
		return map[string]string{}
	}

	return Parse(content)
}

// Parse parses a module.prop-style key=value manifest. Blank lines and
// lines whose first non-space character is '#' are skipped. A line must
// contain '=' with at least one character before it to be recognized; the
// key and value are the trimmed substrings on either side. Later
// occurrences of a key override earlier ones (§4.2, §9 Open Question).
func Parse(content []byte) map[string]string {
	props := make(map[string]string)

	for _, rawLine := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if key == "" {
			continue
		}

		props[key] = value
	}

	return props
}

// Serialize renders a PropertyMap back into key=value lines, for the
// round-trip test in §8 ("parse(serialize(propertyMap))").
func Serialize(props map[string]string) []byte {
	var b strings.Builder
	for k, v := range props {
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(v)
		b.WriteString("\n")
	}
	return []byte(b.String())
}
