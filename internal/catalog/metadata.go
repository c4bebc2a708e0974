package catalog

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/usb-cleaner-box/ucb/internal/model"
)

// MetadataLines is how many leading lines of a script are scanned for markers.
const MetadataLines = 20

// MaxLineBytes caps how much of a header line is searched for a marker. The
// rest of a longer line is skipped.
const MaxLineBytes = 64 * 1024

const (
	questionKey    = "WORKER_QUESTION="
	orderKey       = "WORKER_ORDER="
	descriptionKey = "WORKER_DESCRIPTION="
	enabledKey     = "WORKER_ENABLED="
)

var (
	orderRx   = regexp.MustCompile(`WORKER_ORDER=(\d+)`)
	enabledRx = regexp.MustCompile(`WORKER_ENABLED=(?i:(true|false|yes|no|1|0))\b`)
)

// Metadata holds the WORKER_* values found in a script header.
type Metadata struct {
	Question    string
	Order       int
	Description string
	Enabled     bool
}

// ParseMetadata scans the first MetadataLines lines of r. Every line yields at
// most one marker, checked in the order question, order, description, enabled.
// The first valid value of a marker wins.
func ParseMetadata(r io.Reader) (Metadata, error) {
	md := Metadata{
		Order:   model.DefaultOrder,
		Enabled: true,
	}
	var orderSet, enabledSet bool

	br := bufio.NewReaderSize(r, MaxLineBytes)
	for i := 0; i < MetadataLines; i++ {
		line, err := readLine(br)
		if errors.Is(err, io.EOF) && line == "" {
			break
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return md, err
		}
		switch {
		case strings.Contains(line, questionKey):
			if md.Question == "" {
				md.Question = valueAfter(line, questionKey)
			}
		case strings.Contains(line, orderKey):
			if orderSet {
				continue
			}
			if m := orderRx.FindStringSubmatch(line); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					md.Order = n
					orderSet = true
				}
			}
		case strings.Contains(line, descriptionKey):
			if md.Description == "" {
				md.Description = valueAfter(line, descriptionKey)
			}
		case strings.Contains(line, enabledKey):
			if enabledSet {
				continue
			}
			if m := enabledRx.FindStringSubmatch(line); m != nil {
				switch strings.ToLower(m[1]) {
				case "true", "yes", "1":
					md.Enabled = true
				default:
					md.Enabled = false
				}
				enabledSet = true
			}
		}
	}
	return md, nil
}

// readLine returns the next line without its line ending, truncated to
// MaxLineBytes.
func readLine(br *bufio.Reader) (string, error) {
	b, err := br.ReadSlice('\n')
	line := strings.TrimRight(string(b), "\r\n")
	for errors.Is(err, bufio.ErrBufferFull) {
		_, err = br.ReadSlice('\n')
	}
	return line, err
}

func valueAfter(line, key string) string {
	_, after, _ := strings.Cut(line, key)
	return strings.TrimSpace(after)
}
