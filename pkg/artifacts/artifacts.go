// Package artifacts reads and writes the line-oriented files exchanged
// between the parser, the distance engines and the instrumentation pass.
package artifacts

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/smith-xyz/golang-distance-generator/pkg/models"
	"github.com/smith-xyz/golang-distance-generator/pkg/utils"
)

// ErrMissingArtifact is returned when a required input file is absent
var ErrMissingArtifact = errors.New("missing artifact")

const maxLineSize = 1 << 20

// BlockCall is one line of the block call-site map
type BlockCall struct {
	Block  string
	Callee string
}

// RequireFile fails with ErrMissingArtifact unless path is an existing file
func RequireFile(path string) error {
	if !utils.FileExists(path) {
		return fmt.Errorf("%w: '%s' doesn't exist or is not a file", ErrMissingArtifact, path)
	}
	return nil
}

// RequireDir fails with ErrMissingArtifact unless path is an existing directory
func RequireDir(path string) error {
	if !utils.DirectoryExists(path) {
		return fmt.Errorf("%w: '%s' doesn't exist or is not a directory", ErrMissingArtifact, path)
	}
	return nil
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path) // #nosec G304 - artifact paths come from the run layout
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingArtifact, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

func scanLines(path string, fn func(line string)) error {
	f, err := open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fn(line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

// ReadLines reads a list file with one identifier per line, skipping blank lines
func ReadLines(path string) ([]string, error) {
	var lines []string
	err := scanLines(path, func(line string) {
		lines = append(lines, line)
	})
	return lines, err
}

// ReadBlockCalls reads the block,callee map in file order
func ReadBlockCalls(path string) ([]BlockCall, error) {
	var calls []BlockCall
	err := scanLines(path, func(line string) {
		block, callee, ok := utils.SplitRecord(line)
		if !ok {
			return
		}
		calls = append(calls, BlockCall{Block: block, Callee: callee})
	})
	return calls, err
}

// ReadDistances reads an identifier,distance file in file order
func ReadDistances(path string) ([]models.DistanceRecord, error) {
	var (
		records  []models.DistanceRecord
		parseErr error
	)
	err := scanLines(path, func(line string) {
		if parseErr != nil {
			return
		}
		name, value, ok := utils.SplitRecord(line)
		if !ok {
			return
		}
		distance, err := models.ParseDistance(value)
		if err != nil {
			parseErr = fmt.Errorf("%s: %w", path, err)
			return
		}
		records = append(records, models.DistanceRecord{Name: name, Distance: distance})
	})
	if err != nil {
		return nil, err
	}
	return records, parseErr
}

// DistanceMap indexes records by name. Later records win.
func DistanceMap(records []models.DistanceRecord) map[string]models.Distance {
	m := make(map[string]models.Distance, len(records))
	for _, r := range records {
		m[r.Name] = r.Distance
	}
	return m
}

// WriteDistanceRecords writes records as name,value lines
func WriteDistanceRecords(w io.Writer, records []models.DistanceRecord) error {
	for _, r := range records {
		if _, err := fmt.Fprintf(w, "%s,%s\n", r.Name, r.Distance); err != nil {
			return err
		}
	}
	return nil
}

// WriteDistances atomically replaces path with the given records
func WriteDistances(path string, records []models.DistanceRecord) error {
	return utils.WriteFileAtomic(path, func(w io.Writer) error {
		return WriteDistanceRecords(w, records)
	})
}

// MergeFiles concatenates inputs, in the given order, into out
func MergeFiles(inputs []string, out string) error {
	return utils.WriteFileAtomic(out, func(w io.Writer) error {
		for _, input := range inputs {
			f, err := open(input)
			if err != nil {
				return err
			}
			_, err = io.Copy(w, f)
			f.Close()
			if err != nil {
				return fmt.Errorf("failed to copy %s: %w", input, err)
			}
		}
		return nil
	})
}
