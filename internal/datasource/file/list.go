package file

import (
	"bufio"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadList reads a text file line by line and returns the non-empty lines
// that do not start with '#', trimmed, in file order. It backs the
// filter.countries_file allow-list.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open list %s", path)
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "read list %s", path)
	}
	return out, nil
}
