package results

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/coref-probe/internal/prompt"
)

// LoadItems reads one item per line, keeping only lines that carry the
// blank marker.
func LoadItems(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open items: %w", err)
	}
	defer f.Close()

	var items []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.Contains(line, prompt.Blank) {
			items = append(items, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	return items, nil
}
