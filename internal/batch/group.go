package batch

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/hakim/tagcube/internal/logger"
)

// Group is a set of paths sharing one origin, launched as a single scan.
type Group struct {
	Origin
	paths map[string]struct{}
}

func newGroup(origin Origin, path string) *Group {
	g := &Group{Origin: origin, paths: make(map[string]struct{})}
	g.AddPath(path)
	return g
}

// Matches reports whether origin is this group's key.
func (g *Group) Matches(origin Origin) bool {
	return g.Origin == origin
}

// AddPath adds path to the group; duplicates are ignored.
func (g *Group) AddPath(path string) {
	g.paths[path] = struct{}{}
}

// Paths returns the group's paths in lexical order.
func (g *Group) Paths() []string {
	out := make([]string, 0, len(g.paths))
	for p := range g.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// RootURL is the canonical scan root, e.g. https://a.com:443/.
func (g *Group) RootURL() string {
	return fmt.Sprintf("%s://%s:%d/", g.Protocol, g.Domain, g.Port)
}

// Plan is the outcome of grouping a batch file.
type Plan struct {
	// Groups are in order of first appearance in the input.
	Groups []*Group
	// Skipped holds one error per malformed line.
	Skipped []*MalformedLineError
}

// GroupURLs reads one URL per line and groups them by origin. Blank lines and
// lines starting with "#" are ignored; malformed lines are recorded in Plan.Skipped.
func GroupURLs(r io.Reader, log *slog.Logger) (*Plan, error) {
	if log == nil {
		log = logger.Discard()
	}
	log.Debug("starting to process batch input")

	plan := &Plan{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		origin, path, err := ParseURL(line)
		if err != nil {
			skipped := &MalformedLineError{Line: lineNo, Text: line, Reason: err.Error()}
			plan.Skipped = append(plan.Skipped, skipped)
			log.Debug("skipping batch line", "line", lineNo, "reason", err.Error())
			continue
		}

		plan.add(origin, path, log)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading batch input: %w", err)
	}

	log.Debug("batch input processed", "scans", len(plan.Groups), "skipped", len(plan.Skipped))
	return plan, nil
}

func (p *Plan) add(origin Origin, path string, log *slog.Logger) {
	for _, g := range p.Groups {
		if g.Matches(origin) {
			g.AddPath(path)
			log.Debug("added path to scan", "path", path, "root", g.RootURL())
			return
		}
	}
	g := newGroup(origin, path)
	p.Groups = append(p.Groups, g)
	log.Debug("added a new scan", "root", g.RootURL())
}
