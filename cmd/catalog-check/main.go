// Command catalog-check validates the built-in source catalog and, when
// pointed at a data directory, cross-checks the CSV files against it.
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"rankcore/pkg/rankings"
)

var exitFunc = os.Exit

// main runs the command-line interface using the program arguments and exits
// the process with the status code returned by cli.
func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("catalog-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var dataDir string
	fs.StringVar(&dataDir, "data", "", "CSV data directory to cross-check (optional)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	findings := run(dataDir)
	if len(findings) > 0 {
		fmt.Fprintln(stderr, "Catalog validation failed:")
		for _, finding := range findings {
			fmt.Fprintf(stderr, "  - %s\n", finding)
		}
		return 1
	}
	fmt.Fprintln(stdout, "Catalog validation passed.")
	return 0
}

// run collects every catalog finding instead of stopping at the first, so
// one invocation reports the full repair list.
func run(dataDir string) []string {
	profiles := rankings.DefaultProfiles()
	findings := checkCatalog(profiles)
	if dataDir != "" {
		findings = append(findings, checkData(filepath.Clean(dataDir), profiles)...)
	}
	return findings
}

func checkCatalog(profiles map[rankings.Source]rankings.Profile) []string {
	var findings []string
	tableNames := map[string]rankings.Source{}
	fileNames := map[string]rankings.Source{}
	for _, src := range rankings.Sources() {
		p, ok := profiles[src]
		if !ok {
			findings = append(findings, fmt.Sprintf("%s: no profile", src))
			continue
		}
		if p.Source != src {
			findings = append(findings, fmt.Sprintf("%s: profile declares source %q", src, p.Source))
		}
		if p.DisplayName == "" {
			findings = append(findings, fmt.Sprintf("%s: display name empty", src))
		}
		if p.TableName == "" {
			findings = append(findings, fmt.Sprintf("%s: table name empty", src))
		} else if prev, dup := tableNames[p.TableName]; dup {
			findings = append(findings, fmt.Sprintf("%s: table name %q already used by %s", src, p.TableName, prev))
		} else {
			tableNames[p.TableName] = src
		}
		if p.FileName == "" {
			findings = append(findings, fmt.Sprintf("%s: file name empty", src))
		} else if prev, dup := fileNames[p.FileName]; dup {
			findings = append(findings, fmt.Sprintf("%s: file name %q already used by %s", src, p.FileName, prev))
		} else {
			fileNames[p.FileName] = src
		}
		if p.RankColumn == "" {
			findings = append(findings, fmt.Sprintf("%s: rank column empty", src))
		}
		findings = append(findings, checkRegion(src, p)...)
		findings = append(findings, checkMetrics(src, p)...)
	}
	return findings
}

func checkRegion(src rankings.Source, p rankings.Profile) []string {
	var findings []string
	if p.RegionColumn == "" {
		if p.InRegionToken != "" || p.OutRegionToken != "" {
			findings = append(findings, fmt.Sprintf("%s: region tokens set without a region column", src))
		}
		return findings
	}
	if p.InRegionToken == "" || p.OutRegionToken == "" {
		findings = append(findings, fmt.Sprintf("%s: region column %q needs both region tokens", src, p.RegionColumn))
	}
	if p.InRegionToken != "" && p.InRegionToken == p.OutRegionToken {
		findings = append(findings, fmt.Sprintf("%s: region tokens are identical", src))
	}
	return findings
}

func checkMetrics(src rankings.Source, p rankings.Profile) []string {
	var findings []string
	if len(p.Metrics) == 0 {
		findings = append(findings, fmt.Sprintf("%s: metric catalog empty", src))
		return findings
	}
	keys := map[string]struct{}{}
	columns := map[string]string{}
	for _, m := range p.Metrics {
		if m.Key == "" {
			findings = append(findings, fmt.Sprintf("%s: metric with empty key", src))
			continue
		}
		if _, dup := keys[m.Key]; dup {
			findings = append(findings, fmt.Sprintf("%s: duplicate metric key %q", src, m.Key))
		}
		keys[m.Key] = struct{}{}
		if m.Column == "" {
			findings = append(findings, fmt.Sprintf("%s: metric %q has no column", src, m.Key))
			continue
		}
		if prev, dup := columns[m.Column]; dup {
			findings = append(findings, fmt.Sprintf("%s: metrics %q and %q share column %q", src, prev, m.Key, m.Column))
		} else {
			columns[m.Column] = m.Key
		}
		if m.Label == "" {
			findings = append(findings, fmt.Sprintf("%s: metric %q has no label", src, m.Key))
		}
	}
	rank, ok := p.Metric(rankings.MetricRank)
	if !ok {
		findings = append(findings, fmt.Sprintf("%s: catalog has no %q metric", src, rankings.MetricRank))
	} else if rank.Column != p.RankColumn {
		findings = append(findings, fmt.Sprintf("%s: rank metric column %q differs from rank column %q", src, rank.Column, p.RankColumn))
	}
	return findings
}

// checkData verifies each profile's CSV header against the catalog. Missing
// metric columns are reported too: they would silently resolve to missing
// values at query time.
func checkData(dir string, profiles map[rankings.Source]rankings.Profile) []string {
	var findings []string
	for _, src := range rankings.Sources() {
		p, ok := profiles[src]
		if !ok {
			continue
		}
		path := filepath.Join(dir, p.FileName)
		header, err := readHeader(path)
		if err != nil {
			findings = append(findings, fmt.Sprintf("%s: %v", src, err))
			continue
		}
		present := map[string]int{}
		for _, name := range header {
			present[name]++
		}
		reported := map[string]bool{}
		for _, name := range header {
			if present[name] > 1 && !reported[name] {
				reported[name] = true
				findings = append(findings, fmt.Sprintf("%s: column %q appears %d times in %s", src, name, present[name], p.FileName))
			}
		}
		for _, required := range []string{rankings.ColumnPeriod, rankings.ColumnInstitution, p.RankColumn} {
			if present[required] == 0 {
				findings = append(findings, fmt.Sprintf("%s: required column %q missing from %s", src, required, p.FileName))
			}
		}
		if p.RegionColumn != "" && present[p.RegionColumn] == 0 {
			findings = append(findings, fmt.Sprintf("%s: region column %q missing from %s", src, p.RegionColumn, p.FileName))
		}
		for _, m := range p.Metrics {
			if m.Column != "" && present[m.Column] == 0 {
				findings = append(findings, fmt.Sprintf("%s: column %q for metric %q missing from %s", src, m.Column, m.Key, p.FileName))
			}
		}
	}
	findings = append(findings, checkPeerFile(dir)...)
	return findings
}

// checkPeerFile validates the optional peer set file when present.
func checkPeerFile(dir string) []string {
	path := filepath.Join(dir, rankings.PeerFileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	header, err := readHeader(path)
	if err != nil {
		return []string{fmt.Sprintf("peers: %v", err)}
	}
	var findings []string
	present := map[string]bool{}
	for _, name := range header {
		present[name] = true
	}
	for _, required := range []string{rankings.ColumnPeerType, rankings.ColumnPeerName} {
		if !present[required] {
			findings = append(findings, fmt.Sprintf("peers: required column %q missing from %s", required, rankings.PeerFileName))
		}
	}
	return findings
}

func readHeader(path string) (header []string, err error) {
	file, err := os.Open(path) // #nosec G304: operator-supplied data directory
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	header, err = csv.NewReader(file).Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	return header, nil
}
