package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rankcore/pkg/rankings"
)

func writeDataFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// writeCatalogCSVs lays down one CSV per profile whose header matches the
// catalog exactly.
func writeCatalogCSVs(t *testing.T, dir string) {
	t.Helper()
	for _, p := range rankings.DefaultProfiles() {
		header := []string{rankings.ColumnPeriod, rankings.ColumnInstitution}
		if p.RegionColumn != "" {
			header = append(header, p.RegionColumn)
		}
		seen := map[string]bool{}
		for _, h := range header {
			seen[h] = true
		}
		for _, m := range p.Metrics {
			if !seen[m.Column] {
				seen[m.Column] = true
				header = append(header, m.Column)
			}
		}
		quoted := make([]string, len(header))
		for i, h := range header {
			quoted[i] = `"` + strings.ReplaceAll(h, `"`, `""`) + `"`
		}
		writeDataFile(t, dir, p.FileName, strings.Join(quoted, ",")+"\n")
	}
}

func TestCheckCatalogBuiltins(t *testing.T) {
	if findings := checkCatalog(rankings.DefaultProfiles()); len(findings) != 0 {
		t.Fatalf("expected clean catalog, got %v", findings)
	}
}

func TestCheckCatalogReportsMissingProfile(t *testing.T) {
	profiles := rankings.DefaultProfiles()
	delete(profiles, rankings.SourceQS)
	findings := checkCatalog(profiles)
	if !containsFinding(findings, "qs: no profile") {
		t.Fatalf("expected missing profile finding, got %v", findings)
	}
}

func TestCheckCatalogReportsBrokenProfile(t *testing.T) {
	profiles := rankings.DefaultProfiles()
	p := profiles[rankings.SourceTimes]
	p.DisplayName = ""
	p.TableName = profiles[rankings.SourceQS].TableName
	p.OutRegionToken = p.InRegionToken
	metrics := make([]rankings.MetricSpec, 0, len(p.Metrics))
	for _, m := range p.Metrics {
		if m.Key == rankings.MetricRank {
			continue
		}
		metrics = append(metrics, m)
	}
	p.Metrics = metrics
	profiles[rankings.SourceTimes] = p

	findings := checkCatalog(profiles)
	for _, want := range []string{
		"times: display name empty",
		"times: region tokens are identical",
		`times: catalog has no "rank" metric`,
	} {
		if !containsFinding(findings, want) {
			t.Fatalf("expected finding %q, got %v", want, findings)
		}
	}
	if !containsFinding(findings, "already used by") {
		t.Fatalf("expected duplicate table name finding, got %v", findings)
	}
}

func TestCheckCatalogReportsSharedColumn(t *testing.T) {
	profiles := rankings.DefaultProfiles()
	p := profiles[rankings.SourceUSNews]
	p.Metrics = append(p.Metrics, rankings.MetricSpec{Key: "rank_again", Column: p.RankColumn, Label: "Rank Again"})
	profiles[rankings.SourceUSNews] = p
	findings := checkCatalog(profiles)
	if !containsFinding(findings, `share column "Rank"`) {
		t.Fatalf("expected shared column finding, got %v", findings)
	}
}

func TestRunDataDirectoryClean(t *testing.T) {
	dir := t.TempDir()
	writeCatalogCSVs(t, dir)
	writeDataFile(t, dir, rankings.PeerFileName,
		rankings.ColumnPeerType+","+rankings.ColumnPeerName+"\naspirational,Rutgers University\n")
	if findings := run(dir); len(findings) != 0 {
		t.Fatalf("expected no findings, got %v", findings)
	}
}

func TestRunDataDirectoryMissingFiles(t *testing.T) {
	findings := run(t.TempDir())
	for _, p := range rankings.DefaultProfiles() {
		if !containsFinding(findings, p.FileName) {
			t.Fatalf("expected finding for %s, got %v", p.FileName, findings)
		}
	}
}

func TestRunDataDirectoryHeaderDrift(t *testing.T) {
	dir := t.TempDir()
	writeCatalogCSVs(t, dir)
	// Strip the rank column and duplicate the institution column for one source.
	writeDataFile(t, dir, "usnews.csv",
		rankings.ColumnPeriod+","+rankings.ColumnInstitution+","+rankings.ColumnInstitution+"\n")
	findings := run(dir)
	if !containsFinding(findings, `usnews: required column "Rank" missing`) {
		t.Fatalf("expected missing rank column finding, got %v", findings)
	}
	if !containsFinding(findings, `column "IPEDS_Name" appears 2 times`) {
		t.Fatalf("expected duplicate column finding, got %v", findings)
	}
}

func TestRunDataDirectoryBadPeerFile(t *testing.T) {
	dir := t.TempDir()
	writeCatalogCSVs(t, dir)
	writeDataFile(t, dir, rankings.PeerFileName, "group,school\n")
	findings := run(dir)
	if !containsFinding(findings, `peers: required column "PEER_TYPE" missing`) {
		t.Fatalf("expected peer column finding, got %v", findings)
	}
}

func TestCLI(t *testing.T) {
	dir := t.TempDir()
	writeCatalogCSVs(t, dir)

	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-data", dir}, &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr %q)", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Catalog validation passed.") {
		t.Fatalf("unexpected stdout %q", stdout.String())
	}

	stdout.Reset()
	stderr.Reset()
	if code := cli([]string{"-data", filepath.Join(dir, "missing")}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "Catalog validation failed:") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}

	stdout.Reset()
	stderr.Reset()
	if code := cli([]string{"-bogus"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2 for bad flag, got %d", code)
	}
}

func containsFinding(findings []string, substr string) bool {
	for _, f := range findings {
		if strings.Contains(f, substr) {
			return true
		}
	}
	return false
}
