//go:build tools
// +build tools

// checkmarkup reports archive entries that the markup table leaves unresolved.
// Run it against a new exiled.tar.gz before publishing a release.
package main

import (
	"archive/tar"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/exmod-team/exiled-installer/internal/extract"
	"github.com/exmod-team/exiled-installer/internal/markup"
)

func main() {
	archivePath := flag.String("archive", "", "path to the release archive")
	markupPath := flag.String("markup", "", "markup table (defaults to the embedded table)")
	port := flag.String("target-port", "", "port substituted for \"global\"")
	flag.Parse()

	if strings.TrimSpace(*archivePath) == "" {
		fatalf("--archive is required")
	}
	table := markup.Default()
	if *markupPath != "" {
		var err error
		table, err = markup.Load(*markupPath)
		if err != nil {
			fatalf("load markup: %v", err)
		}
	}

	counts, unresolved, err := scanArchive(*archivePath, *port, table)
	if err != nil {
		fatalf("scan %s: %v", *archivePath, err)
	}
	for _, res := range []markup.Resolution{markup.Absolute, markup.Exiled, markup.Undefined} {
		fmt.Printf("%-9s %d\n", res, counts[res])
	}
	if len(unresolved) > 0 {
		for _, name := range unresolved {
			fmt.Printf("unresolved: %s\n", name)
		}
		os.Exit(1)
	}
}

// scanArchive resolves every regular file and returns per-resolution counts
// plus the sorted names of unresolved entries.
func scanArchive(path string, port string, table *markup.Table) (map[markup.Resolution]int, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = gz.Close() }()

	counts := map[markup.Resolution]int{}
	var unresolved []string
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := extract.EntryName(hdr.Name, port)
		res := table.Resolve(name)
		counts[res]++
		if res == markup.Undefined {
			unresolved = append(unresolved, name)
		}
	}
	sort.Strings(unresolved)
	return counts, unresolved, nil
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
