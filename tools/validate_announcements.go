//go:build ignore

// Validate_announcements checks captured discovery payloads against the
// announcement decoder.
//
// Input files hold one datagram payload per line, e.g. captured with
//
//	socat -u UDP4-RECV:1993,reuseaddr,reuseport - | tee capture.jsonl
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/muurk/nsd/internal/discovery"
)

// Statistics tracks decoding results
type Statistics struct {
	TotalFiles     int
	TotalPayloads  int
	DecodeSuccess  int
	DecodeFailure  int
	Hosts          map[string]int
	Services       map[string]int
	FailedPayloads []FailedPayload
}

// FailedPayload stores information about a rejected payload
type FailedPayload struct {
	File       string
	LineNumber int
	Payload    string
	Error      string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: validate_announcements <directory-or-file>")
		fmt.Println("Example: validate_announcements captures/")
		fmt.Println("         validate_announcements capture.jsonl")
		os.Exit(1)
	}

	path := os.Args[1]
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Error accessing path: %v\n", err)
		os.Exit(1)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "*.jsonl"))
		if err != nil || len(files) == 0 {
			fmt.Printf("No JSONL files found in %s\n", path)
			os.Exit(1)
		}
	}

	stats := Statistics{
		Hosts:    make(map[string]int),
		Services: make(map[string]int),
	}
	for _, file := range files {
		processFile(file, &stats)
	}

	printStatistics(&stats)
	if stats.DecodeFailure > 0 {
		os.Exit(2)
	}
}

func processFile(filename string, stats *Statistics) {
	stats.TotalFiles++

	f, err := os.Open(filename)
	if err != nil {
		fmt.Printf("Error reading file %s: %v\n", filename, err)
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		stats.TotalPayloads++

		a, err := discovery.DecodeAnnouncement(line)
		if err != nil {
			stats.DecodeFailure++
			stats.FailedPayloads = append(stats.FailedPayloads, FailedPayload{
				File:       filename,
				LineNumber: lineNum,
				Payload:    string(line),
				Error:      err.Error(),
			})
			continue
		}

		stats.DecodeSuccess++
		stats.Hosts[a.Hostname]++
		for _, svc := range a.Services {
			stats.Services[svc.Name]++
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Printf("Error scanning %s: %v\n", filename, err)
	}
}

func printStatistics(stats *Statistics) {
	fmt.Printf("\n========================================\n")
	fmt.Printf("ANNOUNCEMENT VALIDATION\n")
	fmt.Printf("========================================\n\n")

	fmt.Printf("Files Processed:  %d\n", stats.TotalFiles)
	fmt.Printf("Total Payloads:   %d\n", stats.TotalPayloads)
	if stats.TotalPayloads == 0 {
		return
	}
	fmt.Printf("Decoded:          %d (%.2f%%)\n", stats.DecodeSuccess,
		float64(stats.DecodeSuccess)/float64(stats.TotalPayloads)*100)
	fmt.Printf("Rejected:         %d (%.2f%%)\n", stats.DecodeFailure,
		float64(stats.DecodeFailure)/float64(stats.TotalPayloads)*100)

	printCounts("HOSTS", stats.Hosts)
	printCounts("SERVICES", stats.Services)

	if len(stats.FailedPayloads) > 0 {
		fmt.Printf("\n----------------------------------------\n")
		fmt.Printf("REJECTED PAYLOADS (%d total)\n", len(stats.FailedPayloads))
		fmt.Printf("----------------------------------------\n")

		const maxShow = 10
		for i, failed := range stats.FailedPayloads {
			if i >= maxShow {
				fmt.Printf("\n(%d more not shown)\n", len(stats.FailedPayloads)-maxShow)
				break
			}
			preview := failed.Payload
			if len(preview) > 80 {
				preview = preview[:80] + "..."
			}
			fmt.Printf("\n%s:%d\n  Error:   %s\n  Payload: %s\n", failed.File, failed.LineNumber, failed.Error, preview)
		}
	}
}

func printCounts(title string, counts map[string]int) {
	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("%s\n", title)
	fmt.Printf("----------------------------------------\n")

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-30s %d\n", name, counts[name])
	}
}
