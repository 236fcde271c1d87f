package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"

	"offgrid-planner/internal/config"
)

func main() {
	var (
		dir        = flag.String("dir", "examples/components", "Directory holding the component presets")
		outputPath = flag.String("output", "", "Output file path (default: <dir>/catalogue.json)")
		verbose    = flag.Bool("v", false, "Print the components of every preset")
	)
	flag.Parse()

	if *outputPath == "" {
		*outputPath = config.DefaultCataloguePath(*dir)
	}

	fmt.Printf("Scanning presets in %s\n", *dir)
	cat, err := config.ScanPresets(*dir)
	if err != nil {
		log.Fatalf("Failed to scan presets: %v", err)
	}

	// Report what changed against the previous catalogue, if there is one.
	if prev, err := config.LoadCatalogue(*outputPath); err == nil {
		added, removed := diff(prev, cat)
		fmt.Printf("Previous catalogue had %d presets (%d added, %d removed)\n", len(prev.Presets), added, removed)
	}

	for _, p := range cat.Presets {
		fmt.Printf("  %-20s %s\n", p.Name, p.Description)
		if *verbose {
			names := make([]string, 0, len(p.Components))
			for name := range p.Components {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Printf("  %-20s components: %s\n", "", strings.Join(names, ", "))
		}
	}

	if err := config.SaveCatalogue(cat, *outputPath); err != nil {
		log.Fatalf("Failed to save catalogue: %v", err)
	}
	fmt.Printf("Saved %d presets to %s\n", len(cat.Presets), *outputPath)
}

func diff(prev, next *config.Catalogue) (added, removed int) {
	for _, p := range next.Presets {
		if _, ok := prev.Find(p.Name); !ok {
			added++
		}
	}
	for _, p := range prev.Presets {
		if _, ok := next.Find(p.Name); !ok {
			removed++
		}
	}
	return added, removed
}
