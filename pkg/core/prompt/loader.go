package prompt

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LoadFromDirectory adds every override found under baseDir/prompts:
//
//	baseDir/
//	  prompts/
//	    flows/
//	      generate.hbs     raw template, id "flows.generate"
//	      analyze.json     Override as JSON
//
// A missing prompts directory is not an error: flows keep their built-in
// templates. IDs that no flow reads are loaded but logged.
func LoadFromDirectory(r *Registry, baseDir string) error {
	root := filepath.Join(baseDir, "prompts")
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		o, ok, err := readOverride(root, path)
		if err != nil || !ok {
			return err
		}
		if !Known(o.ID) {
			log.Printf("[prompt] %s: no flow reads prompt %q", o.source, o.ID)
		}
		return r.Add(o)
	})
	if err != nil {
		return fmt.Errorf("load prompt overrides: %w", err)
	}
	if n := r.Count(); n > 0 {
		log.Printf("[prompt] %d override(s) from %s: %s", n, root, strings.Join(r.IDs(), ", "))
	}
	return nil
}

func readOverride(root, path string) (Override, bool, error) {
	ext := filepath.Ext(path)
	if ext != ".json" && ext != ".hbs" {
		return Override{}, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Override{}, false, err
	}

	o := Override{source: path}
	if ext == ".json" {
		if err := json.Unmarshal(data, &o); err != nil {
			return Override{}, false, fmt.Errorf("%s: %w", path, err)
		}
	} else {
		o.Template = string(data)
	}
	if o.ID == "" {
		o.ID = idFromPath(root, path)
	}
	return o, true, nil
}

// idFromPath turns "prompts/flows/generate.hbs" into "flows.generate".
func idFromPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return strings.ReplaceAll(rel, string(filepath.Separator), ".")
}
