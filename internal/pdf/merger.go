package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/mika534/mparkdl/internal/ui"
)

// OriginalsDir is where merged chapter files are parked after bundling.
const OriginalsDir = "_originals"

// Merger groups per-chapter PDFs into fixed-size bundles by chapter number.
type Merger struct {
	ChaptersPerBundle int
	KeepOriginals     bool
	Log               *ui.Logger
}

// Bundle is one planned merge: an output name and its members in order.
type Bundle struct {
	Name    string
	Members []string
}

// Plan describes what a merge pass would do without touching the disk.
type Plan struct {
	Bundles  []Bundle
	Skipped  []string // filenames with no recognizable chapter token
	Warnings []string
}

// MergeError reports one bundle that failed; other bundles still proceed.
type MergeError struct {
	Bundle string
	Err    error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge %s: %v", e.Bundle, e.Err)
}

func (e *MergeError) Unwrap() error { return e.Err }

// Result reports the outcome of a MergeDir pass.
type Result struct {
	Merged   []string
	Skipped  []string
	Warnings []string
	Errors   []error
}

type member struct {
	name  string
	start float64
	end   float64
}

// PlanMerge groups filenames into bundles of ChaptersPerBundle members,
// ordered by chapter number. Already merged files and files without a
// chapter token are left out. Groups of one are not worth a merge and
// produce no bundle.
func (m *Merger) PlanMerge(files []string, title string) Plan {
	var plan Plan
	var members []member
	for _, f := range files {
		if IsMergedName(f) {
			continue
		}
		start, end, ok := ParseBounds(f)
		if !ok {
			plan.Skipped = append(plan.Skipped, f)
			continue
		}
		members = append(members, member{name: f, start: start, end: end})
	}

	sort.Slice(members, func(i, j int) bool {
		if members[i].start != members[j].start {
			return members[i].start < members[j].start
		}
		return members[i].name < members[j].name
	})
	for i := 1; i < len(members); i++ {
		if members[i].start == members[i-1].start {
			plan.Warnings = append(plan.Warnings,
				fmt.Sprintf("duplicate chapter %s: %q and %q, ordering by name",
					FormatChapter(members[i].start), members[i-1].name, members[i].name))
		}
	}

	per := m.ChaptersPerBundle
	if per < 2 {
		per = 2
	}
	for i := 0; i < len(members); i += per {
		group := members[i:]
		if len(group) > per {
			group = group[:per]
		}
		if len(group) < 2 {
			break
		}
		plan.Bundles = append(plan.Bundles, Bundle{
			Name:    bundleName(group, title),
			Members: memberNames(group),
		})
	}
	return plan
}

func bundleName(group []member, title string) string {
	if title == "" {
		title = TitleSuffix(group[0].name)
	}
	name := fmt.Sprintf("Chapter_%s-%s",
		FormatChapter(group[0].start), FormatChapter(group[len(group)-1].end))
	if title != "" {
		name += " - " + title
	}
	return name + ".pdf"
}

func memberNames(group []member) []string {
	names := make([]string, len(group))
	for i, g := range group {
		names[i] = g.name
	}
	return names
}

// MergeDir bundles the chapter PDFs in dir. When only is non-nil it
// restricts the pass to those filenames, which lets a session merge
// ignore chapters from earlier runs. Merged originals are moved to the
// _originals subfolder, or deleted when KeepOriginals is false.
func (m *Merger) MergeDir(dir string, only []string, title string) (Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", dir, err)
	}
	var allowed map[string]bool
	if only != nil {
		allowed = make(map[string]bool, len(only))
		for _, f := range only {
			allowed[filepath.Base(f)] = true
		}
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		if allowed != nil && !allowed[e.Name()] {
			continue
		}
		files = append(files, e.Name())
	}

	plan := m.PlanMerge(files, title)
	res := Result{Skipped: plan.Skipped, Warnings: plan.Warnings}
	if m.Log != nil {
		for _, w := range plan.Warnings {
			m.Log.Warnf("%s\n", w)
		}
		for _, s := range plan.Skipped {
			m.Log.Warnf("skipping %q: no chapter number in name\n", s)
		}
	}

	conf := model.NewDefaultConfiguration()
	for _, b := range plan.Bundles {
		in := make([]string, len(b.Members))
		for i, name := range b.Members {
			in[i] = filepath.Join(dir, name)
		}
		out := filepath.Join(dir, b.Name)
		if err := api.MergeCreateFile(in, out, false, conf); err != nil {
			os.Remove(out)
			res.Errors = append(res.Errors, &MergeError{Bundle: b.Name, Err: err})
			continue
		}
		if err := m.stashOriginals(dir, b.Members); err != nil {
			res.Errors = append(res.Errors, &MergeError{Bundle: b.Name, Err: err})
			continue
		}
		res.Merged = append(res.Merged, b.Name)
		if m.Log != nil {
			m.Log.Infof("merged %d chapter(s) into %s\n", len(b.Members), b.Name)
		}
	}
	return res, nil
}

func (m *Merger) stashOriginals(dir string, names []string) error {
	if !m.KeepOriginals {
		for _, name := range names {
			if err := os.Remove(filepath.Join(dir, name)); err != nil {
				return err
			}
		}
		return nil
	}
	stash := filepath.Join(dir, OriginalsDir)
	if err := os.MkdirAll(stash, 0o755); err != nil {
		return err
	}
	for _, name := range names {
		if err := os.Rename(filepath.Join(dir, name), filepath.Join(stash, name)); err != nil {
			return err
		}
	}
	return nil
}
