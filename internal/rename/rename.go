// Package rename executes collision-safe batch renames of sibling files or
// directories. The new-name set may overlap the old-name set (swaps, cyclic
// renames, partial renames), so every entry is first moved aside to a
// placeholder name in a reserved namespace and only then moved to its final
// name. No two live entries ever collide mid-sequence, regardless of rename
// order.
package rename

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// placeholderPrefix is the reserved namespace for intermediate names. Names
// produced by the name mapper never start with it, so placeholders cannot
// collide with live entries.
const placeholderPrefix = "org.unifiedfontobject.normalizer."

// JournalName is the file the planner writes before moving anything. It
// lists the planned renames and is removed once the batch completes, so a
// leftover journal marks an interrupted batch that Recover can finish.
const JournalName = placeholderPrefix + "journal"

// Stage identifies the phase in which a batch rename failed.
type Stage string

const (
	// StageJournal covers writing or removing the rename journal.
	StageJournal Stage = "JOURNAL"
	// StageAside covers moving entries to placeholder names.
	StageAside Stage = "MOVE_ASIDE"
	// StageFinal covers moving placeholders to their final names.
	StageFinal Stage = "MOVE_FINAL"
)

// Error reports a failed rename within a batch. Entries already moved to
// placeholders are left in that state; the journal on disk describes how to
// finish the batch.
type Error struct {
	Stage Stage
	From  string
	To    string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s -> %s (%v)", e.Stage, e.From, e.To, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// pair is one planned rename with its placeholder.
type pair struct {
	old         string
	new         string
	placeholder string
}

// plan orders the batch deterministically and assigns placeholder names.
// Pairs where the old and new names already agree are dropped.
func plan(renames map[string]string) []pair {
	olds := make([]string, 0, len(renames))
	for old := range renames {
		if renames[old] != old {
			olds = append(olds, old)
		}
	}
	sort.Strings(olds)
	pairs := make([]pair, len(olds))
	for i, old := range olds {
		pairs[i] = pair{
			old:         old,
			new:         renames[old],
			placeholder: fmt.Sprintf("%s%d", placeholderPrefix, i),
		}
	}
	return pairs
}

// Execute renames the entries of dir according to renames (old name to new
// name). All move-aside renames complete before any final rename begins.
// On failure the batch aborts; the journal file left in dir records the
// outstanding work for Recover.
func Execute(dir string, renames map[string]string) error {
	pairs := plan(renames)
	if len(pairs) == 0 {
		return nil
	}
	if err := writeJournal(dir, pairs); err != nil {
		return err
	}
	for _, p := range pairs {
		from := filepath.Join(dir, p.old)
		to := filepath.Join(dir, p.placeholder)
		if err := os.Rename(from, to); err != nil {
			return &Error{Stage: StageAside, From: p.old, To: p.placeholder, Err: err}
		}
	}
	for _, p := range pairs {
		from := filepath.Join(dir, p.placeholder)
		to := filepath.Join(dir, p.new)
		if err := os.Rename(from, to); err != nil {
			return &Error{Stage: StageFinal, From: p.placeholder, To: p.new, Err: err}
		}
	}
	if err := os.Remove(filepath.Join(dir, JournalName)); err != nil {
		return &Error{Stage: StageJournal, From: JournalName, Err: err}
	}
	return nil
}

// Recover finishes an interrupted batch described by a leftover journal in
// dir. Entries still under their old names are moved aside first, then all
// placeholders are moved to their final names. It reports whether a journal
// was found.
func Recover(dir string) (bool, error) {
	pairs, found, err := readJournal(dir)
	if err != nil || !found {
		return found, err
	}
	for _, p := range pairs {
		if _, statErr := os.Lstat(filepath.Join(dir, p.old)); statErr != nil {
			continue
		}
		from := filepath.Join(dir, p.old)
		to := filepath.Join(dir, p.placeholder)
		if err := os.Rename(from, to); err != nil {
			return true, &Error{Stage: StageAside, From: p.old, To: p.placeholder, Err: err}
		}
	}
	for _, p := range pairs {
		if _, statErr := os.Lstat(filepath.Join(dir, p.placeholder)); statErr != nil {
			continue
		}
		from := filepath.Join(dir, p.placeholder)
		to := filepath.Join(dir, p.new)
		if err := os.Rename(from, to); err != nil {
			return true, &Error{Stage: StageFinal, From: p.placeholder, To: p.new, Err: err}
		}
	}
	if err := os.Remove(filepath.Join(dir, JournalName)); err != nil {
		return true, &Error{Stage: StageJournal, From: JournalName, Err: err}
	}
	return true, nil
}

// writeJournal records the planned batch as one tab-separated line per
// rename: placeholder, old name, new name. File and directory names cannot
// contain tabs (the name mapper replaces control characters), so the format
// is unambiguous.
func writeJournal(dir string, pairs []pair) error {
	var b strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&b, "%s\t%s\t%s\n", p.placeholder, p.old, p.new)
	}
	path := filepath.Join(dir, JournalName)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return &Error{Stage: StageJournal, From: JournalName, Err: err}
	}
	return nil
}

// readJournal loads a journal left by an interrupted batch.
func readJournal(dir string) ([]pair, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, JournalName))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, true, &Error{Stage: StageJournal, From: JournalName, Err: err}
	}
	var pairs []pair
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) != 3 {
			return nil, true, &Error{Stage: StageJournal, From: JournalName,
				Err: fmt.Errorf("malformed journal line %q", line)}
		}
		pairs = append(pairs, pair{placeholder: fields[0], old: fields[1], new: fields[2]})
	}
	return pairs, true, nil
}
