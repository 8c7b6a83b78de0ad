package qrfs

import (
	"fmt"
	"sort"
	"strings"
)

// Issue describes one detected problem or warning.
type Issue struct {
	Inode  uint64
	Kind   string
	Detail string
}

func (i Issue) String() string {
	return fmt.Sprintf("inode %d: %s: %s", i.Inode, i.Kind, i.Detail)
}

// Report is the result of a consistency pass: hard Issues (orphans, cycles,
// dangling references, ...) and softer Warnings (size/data mismatches,
// suspicious names) reported separately.
type Report struct {
	Issues   []Issue
	Warnings []Issue
}

func (r *Report) addIssue(inode uint64, kind, detail string) {
	r.Issues = append(r.Issues, Issue{Inode: inode, Kind: kind, Detail: detail})
}

func (r *Report) addWarning(inode uint64, kind, detail string) {
	r.Warnings = append(r.Warnings, Issue{Inode: inode, Kind: kind, Detail: detail})
}

// Clean reports whether the pass found no hard issues (warnings don't count).
func (r *Report) Clean() bool {
	return len(r.Issues) == 0
}

// Check runs a read-only validation pass over m: orphaned parents,
// parent/child asymmetry, cycles, duplicate inodes, invalid names,
// size-vs-data mismatches, and dangling inode-to-block entries.
func Check(m *Model) *Report {
	r := &Report{}
	entries := m.All()
	byIno := make(map[uint64]*Entry, len(entries))
	for _, e := range entries {
		if _, dup := byIno[e.Inode]; dup {
			r.addIssue(e.Inode, "duplicate_inode", "more than one entry claims this inode")
			continue
		}
		byIno[e.Inode] = e
	}

	for _, e := range entries {
		if e.Inode == rootIno {
			if e.Parent != 0 {
				r.addIssue(e.Inode, "root_parent", "root directory must have parent 0")
			}
			continue
		}
		parent, ok := byIno[e.Parent]
		if !ok {
			r.addIssue(e.Inode, "orphan", fmt.Sprintf("parent inode %d does not exist", e.Parent))
			continue
		}
		if parent.Kind != KindDirectory {
			r.addIssue(e.Inode, "orphan", fmt.Sprintf("parent inode %d is not a directory", e.Parent))
			continue
		}
		found := false
		for _, c := range parent.Children {
			if c == e.Inode {
				found = true
				break
			}
		}
		if !found {
			r.addIssue(e.Inode, "asymmetry", fmt.Sprintf("missing from parent %d's children list", e.Parent))
		}
	}

	for _, e := range entries {
		if e.Kind != KindDirectory {
			continue
		}
		seen := make(map[string]bool, len(e.Children))
		for _, c := range e.Children {
			child, ok := byIno[c]
			if !ok {
				r.addIssue(e.Inode, "dangling_child", fmt.Sprintf("child inode %d does not exist", c))
				continue
			}
			if child.Parent != e.Inode {
				r.addIssue(c, "asymmetry", fmt.Sprintf("child's parent field (%d) disagrees with directory %d listing it", child.Parent, e.Inode))
			}
			if seen[child.Name] {
				r.addIssue(e.Inode, "name_clash", fmt.Sprintf("duplicate child name %q", child.Name))
			}
			seen[child.Name] = true
		}
	}

	for _, e := range entries {
		visited := map[uint64]bool{}
		cur := e.Inode
		for steps := 0; steps < len(entries)+1; steps++ {
			if cur == rootIno {
				break
			}
			if visited[cur] {
				r.addIssue(e.Inode, "cycle", "parent chain does not reach the root")
				break
			}
			visited[cur] = true
			parent, ok := byIno[cur]
			if !ok {
				break
			}
			cur = parent.Parent
		}
	}

	for _, e := range entries {
		if err := validateName(e.Name); err != nil && e.Inode != rootIno {
			r.addWarning(e.Inode, "invalid_name", err.Error())
		}
		if e.Kind == KindRegular && uint64(len(e.Data)) != e.Attrs.Size {
			r.addWarning(e.Inode, "size_mismatch", fmt.Sprintf("attrs.size=%d but data len=%d", e.Attrs.Size, len(e.Data)))
		}
		if e.Kind == KindDirectory && len(e.Data) != 0 {
			r.addWarning(e.Inode, "directory_has_data", "directory entry carries inline data")
		}
	}

	m.mu.Lock()
	for inode, block := range m.inodeToBlock {
		if _, ok := m.entries[inode]; !ok {
			r.addIssue(inode, "dangling_block", fmt.Sprintf("block %d maps to a missing entry", block))
		}
	}
	m.mu.Unlock()

	return r
}

// DirectoryTree renders a depth-bounded preview of the tree rooted at inode.
func DirectoryTree(m *Model, root uint64, maxDepth int) string {
	var b strings.Builder
	var walk func(inode uint64, prefix string, depth int)
	walk = func(inode uint64, prefix string, depth int) {
		e, err := m.Get(inode)
		if err != nil {
			return
		}
		b.WriteString(prefix)
		b.WriteString(e.Name)
		if e.Kind == KindDirectory {
			b.WriteString("/")
		}
		b.WriteString("\n")
		if depth >= maxDepth || e.Kind != KindDirectory {
			return
		}
		children, err := m.Children(inode)
		if err != nil {
			return
		}
		sorted := append([]uint64(nil), children...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		for _, c := range sorted {
			walk(c, prefix+"  ", depth+1)
		}
	}
	walk(root, "", 0)
	return b.String()
}
